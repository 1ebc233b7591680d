package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
)

type Sender interface {
	Send(ctx context.Context, chatID int64, n Notification) error
}

type TelegramSender struct {
	Bot *bot.Bot
}

// Send posts the message, then the poll. A failed message skips the poll.
func (s TelegramSender) Send(ctx context.Context, chatID int64, n Notification) error {
	if _, err := s.Bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      n.Text,
		ParseMode: n.ParseMode,
	}); err != nil {
		return fmt.Errorf("send reminder message: %w", err)
	}

	options := make([]models.InputPollOption, 0, len(n.Poll.Options))
	for _, option := range n.Poll.Options {
		options = append(options, models.InputPollOption{Text: option})
	}
	isAnonymous := n.Poll.IsAnonymous
	if _, err := s.Bot.SendPoll(ctx, &bot.SendPollParams{
		ChatID:      chatID,
		Question:    n.Poll.Question,
		Options:     options,
		IsAnonymous: &isAnonymous,
	}); err != nil {
		return fmt.Errorf("send reminder poll: %w", err)
	}
	return nil
}

// Reminder composes a chat's notification in its stored language.
type Reminder struct {
	Preferences store.Preferences
	Composer    *Composer
}

func (r *Reminder) Remind(ctx context.Context, sender Sender, chatID int64) error {
	lang, err := r.Preferences.Language(ctx, chatID)
	if err != nil {
		logger.Error("failed to load language preference, using default", "chat_id", chatID, "error", err)
		lang = ""
	}
	n, err := r.Composer.Compose(chatID, lang)
	if err != nil {
		return err
	}
	if err := sender.Send(ctx, chatID, n); err != nil {
		return err
	}
	logger.Info("reminder sent", "chat_id", chatID, "language", lang)
	return nil
}
