// Package handlers wires Telegram commands to the reminder registry, the
// conversation flows and the notification composer.
package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/notify"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/reminders"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/schedule"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
)

type Handlers struct {
	Registry      *reminders.Registry
	Preferences   store.Preferences
	Conversations *conversation.Manager
	Reminder      *notify.Reminder
	Schedule      *schedule.Repository
}

// Register installs every command handler on b. Commands are matched before
// the default handler, so a command sent during a flow does not end it.
func (h *Handlers) Register(b *bot.Bot) {
	b.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, h.HandleStart)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/respondchatid", bot.MatchTypeExact, h.HandleRespondChatID)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/remindbiblestudy", bot.MatchTypeExact, h.HandleRemindNow)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/deletebiblestudyreminder", bot.MatchTypeExact, h.HandleDeleteReminders)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/sst", bot.MatchTypePrefix, h.HandleSetTime)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/createbiblestudyreminder", bot.MatchTypeExact, h.HandleCreateReminder)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/myreminders", bot.MatchTypeExact, h.HandleMyReminders)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/setlang", bot.MatchTypePrefix, h.HandleSetLanguage)
	b.RegisterHandler(bot.HandlerTypeMessageText, conversation.CancelCommand, bot.MatchTypeExact, h.HandleCancel)
	b.RegisterHandler(bot.HandlerTypeMessageText, "/reading", bot.MatchTypePrefix, h.HandleReading)
}

func messageChatID(update *models.Update) (int64, bool) {
	if update == nil || update.Message == nil || update.Message.Chat.ID == 0 {
		return 0, false
	}
	return update.Message.Chat.ID, true
}

func sendText(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	}); err != nil {
		logger.Error("failed to send message", "chat_id", chatID, "error", err)
	}
}

func sendReplies(ctx context.Context, b *bot.Bot, chatID int64, replies []conversation.Reply) {
	for _, reply := range replies {
		params := &bot.SendMessageParams{
			ChatID: chatID,
			Text:   reply.Text,
		}
		switch {
		case len(reply.Keyboard) > 0:
			params.ReplyMarkup = replyKeyboard(reply.Keyboard)
		case reply.RemoveKeyboard:
			params.ReplyMarkup = &models.ReplyKeyboardRemove{RemoveKeyboard: true}
		}
		if _, err := b.SendMessage(ctx, params); err != nil {
			logger.Error("failed to send message", "chat_id", chatID, "error", err)
		}
	}
}

func replyKeyboard(labels []string) *models.ReplyKeyboardMarkup {
	row := make([]models.KeyboardButton, 0, len(labels))
	for _, label := range labels {
		row = append(row, models.KeyboardButton{Text: label})
	}
	return &models.ReplyKeyboardMarkup{
		Keyboard:              [][]models.KeyboardButton{row},
		OneTimeKeyboard:       true,
		ResizeKeyboard:        true,
		InputFieldPlaceholder: "English or German?",
	}
}
