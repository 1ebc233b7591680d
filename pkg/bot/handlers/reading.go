package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/notify"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/schedule"
)

const (
	invalidDateText = "Invalid date format. Please use the format MM-DD-YY."
	noReadingText   = "No reading is scheduled for "
)

// HandleReading shows the passages for today or for the MM-DD-YY date given
// as argument, without the poll.
func (h *Handlers) HandleReading(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleReading")
		return
	}

	day := h.Schedule.CurrentDay()
	fields := strings.Fields(update.Message.Text)
	if len(fields) > 1 {
		parsed, err := schedule.ParseDate(fields[1])
		if err != nil {
			sendText(ctx, b, chatID, invalidDateText)
			return
		}
		day = parsed
	}

	entry, found, err := h.Schedule.Resolve(day)
	if err != nil {
		logger.Error("failed to resolve reading", "chat_id", chatID, "date", day.Format(schedule.DateLayout), "error", err)
		sendText(ctx, b, chatID, "Failed to read the schedule. Please try again later.")
		return
	}
	if !found {
		sendText(ctx, b, chatID, noReadingText+day.Format(schedule.DateLayout)+".")
		return
	}

	lang, err := h.Preferences.Language(ctx, chatID)
	if err != nil {
		logger.Error("failed to load language preference, using default", "chat_id", chatID, "error", err)
	}
	n := notify.Build(entry, true, lang)
	if _, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      n.Text,
		ParseMode: n.ParseMode,
	}); err != nil {
		logger.Error("failed to send reading", "chat_id", chatID, "error", err)
	}
}
