package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/notify"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/reminders"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

const (
	noRemindersText      = "You have no active reminders."
	remindersRemovedText = "Removed your Bible study reminder."
	remindFailedText     = "Failed to send the reminder. Please try again later."
	scheduleFailedText   = "Failed to save your reminder. Please try again later."
)

func (h *Handlers) HandleRemindNow(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleRemindNow")
		return
	}
	if err := h.Reminder.Remind(ctx, notify.TelegramSender{Bot: b}, chatID); err != nil {
		logger.Error("failed to send reminder on demand", "chat_id", chatID, "error", err)
		sendText(ctx, b, chatID, remindFailedText)
	}
}

func (h *Handlers) HandleDeleteReminders(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleDeleteReminders")
		return
	}
	removed, err := h.Registry.CancelAll(ctx, reminders.JobName(chatID))
	if err != nil {
		logger.Error("failed to delete reminders", "chat_id", chatID, "error", err)
		sendText(ctx, b, chatID, "Failed to delete your reminders. Please try again later.")
		return
	}
	if removed == 0 {
		sendText(ctx, b, chatID, noRemindersText)
		return
	}
	sendText(ctx, b, chatID, remindersRemovedText)
}

// HandleSetTime is the single-message form: /sst HH:MM.
func (h *Handlers) HandleSetTime(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleSetTime")
		return
	}
	out := conversation.SingleShotReminder(update.Message.Text)
	sendReplies(ctx, b, chatID, out.Replies)
	if out.Time != nil {
		h.activate(ctx, b, chatID, *out.Time)
	}
}

func (h *Handlers) HandleCreateReminder(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleCreateReminder")
		return
	}
	out := conversation.ReminderFlow{}.Begin()
	if err := h.Conversations.Begin(ctx, chatID, conversation.FlowReminderTime, out); err != nil {
		logger.Error("failed to start reminder conversation", "chat_id", chatID, "error", err)
		sendText(ctx, b, chatID, "Failed to start. Please try again later.")
		return
	}
	sendReplies(ctx, b, chatID, out.Replies)
}

func (h *Handlers) HandleMyReminders(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleMyReminders")
		return
	}
	jobs := h.Registry.FindByName(reminders.JobName(chatID))
	if len(jobs) == 0 {
		sendText(ctx, b, chatID, noRemindersText)
		return
	}
	var sb strings.Builder
	sb.WriteString("Your reminders:")
	for _, job := range jobs {
		fmt.Fprintf(&sb, "\n- Daily at %s UTC", job.Time.String())
	}
	sendText(ctx, b, chatID, sb.String())
}

func (h *Handlers) activate(ctx context.Context, b *bot.Bot, chatID int64, t reminders.TimeOfDay) {
	if _, err := h.Registry.ScheduleDaily(ctx, chatID, t, reminders.AllWeekdays, reminders.JobName(chatID)); err != nil {
		logger.Error("failed to schedule reminder", "chat_id", chatID, "time", t.String(), "error", err)
		sendText(ctx, b, chatID, scheduleFailedText)
		return
	}
	sendText(ctx, b, chatID, conversation.ActivatedText(t))
}
