package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

// DefaultHandler feeds plain text to the chat's active flow and answers with
// the command list otherwise.
func (h *Handlers) DefaultHandler(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update == nil || update.Message == nil {
		logger.Debug("ignoring non-message update")
		return
	}
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("chat ID is zero in DefaultHandler")
		return
	}

	if update.Message.Text != "" {
		flow, out, active, err := h.Conversations.Advance(ctx, chatID, update.Message.Text)
		if err != nil {
			logger.Error("failed to advance conversation", "chat_id", chatID, "error", err)
		}
		if active {
			h.finish(ctx, b, chatID, flow, out)
			return
		}
	}

	sendText(ctx, b, chatID, helpText)
}

func (h *Handlers) finish(ctx context.Context, b *bot.Bot, chatID int64, flow conversation.Flow, out conversation.Outcome) {
	if out.Language != "" && !h.saveLanguage(ctx, b, chatID, out.Language) {
		h.repromptLanguage(ctx, b, chatID)
		return
	}
	sendReplies(ctx, b, chatID, out.Replies)
	if flow == conversation.FlowReminderTime && out.Time != nil {
		h.activate(ctx, b, chatID, *out.Time)
	}
}
