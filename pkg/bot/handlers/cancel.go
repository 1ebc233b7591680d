package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

const nothingToCancelText = "Nothing to cancel."

// HandleCancel routes /cancel into the active flow so each flow answers with
// its own cancellation text.
func (h *Handlers) HandleCancel(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleCancel")
		return
	}
	_, out, active, err := h.Conversations.Advance(ctx, chatID, update.Message.Text)
	if err != nil {
		logger.Error("failed to cancel conversation", "chat_id", chatID, "error", err)
	}
	if !active {
		sendText(ctx, b, chatID, nothingToCancelText)
		return
	}
	sendReplies(ctx, b, chatID, out.Replies)
}
