package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

func (h *Handlers) HandleSetLanguage(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleSetLanguage")
		return
	}
	out := conversation.LanguageFlow{}.Begin(update.Message.Text)
	if out.Language != "" && !h.saveLanguage(ctx, b, chatID, out.Language) {
		h.repromptLanguage(ctx, b, chatID)
		return
	}
	if err := h.Conversations.Begin(ctx, chatID, conversation.FlowLanguage, out); err != nil {
		logger.Error("failed to start language conversation", "chat_id", chatID, "error", err)
		sendText(ctx, b, chatID, "Failed to start. Please try again later.")
		return
	}
	sendReplies(ctx, b, chatID, out.Replies)
}

// repromptLanguage keeps the chat in the language flow after a failed save.
func (h *Handlers) repromptLanguage(ctx context.Context, b *bot.Bot, chatID int64) {
	out := conversation.LanguageFlow{}.Prompt()
	if err := h.Conversations.Begin(ctx, chatID, conversation.FlowLanguage, out); err != nil {
		logger.Error("failed to reopen language conversation", "chat_id", chatID, "error", err)
		if err := h.Conversations.End(ctx, chatID); err != nil {
			logger.Error("failed to end language conversation", "chat_id", chatID, "error", err)
		}
		sendReplies(ctx, b, chatID, []conversation.Reply{{Text: "Please try /setlang again later.", RemoveKeyboard: true}})
		return
	}
	sendReplies(ctx, b, chatID, out.Replies)
}

func (h *Handlers) saveLanguage(ctx context.Context, b *bot.Bot, chatID int64, code string) bool {
	if err := h.Preferences.SetLanguage(ctx, chatID, code); err != nil {
		logger.Error("failed to save language preference", "chat_id", chatID, "language", code, "error", err)
		sendText(ctx, b, chatID, "Failed to save your language. Please try again later.")
		return false
	}
	logger.Info("language preference updated", "chat_id", chatID, "language", code)
	return true
}
