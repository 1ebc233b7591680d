package handlers

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

const startText = "Hi! I send you a daily reminder to read the Bible, together with the passages scheduled for the day.\n\n" +
	"Use /createbiblestudyreminder to choose a time and /setlang to pick your language."

const helpText = "Commands:\n" +
	"/createbiblestudyreminder - set up your daily reminder\n" +
	"/sst HH:MM - set the reminder time directly\n" +
	"/myreminders - list your reminders\n" +
	"/deletebiblestudyreminder - remove your reminders\n" +
	"/remindbiblestudy - send today's reminder now\n" +
	"/reading [MM-DD-YY] - show the reading for a day\n" +
	"/setlang - choose English or German\n" +
	"/cancel - stop the current question\n" +
	"/respondchatid - show this chat's ID"

func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleStart")
		return
	}
	sendText(ctx, b, chatID, startText)
}

func (h *Handlers) HandleRespondChatID(ctx context.Context, b *bot.Bot, update *models.Update) {
	chatID, ok := messageChatID(update)
	if !ok {
		logger.Error("invalid update in HandleRespondChatID")
		return
	}
	sendText(ctx, b, chatID, fmt.Sprintf("Hello, your Chat-ID is: %d", chatID))
}
