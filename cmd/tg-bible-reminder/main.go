package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-telegram/bot"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/conversation"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/handlers"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/notify"
	"github.com/smith3v/tg-bible-reminder/pkg/bot/reminders"
	"github.com/smith3v/tg-bible-reminder/pkg/config"
	"github.com/smith3v/tg-bible-reminder/pkg/db"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"github.com/smith3v/tg-bible-reminder/pkg/schedule"
	"github.com/smith3v/tg-bible-reminder/pkg/store"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			logger.Error("TELEGRAM_BOT_TOKEN is not set")
		} else {
			logger.Error("failed to load config", "error", err)
		}
		os.Exit(1)
	}
	cfg := config.AppConfig
	if err := logger.Configure(logger.Options{
		Level: cfg.Logging.Level,
		File:  cfg.Logging.File,
	}); err != nil {
		logger.Error("failed to configure logger", "error", err)
	}

	if err := db.InitDB(cfg.Database, cfg.Logging.GormLevel); err != nil {
		logger.Error("failed to initialize database", "error", err)
		os.Exit(1)
	}
	stores := store.NewGorm(db.DB)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	repo := schedule.NewRepository(cfg.Schedule.File)
	reminder := &notify.Reminder{Preferences: stores, Composer: notify.NewComposer(repo)}

	h := &handlers.Handlers{
		Preferences:   stores,
		Conversations: conversation.NewManager(stores, time.Duration(cfg.Conversation.TimeoutMinutes)*time.Minute, nil),
		Reminder:      reminder,
		Schedule:      repo,
	}

	b, err := bot.New(cfg.Telegram.Token, bot.WithDefaultHandler(h.DefaultHandler))
	if err != nil {
		logger.Error("failed to create bot", "error", err)
		os.Exit(1)
	}

	sender := notify.TelegramSender{Bot: b}
	registry := reminders.NewRegistry(stores, func(ctx context.Context, chatID int64) {
		if err := reminder.Remind(ctx, sender, chatID); err != nil {
			logger.Error("failed to send scheduled reminder", "chat_id", chatID, "error", err)
		}
	})
	h.Registry = registry
	h.Register(b)

	restored, err := registry.Restore(ctx)
	if err != nil {
		logger.Error("failed to restore reminders", "error", err)
	}
	logger.Info("reminders restored", "count", restored)
	registry.Start(ctx)

	go db.StartConversationCleanup(ctx, db.DB, db.ConversationCleanupInterval)

	logger.Info("Starting bot...", "schedule", repo.Path)
	b.Start(ctx)

	<-registry.Stop().Done()
	logger.Info("bot stopped")
}
