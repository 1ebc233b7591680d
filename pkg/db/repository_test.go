package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/smith3v/tg-bible-reminder/pkg/config"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func openTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite database: %v", err)
	}
	if err := gdb.AutoMigrate(Models()...); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to access underlying DB: %v", err)
	}
	t.Cleanup(func() {
		if err := sqlDB.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}
	})
	return gdb
}

func TestInitDBSQLiteFile(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	t.Cleanup(func() {
		if DB != nil {
			if sqlDB, err := DB.DB(); err == nil {
				sqlDB.Close()
			}
		}
		DB = nil
		logger.SetLogLevel(logger.INFO)
	})

	path := filepath.Join(t.TempDir(), "bot.db")
	if err := InitDB(config.DatabaseConfig{Driver: "sqlite", DSN: path}, "silent"); err != nil {
		t.Fatalf("InitDB returned error: %v", err)
	}
	if DB == nil {
		t.Fatal("expected DB to be initialized")
	}
	for _, model := range Models() {
		if !DB.Migrator().HasTable(model) {
			t.Fatalf("expected table for %T", model)
		}
	}
}

func TestInitDBRejectsUnknownDriver(t *testing.T) {
	logger.SetLogLevel(logger.ERROR)
	t.Cleanup(func() { logger.SetLogLevel(logger.INFO) })

	if err := InitDB(config.DatabaseConfig{Driver: "oracle"}, ""); err == nil {
		t.Fatal("expected error for unknown driver")
	}
}

func TestPostgresDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host:     "db",
		User:     "bot",
		Password: "secret",
		DBName:   "bible",
		Port:     5432,
		SSLMode:  "disable",
	}
	want := "host=db user=bot password=secret dbname=bible port=5432 sslmode=disable"
	if got := postgresDSN(cfg); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	cfg.DSN = "postgres://bot@db/bible"
	if got := postgresDSN(cfg); got != cfg.DSN {
		t.Fatalf("expected explicit DSN to win, got %q", got)
	}
}

func TestReminderJobGetsUUID(t *testing.T) {
	gdb := openTestDB(t, "reminder_job_uuid")

	job := ReminderJob{
		ChatID:   7,
		Name:     "7",
		Hour:     8,
		Minute:   30,
		Weekdays: datatypes.NewJSONSlice([]int{0, 1, 2, 3, 4, 5, 6}),
	}
	if err := gdb.Create(&job).Error; err != nil {
		t.Fatalf("failed to create job: %v", err)
	}
	if _, err := uuid.Parse(job.ID); err != nil {
		t.Fatalf("expected uuid id, got %q: %v", job.ID, err)
	}

	var loaded ReminderJob
	if err := gdb.First(&loaded, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("failed to load job: %v", err)
	}
	if len(loaded.Weekdays) != 7 || loaded.Weekdays[6] != 6 {
		t.Fatalf("expected weekdays to round-trip, got %v", loaded.Weekdays)
	}
}

func TestCleanupExpiredConversations(t *testing.T) {
	gdb := openTestDB(t, "conversation_cleanup")
	now := time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

	states := []ConversationState{
		{ChatID: 1, Flow: "language", State: "awaiting_input", ExpiresAt: now.Add(-time.Minute)},
		{ChatID: 2, Flow: "reminder_time", State: "awaiting_input", ExpiresAt: now.Add(time.Hour)},
	}
	if err := gdb.Create(&states).Error; err != nil {
		t.Fatalf("failed to seed conversations: %v", err)
	}

	deleted, err := CleanupExpiredConversations(gdb, now)
	if err != nil {
		t.Fatalf("cleanup returned error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted row, got %d", deleted)
	}

	var remaining []ConversationState
	if err := gdb.Find(&remaining).Error; err != nil {
		t.Fatalf("failed to load conversations: %v", err)
	}
	if len(remaining) != 1 || remaining[0].ChatID != 2 {
		t.Fatalf("expected only chat 2 to remain, got %+v", remaining)
	}
}

func TestCleanupExpiredConversationsNilDB(t *testing.T) {
	deleted, err := CleanupExpiredConversations(nil, time.Now())
	if err != nil || deleted != 0 {
		t.Fatalf("expected no-op for nil db, got %d, %v", deleted, err)
	}
}
