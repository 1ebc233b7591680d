// Package store holds the per-chat state the bot keeps between updates:
// language preference, persisted reminder jobs and the active conversation
// flow. Callers depend on the narrow interfaces; Gorm backs all of them.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/smith3v/tg-bible-reminder/pkg/db"
	"github.com/smith3v/tg-bible-reminder/pkg/language"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrNoDatabase = errors.New("store: database is not initialized")

type Preferences interface {
	Language(ctx context.Context, chatID int64) (string, error)
	SetLanguage(ctx context.Context, chatID int64, code string) error
}

type Jobs interface {
	SaveJob(ctx context.Context, job *db.ReminderJob) error
	DeleteJob(ctx context.Context, id string) error
	ListJobs(ctx context.Context) ([]db.ReminderJob, error)
}

type Conversations interface {
	// Conversation returns nil when the chat has no unexpired flow.
	Conversation(ctx context.Context, chatID int64, now time.Time) (*db.ConversationState, error)
	SaveConversation(ctx context.Context, state *db.ConversationState) error
	DeleteConversation(ctx context.Context, chatID int64) error
}

type Gorm struct {
	db *gorm.DB
}

func NewGorm(gdb *gorm.DB) *Gorm {
	return &Gorm{db: gdb}
}

func (s *Gorm) conn(ctx context.Context) (*gorm.DB, error) {
	if s == nil || s.db == nil {
		return nil, ErrNoDatabase
	}
	return s.db.WithContext(ctx), nil
}

// Language defaults to English for chats that never picked one.
func (s *Gorm) Language(ctx context.Context, chatID int64) (string, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return "", err
	}
	var pref db.UserPreference
	err = conn.Where("chat_id = ?", chatID).First(&pref).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return language.Default, nil
	}
	if err != nil {
		return "", err
	}
	if pref.Language == "" {
		return language.Default, nil
	}
	return pref.Language, nil
}

func (s *Gorm) SetLanguage(ctx context.Context, chatID int64, code string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	pref := db.UserPreference{ChatID: chatID, Language: code}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"language", "updated_at"}),
	}).Create(&pref).Error
}

func (s *Gorm) SaveJob(ctx context.Context, job *db.ReminderJob) error {
	if job == nil {
		return nil
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return conn.Create(job).Error
}

func (s *Gorm) DeleteJob(ctx context.Context, id string) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return conn.Where("id = ?", id).Delete(&db.ReminderJob{}).Error
}

func (s *Gorm) ListJobs(ctx context.Context) ([]db.ReminderJob, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var jobs []db.ReminderJob
	if err := conn.Order("created_at ASC, id ASC").Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s *Gorm) Conversation(ctx context.Context, chatID int64, now time.Time) (*db.ConversationState, error) {
	conn, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}
	var state db.ConversationState
	err = conn.Where("chat_id = ? AND expires_at > ?", chatID, now).First(&state).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *Gorm) SaveConversation(ctx context.Context, state *db.ConversationState) error {
	if state == nil {
		return nil
	}
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return conn.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "chat_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"flow", "state", "expires_at", "updated_at"}),
	}).Create(state).Error
}

func (s *Gorm) DeleteConversation(ctx context.Context, chatID int64) error {
	conn, err := s.conn(ctx)
	if err != nil {
		return err
	}
	return conn.Where("chat_id = ?", chatID).Delete(&db.ConversationState{}).Error
}
