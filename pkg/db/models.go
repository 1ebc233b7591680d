package db

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type UserPreference struct {
	ID        uint   `gorm:"primaryKey"`
	ChatID    int64  `gorm:"uniqueIndex;not null"`
	Language  string `gorm:"not null;default:en"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReminderJob is the durable copy of a daily cron registration. Name is the
// stringified chat ID and is the lookup key used by the commands.
type ReminderJob struct {
	ID        string                   `gorm:"primaryKey;size:36"`
	ChatID    int64                    `gorm:"index;not null"`
	Name      string                   `gorm:"index;not null"`
	Hour      int                      `gorm:"not null"`
	Minute    int                      `gorm:"not null"`
	Weekdays  datatypes.JSONSlice[int] `gorm:"not null"`
	CreatedAt time.Time
}

func (j *ReminderJob) BeforeCreate(tx *gorm.DB) error {
	if j.ID == "" {
		j.ID = uuid.NewString()
	}
	return nil
}

type ConversationState struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    int64     `gorm:"uniqueIndex;not null"`
	Flow      string    `gorm:"not null"`
	State     string    `gorm:"not null"`
	ExpiresAt time.Time `gorm:"index;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func Models() []any {
	return []any{&UserPreference{}, &ReminderJob{}, &ConversationState{}}
}
