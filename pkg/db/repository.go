package db

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/smith3v/tg-bible-reminder/pkg/config"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const ConversationCleanupInterval = time.Minute

// Export DB variable
var DB *gorm.DB

func InitDB(cfg config.DatabaseConfig, gormLevel string) error {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		logger.Error("invalid database configuration", "error", err)
		return err
	}
	gormLogger, gormErr := newGormLogger(gormLevel)
	if gormErr != nil {
		logger.Error("invalid gorm log level", "value", gormLevel, "error", gormErr)
	}
	gdb, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		logger.Error("failed to connect to database", "driver", cfg.Driver, "error", err)
		return err
	}
	if err := gdb.AutoMigrate(Models()...); err != nil {
		logger.Error("failed to auto-migrate database", "error", err)
		return err
	}
	DB = gdb
	return nil
}

func dialectorFor(cfg config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "", "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = config.DefaultSQLitePath
		}
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(postgresDSN(cfg)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func postgresDSN(cfg config.DatabaseConfig) string {
	if cfg.DSN != "" {
		return cfg.DSN
	}
	return "host=" + cfg.Host +
		" user=" + cfg.User +
		" password=" + cfg.Password +
		" dbname=" + cfg.DBName +
		" port=" + strconv.Itoa(cfg.Port) +
		" sslmode=" + cfg.SSLMode
}

// CleanupExpiredConversations drops flow rows whose deadline has passed.
func CleanupExpiredConversations(gdb *gorm.DB, now time.Time) (int64, error) {
	if gdb == nil {
		return 0, nil
	}
	res := gdb.Where("expires_at <= ?", now).Delete(&ConversationState{})
	return res.RowsAffected, res.Error
}

func StartConversationCleanup(ctx context.Context, gdb *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = ConversationCleanupInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			deleted, err := CleanupExpiredConversations(gdb, now.UTC())
			if err != nil {
				logger.Error("failed to cleanup expired conversations", "error", err)
				continue
			}
			if deleted > 0 {
				logger.Debug("expired conversations removed", "count", deleted)
			}
		}
	}
}
