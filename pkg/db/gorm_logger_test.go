package db

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/smith3v/tg-bible-reminder/pkg/logger"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	originalLogger := logger.Logger
	t.Cleanup(func() {
		logger.Logger = originalLogger
		logger.SetLogLevel(logger.INFO)
	})
	var buf bytes.Buffer
	logger.Logger = slog.New(slog.NewTextHandler(&buf, nil))
	return &buf
}

func traceQuery(l *gormSlogLogger, sql string, err error) {
	l.Trace(context.Background(), time.Now().Add(-time.Millisecond), func() (string, int64) {
		return sql, 1
	}, err)
}

func TestGormLoggerTraceLevels(t *testing.T) {
	buf := captureLogs(t)

	lg, err := newGormLogger("info")
	if err != nil {
		t.Fatalf("failed to create gorm logger: %v", err)
	}
	l := lg.(*gormSlogLogger)

	logger.SetLogLevel(logger.INFO)
	l.slowThreshold = time.Nanosecond
	traceQuery(l, "SELECT 1", nil)
	if !strings.Contains(buf.String(), "gorm slow query") {
		t.Fatalf("expected slow query warning, got: %s", buf.String())
	}

	buf.Reset()
	l.slowThreshold = time.Hour
	traceQuery(l, "SELECT 2", nil)
	if !strings.Contains(buf.String(), "gorm query") {
		t.Fatalf("expected info query log, got: %s", buf.String())
	}

	buf.Reset()
	logger.SetLogLevel(logger.ERROR)
	traceQuery(l, "SELECT 3", errors.New("boom"))
	if !strings.Contains(buf.String(), "gorm query error") {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestGormLoggerSkipsRecordNotFound(t *testing.T) {
	buf := captureLogs(t)

	lg, _ := newGormLogger("info")
	traceQuery(lg.(*gormSlogLogger), "SELECT * FROM user_preferences", gorm.ErrRecordNotFound)
	if buf.Len() != 0 {
		t.Fatalf("expected record-not-found to be ignored, got: %s", buf.String())
	}
}

func TestGormLoggerSilent(t *testing.T) {
	buf := captureLogs(t)

	lg, _ := newGormLogger("silent")
	traceQuery(lg.(*gormSlogLogger), "SELECT 1", errors.New("boom"))
	lg.Error(context.Background(), "failed %s", "badly")
	if buf.Len() != 0 {
		t.Fatalf("expected silent logger to drop output, got: %s", buf.String())
	}
}

func TestNewGormLoggerDefaultsToWarn(t *testing.T) {
	lg, err := newGormLogger("")
	if err != nil {
		t.Fatalf("unexpected error for default gorm logger: %v", err)
	}
	l := lg.(*gormSlogLogger)
	if l.logLevel != gormlogger.Warn {
		t.Fatalf("expected default gorm log level warn, got: %v", l.logLevel)
	}
}

func TestNewGormLoggerInvalidLevelDefaultsToWarn(t *testing.T) {
	lg, err := newGormLogger("nope")
	if err == nil {
		t.Fatalf("expected error for invalid gorm level")
	}
	l := lg.(*gormSlogLogger)
	if l.logLevel != gormlogger.Warn {
		t.Fatalf("expected default gorm log level warn for invalid input, got: %v", l.logLevel)
	}
}
