package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/smith3v/tg-bible-reminder/pkg/logger"
)

const (
	DefaultDatabaseDriver = "sqlite"
	DefaultSQLitePath     = "biblereadingbot.db"
	DefaultScheduleFile   = "schedule.csv"

	defaultConversationTimeoutMinutes = 60
)

var ErrMissingToken = errors.New("TELEGRAM_BOT_TOKEN not set in environment variables")

type Config struct {
	Telegram     TelegramConfig     `json:"telegram"`
	Database     DatabaseConfig     `json:"database"`
	Schedule     ScheduleConfig     `json:"schedule"`
	Logging      LoggingConfig      `json:"logging"`
	Conversation ConversationConfig `json:"conversation"`
}

type TelegramConfig struct {
	Token string `json:"token"`
}

// DatabaseConfig selects the persistence backend. DSN wins over the discrete
// postgres fields when both are set.
type DatabaseConfig struct {
	Driver   string `json:"driver"`
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"dbname"`
	Port     int    `json:"port"`
	SSLMode  string `json:"sslmode"`
}

type ScheduleConfig struct {
	File string `json:"file"`
}

type LoggingConfig struct {
	Level     string `json:"level"`
	File      string `json:"file"`
	GormLevel string `json:"gorm_level"`
}

type ConversationConfig struct {
	TimeoutMinutes int `json:"timeout_minutes"`
}

// envOverrides maps process environment onto Config. Unset variables leave the
// file values untouched.
type envOverrides struct {
	TelegramToken  string `envconfig:"TELEGRAM_BOT_TOKEN"`
	DatabaseDriver string `envconfig:"DATABASE_DRIVER"`
	DatabaseDSN    string `envconfig:"DATABASE_DSN"`
	ScheduleFile   string `envconfig:"SCHEDULE_FILE"`
	LogLevel       string `envconfig:"LOG_LEVEL"`
	LogFile        string `envconfig:"LOG_FILE"`
	GormLogLevel   string `envconfig:"GORM_LOG_LEVEL"`
}

var (
	AppConfig Config

	// EnvFiles are loaded into the process environment before overrides are
	// applied. Missing files are skipped.
	EnvFiles = []string{".env"}
)

// LoadConfig reads the optional JSON file, overlays the environment and
// validates the result into AppConfig. A missing file is not an error; a
// malformed one is.
func LoadConfig(filename string) error {
	var cfg Config
	if err := decodeFile(filename, &cfg); err != nil {
		return err
	}

	loadEnvFiles()

	var env envOverrides
	if err := envconfig.Process("", &env); err != nil {
		logger.Error("failed to read environment", "error", err)
		return err
	}
	env.apply(&cfg)
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return err
	}

	AppConfig = cfg
	return nil
}

func decodeFile(filename string, cfg *Config) error {
	if strings.TrimSpace(filename) == "" {
		return nil
	}
	file, err := os.Open(filename)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Debug("config file not found, using environment only", "file", filename)
			return nil
		}
		logger.Error("failed to open config file", "error", err)
		return err
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		logger.Error("failed to decode config file", "error", err)
		return fmt.Errorf("decode %s: %w", filename, err)
	}
	return nil
}

func loadEnvFiles() {
	for _, name := range EnvFiles {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Load(name); err != nil {
			logger.Error("failed to load env file", "file", name, "error", err)
		}
	}
}

func (e envOverrides) apply(cfg *Config) {
	if e.TelegramToken != "" {
		cfg.Telegram.Token = e.TelegramToken
	}
	if e.DatabaseDriver != "" {
		cfg.Database.Driver = e.DatabaseDriver
	}
	if e.DatabaseDSN != "" {
		cfg.Database.DSN = e.DatabaseDSN
	}
	if e.ScheduleFile != "" {
		cfg.Schedule.File = e.ScheduleFile
	}
	if e.LogLevel != "" {
		cfg.Logging.Level = e.LogLevel
	}
	if e.LogFile != "" {
		cfg.Logging.File = e.LogFile
	}
	if e.GormLogLevel != "" {
		cfg.Logging.GormLevel = e.GormLogLevel
	}
}

func (c *Config) applyDefaults() {
	c.Telegram.Token = strings.TrimSpace(c.Telegram.Token)
	c.Database.Driver = strings.ToLower(strings.TrimSpace(c.Database.Driver))
	if c.Database.Driver == "" {
		c.Database.Driver = DefaultDatabaseDriver
	}
	if c.Database.Driver == "sqlite" && c.Database.DSN == "" {
		c.Database.DSN = DefaultSQLitePath
	}
	if strings.TrimSpace(c.Schedule.File) == "" {
		c.Schedule.File = DefaultScheduleFile
	}
	if c.Conversation.TimeoutMinutes <= 0 {
		c.Conversation.TimeoutMinutes = defaultConversationTimeoutMinutes
	}
}

func (c Config) Validate() error {
	if c.Telegram.Token == "" {
		return ErrMissingToken
	}
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	return nil
}
