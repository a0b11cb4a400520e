package config

import (
	"errors"
	"fmt"
	"net/mail"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/robfig/cron/v3"
)

// DefaultFile is read when BUDGETLENS_CONFIG is unset.
const DefaultFile = "budgetlens.toml"

type Config struct {
	// HTTP server
	Port               string        `toml:"port"`
	RateLimitPerMinute int           `toml:"rate_limit_per_minute"`
	ShutdownTimeout    time.Duration `toml:"shutdown_timeout"`
	LogLevel           string        `toml:"log_level"`

	// Storage
	DataBackend  string `toml:"data_backend"`
	SQLiteDBPath string `toml:"sqlite_db_path"`
	PostgresDSN  string `toml:"postgres_dsn"`

	// AMQP budget alerts; empty URL disables publishing.
	AMQPURL      string `toml:"amqp_url"`
	AMQPExchange string `toml:"amqp_exchange"`
	AMQPQueue    string `toml:"amqp_queue"`

	// Alert emails
	SMTPHost       string   `toml:"smtp_host"`
	SMTPPort       int      `toml:"smtp_port"`
	SMTPUsername   string   `toml:"smtp_username"`
	SMTPPassword   string   `toml:"smtp_password"`
	AlertEmailFrom string   `toml:"alert_email_from"`
	AlertEmailTo   []string `toml:"alert_email_to"`

	// Scheduled exports
	ExportDir      string `toml:"export_dir"`
	ExportSchedule string `toml:"export_schedule"`

	// Google Sheets export
	GoogleSpreadsheetID      string `toml:"google_spreadsheet_id"`
	GoogleServiceAccountFile string `toml:"google_service_account_file"`
	GoogleServiceAccountJSON string `toml:"google_service_account_json"`
}

// Defaults returns the built-in configuration without reading any file or
// environment variable.
func Defaults() *Config { return defaults() }

func defaults() *Config {
	return &Config{
		Port:               "8081",
		RateLimitPerMinute: 60,
		ShutdownTimeout:    30 * time.Second,
		LogLevel:           "info",
		DataBackend:        "sqlite",
		SQLiteDBPath:       "./data/budgetlens.db",
		AMQPExchange:       "budgetlens",
		AMQPQueue:          "budget_alerts",
		SMTPPort:           587,
		ExportDir:          "./exports",
		ExportSchedule:     "0 6 1 * *",
	}
}

// Load layers defaults, the TOML file (BUDGETLENS_CONFIG or ./budgetlens.toml,
// optional) and environment variables, in that order.
func Load() (*Config, error) {
	path := os.Getenv("BUDGETLENS_CONFIG")
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	return LoadFile(path, explicit)
}

// LoadFile is Load with an explicit file. A missing file is an error only
// when required is set.
func LoadFile(path string, required bool) (*Config, error) {
	cfg := defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			if !errors.Is(err, os.ErrNotExist) || required {
				return nil, fmt.Errorf("read config file %s: %w", path, err)
			}
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)
	c.PostgresDSN = getEnv("POSTGRES_DSN", c.PostgresDSN)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.SMTPHost = getEnv("SMTP_HOST", c.SMTPHost)
	c.SMTPPort = getEnvInt("SMTP_PORT", c.SMTPPort)
	c.SMTPUsername = getEnv("SMTP_USERNAME", c.SMTPUsername)
	c.SMTPPassword = getEnv("SMTP_PASSWORD", c.SMTPPassword)
	c.AlertEmailFrom = getEnv("ALERT_EMAIL_FROM", c.AlertEmailFrom)
	c.AlertEmailTo = getEnvList("ALERT_EMAIL_TO", c.AlertEmailTo)

	c.ExportDir = getEnv("EXPORT_DIR", c.ExportDir)
	c.ExportSchedule = getEnv("EXPORT_SCHEDULE", c.ExportSchedule)

	c.GoogleSpreadsheetID = getEnv("GOOGLE_SPREADSHEET_ID", c.GoogleSpreadsheetID)
	c.GoogleServiceAccountFile = getEnv("GOOGLE_SERVICE_ACCOUNT_FILE", c.GoogleServiceAccountFile)
	c.GoogleServiceAccountJSON = getEnv("GOOGLE_SERVICE_ACCOUNT_JSON", c.GoogleServiceAccountJSON)
}

func (c *Config) AMQPEnabled() bool { return c.AMQPURL != "" }

func (c *Config) SMTPEnabled() bool { return c.SMTPHost != "" }

func (c *Config) SheetsEnabled() bool { return c.GoogleSpreadsheetID != "" }

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if port, err := strconv.Atoi(c.Port); err != nil {
		add("invalid port '%s': must be a number", c.Port)
	} else if port < 1 || port > 65535 {
		add("invalid port %d: must be between 1 and 65535", port)
	}
	if c.RateLimitPerMinute < 1 {
		add("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute)
	}
	if c.ShutdownTimeout < time.Second {
		add("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		add("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel)
	}

	switch c.DataBackend {
	case "memory":
	case "sqlite":
		if c.SQLiteDBPath == "" {
			add("SQLite database path cannot be empty when using sqlite backend")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			add("POSTGRES_DSN is required when using postgres backend")
		}
	default:
		add("invalid data backend '%s': must be one of [memory sqlite postgres]", c.DataBackend)
	}

	if c.AMQPEnabled() {
		if u, err := url.Parse(c.AMQPURL); err != nil {
			add("invalid AMQP URL '%s': %v", c.AMQPURL, err)
		} else if u.Scheme != "amqp" && u.Scheme != "amqps" {
			add("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", u.Scheme)
		}
		if c.AMQPExchange == "" {
			add("AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			add("AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SMTPEnabled() {
		if c.SMTPPort < 1 || c.SMTPPort > 65535 {
			add("invalid SMTP port %d: must be between 1 and 65535", c.SMTPPort)
		}
		if _, err := mail.ParseAddress(c.AlertEmailFrom); err != nil {
			add("invalid ALERT_EMAIL_FROM '%s': %v", c.AlertEmailFrom, err)
		}
		if len(c.AlertEmailTo) == 0 {
			add("ALERT_EMAIL_TO is required when SMTP_HOST is set")
		}
		for _, to := range c.AlertEmailTo {
			if _, err := mail.ParseAddress(to); err != nil {
				add("invalid ALERT_EMAIL_TO address '%s': %v", to, err)
			}
		}
	}

	if c.ExportSchedule != "" {
		if _, err := cron.ParseStandard(c.ExportSchedule); err != nil {
			add("invalid EXPORT_SCHEDULE '%s': %v", c.ExportSchedule, err)
		}
		if c.ExportDir == "" {
			add("EXPORT_DIR cannot be empty when EXPORT_SCHEDULE is set")
		}
	}

	if c.SheetsEnabled() && c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		add("either GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON must be provided for sheets export")
	}
	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); err != nil {
			add("Google service account file does not exist: %s", c.GoogleServiceAccountFile)
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(problems, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma-separated value, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
