package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v8"
)

type Config struct {
	// HTTP Server
	Port    string `env:"PORT" envDefault:"8081"`
	BaseURL string `env:"BASE_URL" envDefault:"http://localhost:8081"`

	// Backend selection
	DataBackend string `env:"DATA_BACKEND" envDefault:"memory"`

	SQLiteDBPath       string `env:"SQLITE_DB_PATH" envDefault:"./data/fundledger.db"`
	PostgresDSN        string `env:"POSTGRES_DSN"`
	FirestoreProjectID string `env:"FIRESTORE_PROJECT_ID"`
	FirestoreDatabase  string `env:"FIRESTORE_DATABASE" envDefault:"(default)"`

	DonationsCollection string `env:"DONATIONS_COLLECTION" envDefault:"donations"`
	OutflowsCollection  string `env:"OUTFLOWS_COLLECTION" envDefault:"outflow"`

	// Dashboard
	LedgerLimit  int `env:"LEDGER_LIMIT" envDefault:"10"`
	SummaryLimit int `env:"SUMMARY_LIMIT" envDefault:"10"`

	// AMQP (empty URL disables publishing)
	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"fundledger"`
	AMQPQueue    string `env:"AMQP_QUEUE" envDefault:"transactions_recorded"`

	// Google sign-in
	GoogleOAuthClientID     string        `env:"GOOGLE_OAUTH_CLIENT_ID"`
	GoogleOAuthClientSecret string        `env:"GOOGLE_OAUTH_CLIENT_SECRET"`
	GoogleOAuthRedirectURL  string        `env:"GOOGLE_OAUTH_REDIRECT_URL"`
	SessionSecret           string        `env:"SESSION_SECRET"`
	SessionTTL              time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	AllowedMemberEmails     []string      `env:"ALLOWED_MEMBER_EMAILS" envSeparator:","`

	// Google Sheets mirror
	GoogleSpreadsheetID      string `env:"GOOGLE_SPREADSHEET_ID"`
	GoogleSheetName          string `env:"GOOGLE_SHEET_NAME" envDefault:"Ledger"`
	GoogleServiceAccountJSON string `env:"GOOGLE_SERVICE_ACCOUNT_JSON"`
	GoogleServiceAccountFile string `env:"GOOGLE_SERVICE_ACCOUNT_FILE"`

	// Notifications
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID"`
	DiscordBotToken  string `env:"DISCORD_BOT_TOKEN"`
	DiscordChannelID string `env:"DISCORD_CHANNEL_ID"`

	// Request handling
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	IdempotencyTTL     time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Backends lists the accepted DATA_BACKEND values.
var Backends = []string{"memory", "sqlite", "postgres", "firestore"}

// Load reads the configuration from the process environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// LoadFrom reads the configuration from vars instead of the process
// environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings shared by the web app and the worker and
// returns every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !contains(Backends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, Backends))
	}

	switch c.DataBackend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case "postgres":
		if c.PostgresDSN == "" {
			errors = append(errors, "POSTGRES_DSN is required when using postgres backend")
		}
	case "firestore":
		if c.FirestoreProjectID == "" {
			errors = append(errors, "FIRESTORE_PROJECT_ID is required when using firestore backend")
		}
	}

	if strings.TrimSpace(c.DonationsCollection) == "" || strings.TrimSpace(c.OutflowsCollection) == "" {
		errors = append(errors, "collection names cannot be empty")
	} else if c.DonationsCollection == c.OutflowsCollection {
		errors = append(errors, fmt.Sprintf("donations and outflows must use different collections, both are '%s'", c.DonationsCollection))
	}

	if c.LedgerLimit < 1 || c.LedgerLimit > 1000 {
		errors = append(errors, fmt.Sprintf("invalid ledger limit %d: must be between 1 and 1000", c.LedgerLimit))
	}
	if c.SummaryLimit < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary limit %d: must be 0 (all records) or positive", c.SummaryLimit))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if (c.TelegramBotToken == "") != (c.TelegramChatID == 0) {
		errors = append(errors, "TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together")
	}
	if (c.DiscordBotToken == "") != (c.DiscordChannelID == "") {
		errors = append(errors, "DISCORD_BOT_TOKEN and DISCORD_CHANNEL_ID must be set together")
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}
	if c.IdempotencyTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid idempotency TTL %v: must be at least 1 minute", c.IdempotencyTTL))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errors = append(errors, err.Error())
	}

	return combine(errors)
}

// ValidateWeb adds the checks only the web app needs (sign-in settings).
func (c *Config) ValidateWeb() error {
	var errors []string
	if err := c.Validate(); err != nil {
		errors = append(errors, strings.Split(strings.TrimPrefix(err.Error(), header), "\n- ")...)
	}

	if c.GoogleOAuthClientID == "" || c.GoogleOAuthClientSecret == "" {
		errors = append(errors, "GOOGLE_OAUTH_CLIENT_ID and GOOGLE_OAUTH_CLIENT_SECRET are required")
	}
	if len(c.SessionSecret) < 32 {
		errors = append(errors, "SESSION_SECRET must be at least 32 characters")
	}
	if c.SessionTTL < time.Minute || c.SessionTTL > 30*24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be between 1 minute and 30 days", c.SessionTTL))
	}
	if u, err := url.Parse(c.RedirectURL()); err != nil || u.Scheme == "" || u.Host == "" {
		errors = append(errors, fmt.Sprintf("invalid OAuth redirect URL '%s'", c.RedirectURL()))
	}

	return combine(errors)
}

// RedirectURL is the OAuth callback, derived from BASE_URL unless set.
func (c *Config) RedirectURL() string {
	if c.GoogleOAuthRedirectURL != "" {
		return c.GoogleOAuthRedirectURL
	}
	return strings.TrimRight(c.BaseURL, "/") + "/auth/callback"
}

// SlogLevel returns LOG_LEVEL as a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	l, err := parseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return l
}

// MirrorEnabled reports whether the Google Sheets mirror is configured.
func (c *Config) MirrorEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

const header = "configuration validation failed:\n- "

func combine(errors []string) error {
	if len(errors) > 0 {
		return fmt.Errorf("%s%s", header, strings.Join(errors, "\n- "))
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level '%s': must be debug, info, warn or error", s)
	}
	return l, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
