package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"mentor/pkg/errors"
)

type Config struct {
	App           AppConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Telegram      TelegramConfig
	AI            AIConfig
	Therapy       TherapyConfig
	Reports       ReportConfig
	Metrics       MetricsConfig
	ErrorTracking ErrorTrackingConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"mentor"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" required:"true"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type TelegramConfig struct {
	BotToken string  `envconfig:"TELEGRAM_BOT_TOKEN" required:"true"`
	AdminIDs []int64 `envconfig:"TELEGRAM_ADMIN_IDS"`
}

// IsAdmin reports whether the given Telegram ID is on the admin allow-list.
func (c TelegramConfig) IsAdmin(telegramID int64) bool {
	for _, id := range c.AdminIDs {
		if id == telegramID {
			return true
		}
	}
	return false
}

type AIConfig struct {
	GeminiKey       string        `envconfig:"GEMINI_API_KEY"`
	OpenAIKey       string        `envconfig:"OPENAI_API_KEY"`
	DefaultProvider string        `envconfig:"DEFAULT_AI_PROVIDER" default:"gemini"`
	GeminiModel     string        `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash"`
	OpenAIModel     string        `envconfig:"OPENAI_MODEL" default:"gpt-4o-mini"`
	RequestTimeout  time.Duration `envconfig:"AI_REQUEST_TIMEOUT" default:"30s"`
	RatePerSecond   float64       `envconfig:"AI_RATE_PER_SECOND" default:"1"`
	RateBurst       int           `envconfig:"AI_RATE_BURST" default:"5"`
}

type TherapyConfig struct {
	// Sessions with no user turn for this long are closed by the sweeper
	IdleTimeout   time.Duration `envconfig:"THERAPY_IDLE_TIMEOUT" default:"30m"`
	SweepInterval time.Duration `envconfig:"THERAPY_SWEEP_INTERVAL" default:"5m"`
	MaxTurns      int           `envconfig:"THERAPY_MAX_CONTEXT_TURNS" default:"20"`
}

type ReportConfig struct {
	// Cron spec for the weekly report fan-out (default Sunday 20:00 UTC)
	Schedule string `envconfig:"REPORT_CRON" default:"0 20 * * 0"`
	Enabled  bool   `envconfig:"REPORT_WORKER_ENABLED" default:"true"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
