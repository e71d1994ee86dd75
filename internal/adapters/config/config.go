package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"stockwatch/pkg/errors"
)

type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Postgres      PostgresConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Pricing       PricingConfig
	Notifier      NotifierConfig
	Telegram      TelegramConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"stockwatch"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	Version  string `envconfig:"APP_VERSION" default:"dev"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
}

type HTTPConfig struct {
	Port int `envconfig:"HTTP_PORT" default:"8000"`
}

type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     int    `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	Database string `envconfig:"POSTGRES_DB" required:"true"`
	SSLMode  string `envconfig:"POSTGRES_SSL_MODE" default:"disable"`
	MaxConns int    `envconfig:"POSTGRES_MAX_CONNS" default:"5"`
}

func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// RedisConfig is optional: the tick lock is only used when Host is set
type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// KafkaConfig is optional: watch events are only published when Brokers is set
type KafkaConfig struct {
	Brokers []string `envconfig:"KAFKA_BROKERS"`
	Topic   string   `envconfig:"KAFKA_WATCH_TOPIC" default:"stockwatch.watch_events"`
}

func (c KafkaConfig) Enabled() bool {
	return len(c.Brokers) > 0
}

// PricingConfig describes the scraped pricing page.
// {code} in PageURL is replaced with the query-escaped stock code.
type PricingConfig struct {
	PageURL   string        `envconfig:"PRICE_PAGE_URL" default:"https://finance.naver.com/item/main.naver?code={code}"`
	Selector  string        `envconfig:"PRICE_SELECTOR" default:"p.no_today span.blind"`
	UserAgent string        `envconfig:"PRICE_USER_AGENT" default:"Mozilla/5.0"`
	Timeout   time.Duration `envconfig:"PRICE_FETCH_TIMEOUT" default:"10s"`
}

type NotifierConfig struct {
	Provider        string        `envconfig:"NOTIFIER_PROVIDER" default:"fcm"` // fcm, telegram, log
	CredentialsFile string        `envconfig:"FCM_CREDENTIALS_FILE" default:"serviceAccountKey.json"`
	Timeout         time.Duration `envconfig:"NOTIFY_TIMEOUT" default:"10s"`
}

type TelegramConfig struct {
	BotToken      string `envconfig:"TELEGRAM_BOT_TOKEN"`
	RateLimitRate int    `envconfig:"TELEGRAM_RATE_LIMIT" default:"20"` // messages per second
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"true"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for background workers
type WorkerConfig struct {
	PriceWatchInterval time.Duration `envconfig:"WORKER_PRICE_WATCH_INTERVAL" default:"5m"`
	PriceWatchEnabled  bool          `envconfig:"WORKER_PRICE_WATCH_ENABLED" default:"true"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	if cfg.Workers.PriceWatchInterval <= 0 {
		return nil, errors.Wrapf(errors.ErrInvalidInput, "WORKER_PRICE_WATCH_INTERVAL must be positive")
	}

	return &cfg, nil
}
