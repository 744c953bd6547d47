package utils

import (
	"errors"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payment  PaymentConfig
	Redis    RedisConfig
	NATS     NATSConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
	// URL is the public base URL used for checkout return links.
	URL string
	// StorageDriver selects "postgres" or "memory" repositories.
	StorageDriver string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
	Migrate  bool
}

type JWTConfig struct {
	Secret string
	Issuer string
}

type PaymentConfig struct {
	Gateway       string
	Currency      string
	Timeout       time.Duration
	StripeKey     string
	WebhookSecret string
	EventTTL      time.Duration
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type NATSConfig struct {
	URL string
}

type WorkerConfig struct {
	Interval          time.Duration
	AutoCompleteAfter time.Duration
	BatchSize         int
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("APP_NAME", "flexsession")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("APP_URL", "http://localhost:8080")
	viper.SetDefault("STORAGE_DRIVER", "postgres")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("DB_MIGRATE", true)
	viper.SetDefault("JWT_ISSUER", "")
	viper.SetDefault("PAYMENT_GATEWAY", "mock")
	viper.SetDefault("PAYMENT_CURRENCY", "usd")
	viper.SetDefault("PAYMENT_TIMEOUT", "10s")
	viper.SetDefault("PAYMENT_EVENT_TTL", "72h")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("NATS_URL", "")
	viper.SetDefault("WORKER_INTERVAL", "1m")
	viper.SetDefault("AUTO_COMPLETE_AFTER", "72h")
	viper.SetDefault("WORKER_BATCH_SIZE", 100)

	// .env is optional, environment variables are enough in containers.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:          viper.GetString("APP_NAME"),
			Port:          viper.GetString("PORT"),
			Debug:         viper.GetBool("DEBUG"),
			LogPath:       viper.GetString("LOG_PATH"),
			URL:           viper.GetString("APP_URL"),
			StorageDriver: viper.GetString("STORAGE_DRIVER"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
			Migrate:  viper.GetBool("DB_MIGRATE"),
		},
		JWT: JWTConfig{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		Payment: PaymentConfig{
			Gateway:       viper.GetString("PAYMENT_GATEWAY"),
			Currency:      viper.GetString("PAYMENT_CURRENCY"),
			Timeout:       viper.GetDuration("PAYMENT_TIMEOUT"),
			StripeKey:     viper.GetString("STRIPE_SECRET_KEY"),
			WebhookSecret: viper.GetString("STRIPE_WEBHOOK_SECRET"),
			EventTTL:      viper.GetDuration("PAYMENT_EVENT_TTL"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("REDIS_ADDR"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		NATS: NATSConfig{
			URL: viper.GetString("NATS_URL"),
		},
		Worker: WorkerConfig{
			Interval:          viper.GetDuration("WORKER_INTERVAL"),
			AutoCompleteAfter: viper.GetDuration("AUTO_COMPLETE_AFTER"),
			BatchSize:         viper.GetInt("WORKER_BATCH_SIZE"),
		},
	}

	if config.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	return config, nil
}
