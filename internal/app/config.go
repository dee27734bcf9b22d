package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go-leave/internal/shared/connection"

	"go.uber.org/zap"
)

const (
	defaultPort       = "3000"
	defaultClientURL  = "http://localhost:5173"
	defaultConnectTry = 5
)

type Config struct {
	Port         string
	Env          string
	Postgres     connection.PostgresConfig
	RedisAddr    string
	KafkaBroker  string
	JWTSecret    string
	ClientURL    string
	CookieSecure bool
	ConnectTries int
	TokenTTL     time.Duration
}

func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// LoadConfig reads the environment. godotenv has already been applied by
// the caller, so real env vars win over .env values.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port: envOr("PORT", defaultPort),
		Env:  envOr("APP_ENV", "development"),
		Postgres: connection.PostgresConfig{
			Host:     envOr("DB_HOST", "localhost"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
			Port:     envOr("DB_PORT", "5432"),
			SSLMode:  envOr("DB_SSLMODE", "disable"),
		},
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		KafkaBroker:  os.Getenv("KAFKA_BROKER"),
		JWTSecret:    os.Getenv("JWT_SECRET"),
		ClientURL:    envOr("CLIENT_URL", defaultClientURL),
		ConnectTries: defaultConnectTry,
	}

	if raw := os.Getenv("COOKIE_SECURE"); raw != "" {
		secure, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("COOKIE_SECURE: %w", err)
		}
		cfg.CookieSecure = secure
	} else {
		cfg.CookieSecure = cfg.IsProduction()
	}

	if raw := os.Getenv("TOKEN_TTL"); raw != "" {
		ttl, err := time.ParseDuration(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = ttl
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return Config{}, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "dev-secret"
	}

	return cfg, nil
}

// RequireKafka is used by the worker and consumer, which cannot run without a broker.
func (c Config) RequireKafka() error {
	if c.KafkaBroker == "" {
		return fmt.Errorf("KAFKA_BROKER is required")
	}
	return nil
}

func NewLogger(cfg Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
