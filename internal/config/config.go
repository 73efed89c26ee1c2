// Package config loads the environment-derived gateway configuration. An
// optional .env is loaded via github.com/joho/godotenv before reading
// os.Getenv, then the assembled struct is checked with
// github.com/go-playground/validator/v10 struct tags.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config mirrors models.ConfigFile but carries the validate tags; the two
// are kept distinct so internal/models stays a plain data package with no
// third-party struct tags of its own beyond encoding/json.
type Config struct {
	Host           string   `validate:"required"`
	Port           string   `validate:"required,numeric"`
	StatePath      string   `validate:"required"`
	AllowedOrigins []string
	RetentionDays  int `validate:"min=1"`

	SnowflakeWorkerID int64
	JwtSecret         string `validate:"required"`
	SelfContained     bool
	RedisAddr         string
}

var defaultOrigins = []string{}

// Load reads an optional .env file (missing is not an error), then
// environment variables, applying the documented defaults, and validates
// the result.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("loading .env: %w", err)
	}

	cfg := Config{
		Host:           envOr("IRC_SERVER_HOST", "0.0.0.0"),
		Port:           envOrPort(),
		StatePath:      envOr("IRC_STATE_PATH", "data/irc-ultra-state.json"),
		AllowedOrigins: envOrigins(),
		RetentionDays:  envInt("RETENTION_DAYS", 30),

		SnowflakeWorkerID: envInt64("IRC_SNOWFLAKE_WORKER_ID", 0),
		JwtSecret:         envOr("IRC_JWT_SECRET", "dev-secret-change-me"),
		SelfContained:     envOr("IRC_REDIS_ADDR", "") == "",
		RedisAddr:         envOr("IRC_REDIS_ADDR", ""),
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envOrPort() string {
	if v := os.Getenv("IRC_SERVER_PORT"); v != "" {
		return v
	}
	if v := os.Getenv("PORT"); v != "" {
		return v
	}
	return "7001"
}

func envOrigins() []string {
	raw := os.Getenv("IRC_ALLOWED_ORIGINS")
	if raw == "" {
		return defaultOrigins
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return n
}
