// Package config loads runtime settings from defaults, an optional config file
// and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds runtime settings for the API server.
type Config struct {
	AppName        string
	Version        string
	Port           string
	CORSOrigins    []string
	StorageDriver  string // memory, sqlite or postgres
	DatabaseDSN    string
	JWTSecret      string
	AccessTokenTTL time.Duration
	RabbitMQURL    string // empty disables event publishing
	EventsExchange string
	EventsQueue    string
	LogLevel       slog.Level
}

// SetDefaults registers the default value of every setting on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_NAME", "Learning API Project")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("APP_PORT", ":8000")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173,http://127.0.0.1:3000")
	v.SetDefault("STORAGE_DRIVER", "memory")
	v.SetDefault("DATABASE_DSN", "app.db")
	v.SetDefault("JWT_SECRET", "dev-secret-key-change-in-production")
	v.SetDefault("ACCESS_TOKEN_EXPIRE_MINUTES", 30)
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("EVENTS_EXCHANGE", "blog.events")
	v.SetDefault("EVENTS_QUEUE", "blog_events_audit")
	v.SetDefault("LOG_LEVEL", "info")
}

// Load reads the configuration from v. Defaults are applied, then an optional
// config.yaml in the working directory, then environment variables.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	v.AutomaticEnv()

	cfg := &Config{
		AppName:        v.GetString("APP_NAME"),
		Version:        v.GetString("APP_VERSION"),
		Port:           v.GetString("APP_PORT"),
		CORSOrigins:    splitList(v.GetStringSlice("CORS_ORIGINS")),
		StorageDriver:  strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseDSN:    v.GetString("DATABASE_DSN"),
		JWTSecret:      v.GetString("JWT_SECRET"),
		AccessTokenTTL: time.Duration(v.GetInt("ACCESS_TOKEN_EXPIRE_MINUTES")) * time.Minute,
		RabbitMQURL:    v.GetString("RABBITMQ_URL"),
		EventsExchange: v.GetString("EVENTS_EXCHANGE"),
		EventsQueue:    v.GetString("EVENTS_QUEUE"),
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("LOG_LEVEL"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	switch cfg.StorageDriver {
	case "memory", "sqlite", "postgres":
	default:
		return nil, fmt.Errorf("unsupported STORAGE_DRIVER %q", cfg.StorageDriver)
	}
	if cfg.AccessTokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if !strings.Contains(cfg.Port, ":") {
		cfg.Port = ":" + cfg.Port
	}

	return cfg, nil
}

// splitList accepts both YAML lists and comma separated strings.
func splitList(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
