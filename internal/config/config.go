package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port                   int              `json:"port" env:"ISSUETRACKER_PORT"`
	JWTSecret              string           `json:"jwt_secret" env:"ISSUETRACKER_JWT_SECRET"`
	JWTIssuer              string           `json:"jwt_issuer"`
	JWTTTLHours            int              `json:"jwt_ttl_hours" env:"ISSUETRACKER_JWT_TTL_HOURS"`
	ResetTTLMinutes        int              `json:"reset_ttl_minutes"`
	VerifyTTLHours         int              `json:"verify_ttl_hours"`
	CooldownSeconds        int              `json:"cooldown_seconds"`
	LoginRateWindowSeconds int              `json:"login_rate_window_seconds"`
	PublicBaseURL          string           `json:"public_base_url" env:"ISSUETRACKER_PUBLIC_BASE_URL"`
	CORSAllowlist          []string         `json:"cors_allowlist"`
	MaxUploadMB            int              `json:"max_upload_mb"`
	UploadCleanupSpec      string           `json:"upload_cleanup_spec"`
	Database               DatabaseConfig   `json:"database"`
	Limiter                LimiterConfig    `json:"limiter"`
	Mail                   MailConfig       `json:"mail"`
	FileStore              FileStoreConfig  `json:"file_store"`
	LogConfig              logger.LogConfig `json:"log_config"`
}

type DatabaseConfig struct {
	Type                  string `json:"type"`
	URI                   string `json:"uri" env:"ISSUETRACKER_MONGO_URI"`
	Name                  string `json:"name" env:"ISSUETRACKER_MONGO_DATABASE"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds"`
	RetryAttempts         int    `json:"retry_attempts"`
	RetryIntervalSeconds  int    `json:"retry_interval_seconds"`
	MaxPoolSize           uint64 `json:"max_pool_size"`
}

type LimiterConfig struct {
	Type     string `json:"type"`
	RedisURL string `json:"redis_url" env:"ISSUETRACKER_REDIS_URL"`
	Size     int    `json:"size"`
}

type MailConfig struct {
	Type                 string `json:"type"`
	Host                 string `json:"host"`
	Port                 int    `json:"port"`
	Username             string `json:"username"`
	Password             string `json:"password" env:"ISSUETRACKER_SMTP_PASSWORD"`
	From                 string `json:"from"`
	PostmarkServerToken  string `json:"postmark_server_token" env:"ISSUETRACKER_POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `json:"postmark_account_token" env:"ISSUETRACKER_POSTMARK_ACCOUNT_TOKEN"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *Config) applyDefaults() error {
	if cfg.JWTSecret == "" {
		return fmt.Errorf("jwt_secret is required")
	}
	if cfg.Port == 0 {
		return fmt.Errorf("port is required")
	}
	if cfg.JWTIssuer == "" {
		cfg.JWTIssuer = "issuetracker"
	}
	if cfg.JWTTTLHours == 0 {
		cfg.JWTTTLHours = 24
	}
	if cfg.ResetTTLMinutes == 0 {
		cfg.ResetTTLMinutes = 15
	}
	if cfg.VerifyTTLHours == 0 {
		cfg.VerifyTTLHours = 48
	}
	if cfg.CooldownSeconds == 0 {
		cfg.CooldownSeconds = 60
	}
	if cfg.LoginRateWindowSeconds == 0 {
		cfg.LoginRateWindowSeconds = 1
	}
	if cfg.PublicBaseURL == "" {
		cfg.PublicBaseURL = fmt.Sprintf("http://127.0.0.1:%d", cfg.Port)
	}
	cfg.PublicBaseURL = strings.TrimSuffix(cfg.PublicBaseURL, "/")
	if cfg.MaxUploadMB == 0 {
		cfg.MaxUploadMB = 10
	}
	if cfg.UploadCleanupSpec == "" {
		cfg.UploadCleanupSpec = "@every 1h"
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}

	switch cfg.Database.Type {
	case "", "mongo":
		cfg.Database.Type = "mongo"
		if cfg.Database.URI == "" {
			return fmt.Errorf("database.uri is required for mongo")
		}
		if cfg.Database.Name == "" {
			cfg.Database.Name = "issuetracker"
		}
		if cfg.Database.ConnectTimeoutSeconds == 0 {
			cfg.Database.ConnectTimeoutSeconds = 10
		}
		if cfg.Database.RetryAttempts == 0 {
			cfg.Database.RetryAttempts = 3
		}
		if cfg.Database.RetryIntervalSeconds == 0 {
			cfg.Database.RetryIntervalSeconds = 5
		}
		if cfg.Database.MaxPoolSize == 0 {
			cfg.Database.MaxPoolSize = 100
		}
	case "memory":
	default:
		return fmt.Errorf("database.type must be mongo or memory")
	}

	switch cfg.Limiter.Type {
	case "", "memory":
		cfg.Limiter.Type = "memory"
		if cfg.Limiter.Size == 0 {
			cfg.Limiter.Size = 10000
		}
	case "redis":
		if cfg.Limiter.RedisURL == "" {
			return fmt.Errorf("limiter.redis_url is required for redis limiter")
		}
	default:
		return fmt.Errorf("limiter.type must be memory or redis")
	}

	switch cfg.Mail.Type {
	case "", "log":
		cfg.Mail.Type = "log"
	case "smtp":
		if cfg.Mail.Host == "" || cfg.Mail.From == "" {
			return fmt.Errorf("mail.host/from are required for smtp")
		}
		if cfg.Mail.Port == 0 {
			cfg.Mail.Port = 587
		}
	case "postmark":
		if cfg.Mail.PostmarkServerToken == "" || cfg.Mail.From == "" {
			return fmt.Errorf("mail.postmark_server_token/from are required for postmark")
		}
	default:
		return fmt.Errorf("mail.type must be log, smtp or postmark")
	}

	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	switch cfg.FileStore.Type {
	case "local", "s3":
	default:
		return fmt.Errorf("file_store.type must be local or s3")
	}
	return nil
}
