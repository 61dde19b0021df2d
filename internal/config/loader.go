package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/talha7k/qrcode-magic/internal/constants"
	apperrors "github.com/talha7k/qrcode-magic/internal/errors"
)

// Load loads the configuration from a .env file, an optional CONFIG_FILE
// and environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, &apperrors.ConfigError{Section: "env", Message: err.Error()}
	}

	v := viper.New()
	v.SetEnvPrefix("")
	v.AutomaticEnv()

	// Set default values
	v.SetDefault("log_level", "info")
	v.SetDefault("http_addr", "127.0.0.1:8080")
	v.SetDefault("storage_driver", "file")
	v.SetDefault("storage_path", "qrmagic.json")
	v.SetDefault("debounce_ms", constants.DefaultDebounce.Milliseconds())

	// Define environment variables
	v.BindEnv("CONFIG_FILE")
	v.BindEnv("TG_TOKEN")
	v.BindEnv("TG_OWNER_IDS")

	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, &apperrors.ConfigError{Section: "file", Message: err.Error()}
		}
	}

	// Create config instance
	cfg := &Config{
		LogLevel: v.GetString("log_level"),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(v.GetString("http_addr")),
		},
		Storage: StorageConfig{
			Driver: strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
			Path:   strings.TrimSpace(v.GetString("storage_path")),
		},
		Session: SessionConfig{
			Debounce: time.Duration(v.GetInt64("debounce_ms")) * time.Millisecond,
		},
		Telegram: TelegramConfig{
			Token: strings.TrimSpace(v.GetString("TG_TOKEN")),
		},
	}

	// Parse owner IDs
	ownerIDs, err := parseIDs(v.GetString("TG_OWNER_IDS"))
	if err != nil {
		return nil, err
	}
	cfg.Telegram.OwnerIDs = ownerIDs

	// Validate configuration
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// parseIDs parses a comma separated list of Telegram user ids
func parseIDs(s string) ([]int64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}

	parts := strings.Split(s, ",")
	ids := make([]int64, 0, len(parts))
	for _, idStr := range parts {
		idStr = strings.TrimSpace(idStr)
		if idStr == "" {
			continue
		}
		var id int64
		if _, err := fmt.Sscanf(idStr, "%d", &id); err != nil {
			return nil, &apperrors.ConfigError{Section: "telegram", Message: fmt.Sprintf("invalid owner id %q", idStr)}
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.HTTP.Addr == "" {
		return &apperrors.ConfigError{Section: "http", Message: "HTTP_ADDR is required"}
	}

	switch cfg.Storage.Driver {
	case "file", "sqlite":
		if cfg.Storage.Path == "" {
			return &apperrors.ConfigError{Section: "storage", Message: "STORAGE_PATH is required for the " + cfg.Storage.Driver + " driver"}
		}
	case "memory":
	default:
		return &apperrors.ConfigError{Section: "storage", Message: fmt.Sprintf("unknown STORAGE_DRIVER %q", cfg.Storage.Driver)}
	}

	if cfg.Session.Debounce <= 0 {
		return &apperrors.ConfigError{Section: "session", Message: "DEBOUNCE_MS must be positive"}
	}

	if cfg.Telegram.Token != "" && len(cfg.Telegram.OwnerIDs) == 0 {
		return &apperrors.ConfigError{Section: "telegram", Message: "TG_OWNER_IDS is required when TG_TOKEN is set"}
	}

	return nil
}
