package config

import "time"

// Config represents the application configuration
type Config struct {
	LogLevel string         `mapstructure:"log_level"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Session  SessionConfig  `mapstructure:"session"`
	Telegram TelegramConfig `mapstructure:"telegram"`
}

// HTTPConfig holds the local API listener configuration
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// StorageConfig selects the key-value medium
type StorageConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// SessionConfig holds the edit pipeline configuration
type SessionConfig struct {
	Debounce time.Duration `mapstructure:"debounce"`
}

// TelegramConfig holds the Telegram bot configuration
type TelegramConfig struct {
	Token    string  `mapstructure:"token"`
	OwnerIDs []int64 `mapstructure:"owner_ids"`
}

// BotEnabled reports whether the Telegram surface should start
func (c *Config) BotEnabled() bool {
	return c.Telegram.Token != ""
}
