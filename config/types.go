package config

import "time"

// Config represents the complete configuration structure
type Config struct {
	Directus  DirectusConfig  `mapstructure:"directus"`
	Session   SessionConfig   `mapstructure:"session"`
	Bookmarks BookmarksConfig `mapstructure:"bookmarks"`
	Search    SearchConfig    `mapstructure:"search"`
	Logging   LoggingConfig   `mapstructure:"logging"`

	// File is the config file that was read, empty when none was found
	File string `mapstructure:"-"`
}

// DirectusConfig holds the CMS connection details
type DirectusConfig struct {
	URL         string        `mapstructure:"url"`
	DefaultRole string        `mapstructure:"default_role"`
	Timeout     time.Duration `mapstructure:"timeout"`
	RequestIDs  bool          `mapstructure:"request_ids"`
	UserAgent   string        `mapstructure:"user_agent"`
}

// Session backends
const (
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// SessionConfig selects where the session token is persisted
type SessionConfig struct {
	Backend string      `mapstructure:"backend"`
	Path    string      `mapstructure:"path"`
	Watch   bool        `mapstructure:"watch"`
	Redis   RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds the Redis session backend settings
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// BookmarksConfig tunes bookmark resolution
type BookmarksConfig struct {
	Concurrency int `mapstructure:"concurrency"`
}

// SearchConfig holds named filter presets for `content list --preset`
type SearchConfig struct {
	Presets map[string]string `mapstructure:"presets"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Color  bool   `mapstructure:"color"`
}
