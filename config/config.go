package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. REELMARK_DIRECTUS_URL
const EnvPrefix = "REELMARK"

// Load reads the configuration. An explicit configPath must exist; otherwise
// the standard locations are searched and a missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".reelmark"))
		}
		v.AddConfigPath("/etc/reelmark/")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	v.SetDefault("directus.url", "http://localhost:8055")
	v.SetDefault("directus.default_role", "f9e46dbd-ef75-4284-882b-663e64e368bc")
	v.SetDefault("directus.timeout", "0s")
	v.SetDefault("directus.request_ids", true)
	v.SetDefault("directus.user_agent", "reelmark")

	v.SetDefault("session.backend", BackendFile)
	v.SetDefault("session.path", "")
	v.SetDefault("session.watch", false)
	v.SetDefault("session.redis.addr", "localhost:6379")
	v.SetDefault("session.redis.password", "")
	v.SetDefault("session.redis.db", 0)
	v.SetDefault("session.redis.prefix", "reelmark")

	v.SetDefault("bookmarks.concurrency", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.color", true)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	u, err := url.Parse(cfg.Directus.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("directus.url must be an absolute URL, got %q", cfg.Directus.URL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("directus.url must use http or https, got %q", u.Scheme)
	}

	if cfg.Directus.Timeout < 0 {
		return fmt.Errorf("directus.timeout must not be negative")
	}

	switch cfg.Session.Backend {
	case BackendFile, BackendMemory:
	case BackendRedis:
		if cfg.Session.Redis.Addr == "" {
			return fmt.Errorf("session.redis.addr is required for the redis backend")
		}
	default:
		return fmt.Errorf("invalid session.backend: %s (must be 'file', 'redis' or 'memory')", cfg.Session.Backend)
	}

	if cfg.Session.Watch && cfg.Session.Backend != BackendFile {
		return fmt.Errorf("session.watch requires the file backend")
	}

	if cfg.Bookmarks.Concurrency < 1 {
		return fmt.Errorf("bookmarks.concurrency must be at least 1")
	}

	for name, expression := range cfg.Search.Presets {
		if strings.TrimSpace(expression) == "" {
			return fmt.Errorf("search.presets.%s is empty", name)
		}
	}

	validLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[cfg.Logging.Level] {
		return fmt.Errorf("invalid logging level: %s", cfg.Logging.Level)
	}

	validFormats := map[string]bool{
		"console": true,
		"json":    true,
	}
	if !validFormats[cfg.Logging.Format] {
		return fmt.Errorf("invalid logging format: %s", cfg.Logging.Format)
	}

	return nil
}
