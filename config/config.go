// Package config reads catalog settings from the environment, optionally
// primed from a .env file in the working directory.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the settings shared by the CLI binaries.
type Config struct {
	DBPath         string
	LogLevel       slog.Level
	View           string
	SearchDebounce time.Duration
}

const (
	defaultDBPath         = "catalog.db"
	defaultLogLevel       = "info"
	defaultView           = "grid"
	defaultSearchDebounce = 300 * time.Millisecond
)

// Load reads .env (if present) and then the CATALOG_* variables.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return Config{}, fmt.Errorf("read .env: %w", err)
	}

	cfg := Config{
		DBPath: getenv("CATALOG_DB", defaultDBPath),
		View:   getenv("CATALOG_VIEW", defaultView),
	}

	level, err := ParseLevel(getenv("CATALOG_LOG_LEVEL", defaultLogLevel))
	if err != nil {
		return Config{}, err
	}
	cfg.LogLevel = level

	cfg.SearchDebounce = defaultSearchDebounce
	if v := os.Getenv("CATALOG_SEARCH_DEBOUNCE"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid CATALOG_SEARCH_DEBOUNCE %q: %w", v, err)
		}
		cfg.SearchDebounce = d
	}

	if cfg.View != "grid" && cfg.View != "list" {
		return Config{}, fmt.Errorf("invalid CATALOG_VIEW %q: want grid or list", cfg.View)
	}
	return cfg, nil
}

// ParseLevel maps debug, info, warn and error onto slog levels.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}
	return level, nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
