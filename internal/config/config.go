// Package config loads client configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds every tunable of the console client. All values come from the
// environment; only the API base URL is required.
type Config struct {
	AppEnv         string        `env:"APP_ENV" env-default:"development"`
	APIBaseURL     string        `env:"POLLMASTER_API_URL" env-default:"http://localhost:8080/api"`
	LiveURL        string        `env:"POLLMASTER_LIVE_URL" env-default:"ws://localhost:8080/ws"`
	SessionFile    string        `env:"POLLMASTER_SESSION_FILE"`
	PageSize       int           `env:"POLLMASTER_PAGE_SIZE" env-default:"9"`
	SearchDebounce time.Duration `env:"POLLMASTER_SEARCH_DEBOUNCE" env-default:"400ms"`
	RequestTimeout time.Duration `env:"POLLMASTER_REQUEST_TIMEOUT" env-default:"10s"`
	LogLevel       string        `env:"LOG_LEVEL" env-default:"info"`
	LogFormat      string        `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.APIBaseURL); err != nil {
		return nil, fmt.Errorf("POLLMASTER_API_URL is not a valid URL: %w", err)
	}
	if cfg.LiveURL != "" {
		u, err := url.Parse(cfg.LiveURL)
		if err != nil || (u.Scheme != "ws" && u.Scheme != "wss") {
			return nil, fmt.Errorf("POLLMASTER_LIVE_URL must be a ws:// or wss:// URL")
		}
	}
	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("POLLMASTER_PAGE_SIZE must be at least 1")
	}
	if cfg.SearchDebounce < 0 {
		return nil, fmt.Errorf("POLLMASTER_SEARCH_DEBOUNCE must not be negative")
	}
	if cfg.RequestTimeout <= 0 {
		return nil, fmt.Errorf("POLLMASTER_REQUEST_TIMEOUT must be positive")
	}

	if cfg.SessionFile == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot locate home directory for session file: %w", err)
		}
		cfg.SessionFile = filepath.Join(home, ".pollmaster", "session.json")
	}

	return &cfg, nil
}
