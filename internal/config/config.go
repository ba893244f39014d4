package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/taskhall/commenter/internal/imaging"
)

// Config holds agent configuration. Values come from an optional TOML
// file overridden by environment variables.
// Env prefix: COMMENTER_
type Config struct {
	Port          int      `toml:"port"`
	BackendURL    string   `toml:"backend_url"`
	WorkerToken   string   `toml:"worker_token"`
	StateDBPath   string   `toml:"state_db_path"`
	PageSize      int      `toml:"page_size"`
	ExcludeTitles []string `toml:"exclude_titles"`

	CooldownSeconds   int    `toml:"cooldown_seconds"`
	ReconcileSchedule string `toml:"reconcile_schedule"`
	RequestTimeoutSec int    `toml:"request_timeout_seconds"`

	MaxScreenshotKB int `toml:"max_screenshot_kb"`
	MaxScreenshotPx int `toml:"max_screenshot_px"`
}

// Load reads the optional TOML file at path ("" skips it), then applies
// environment overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := toml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = getEnvInt("COMMENTER_PORT", defaultInt(cfg.Port, 8082))
	cfg.BackendURL = getEnv("COMMENTER_BACKEND_URL", defaultStr(cfg.BackendURL, "http://localhost:8080"))
	cfg.WorkerToken = getEnv("COMMENTER_WORKER_TOKEN", cfg.WorkerToken)
	cfg.StateDBPath = getEnv("COMMENTER_STATE_DB", defaultStr(cfg.StateDBPath, "commenter.db"))
	cfg.PageSize = getEnvInt("COMMENTER_PAGE_SIZE", defaultInt(cfg.PageSize, 20))
	cfg.CooldownSeconds = getEnvInt("COMMENTER_COOLDOWN_SECONDS", defaultInt(cfg.CooldownSeconds, 180))
	cfg.ReconcileSchedule = getEnv("COMMENTER_RECONCILE_SCHEDULE", defaultStr(cfg.ReconcileSchedule, "@every 10m"))
	cfg.RequestTimeoutSec = getEnvInt("COMMENTER_REQUEST_TIMEOUT_SECONDS", defaultInt(cfg.RequestTimeoutSec, 8))
	cfg.MaxScreenshotKB = getEnvInt("COMMENTER_MAX_SCREENSHOT_KB", defaultInt(cfg.MaxScreenshotKB, 200))
	cfg.MaxScreenshotPx = getEnvInt("COMMENTER_MAX_SCREENSHOT_PX", defaultInt(cfg.MaxScreenshotPx, 1200))

	if raw := getEnv("COMMENTER_EXCLUDE_TITLES", ""); raw != "" {
		cfg.ExcludeTitles = nil
		for _, m := range strings.Split(raw, ",") {
			m = strings.TrimSpace(m)
			if m != "" {
				cfg.ExcludeTitles = append(cfg.ExcludeTitles, m)
			}
		}
	}
	if len(cfg.ExcludeTitles) == 0 {
		// Search-term templates are listed by the backend but are not
		// claimable; they are dropped client-side by title marker.
		cfg.ExcludeTitles = []string{"search-term"}
	}

	return cfg, nil
}

// CooldownDuration returns the claim throttle duration.
func (c *Config) CooldownDuration() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// RequestTimeout returns the backend request timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSec) * time.Second
}

// ImagingOptions returns the screenshot pipeline limits.
func (c *Config) ImagingOptions() imaging.Options {
	opts := imaging.DefaultOptions()
	opts.MaxBytes = c.MaxScreenshotKB << 10
	opts.MaxWidth = c.MaxScreenshotPx
	opts.MaxHeight = c.MaxScreenshotPx
	return opts
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func defaultStr(v, fallback string) string {
	if v != "" {
		return v
	}
	return fallback
}

func defaultInt(v, fallback int) int {
	if v != 0 {
		return v
	}
	return fallback
}
