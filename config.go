package almanac

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// SiteConfig holds all configuration for an almanac site. It is read once
// at startup and never modified afterwards.
type SiteConfig struct {
	Name        string `yaml:"name"`        // Site name (default "Blog")
	URL         string `yaml:"url"`         // Canonical URL (default "http://localhost:3000")
	Description string `yaml:"description"` // Site description for the feed
	Author      string `yaml:"author"`

	Base          string   `yaml:"base"`           // Base path prefix, e.g. "/blog"
	DefaultLocale string   `yaml:"default_locale"` // default "zh"
	Locales       []string `yaml:"locales"`        // default [DefaultLocale]
	TOC           bool     `yaml:"toc"`            // Show table of contents unless an entry overrides it
	Timezone      string   `yaml:"timezone"`       // Zone for front matter dates (default "UTC")

	ContentDir   string `yaml:"content_dir"`   // Markdown source with posts/ and weeks/
	DatabasePath string `yaml:"database_path"` // SQLite store, used when ContentDir is empty
	Dev          bool   `yaml:"dev"`           // Show drafts and watch ContentDir

	Addr          string `yaml:"addr"` // Listen address (default ":3000")
	AdminPassword string `yaml:"admin_password"`
	SessionSecret string `yaml:"session_secret"`
	CookieSecure  bool   `yaml:"cookie_secure"`

	RefreshSchedule string `yaml:"refresh_schedule"` // cron spec, e.g. "@every 10m"; empty disables
	WordsPerMinute  int    `yaml:"words_per_minute"` // default 200
	LogLevel        string `yaml:"log_level"`        // default "info"
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Blog"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.DefaultLocale == "" {
		c.DefaultLocale = "zh"
	}
	if len(c.Locales) == 0 {
		c.Locales = []string{c.DefaultLocale}
	}
	if c.Timezone == "" {
		c.Timezone = "UTC"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.WordsPerMinute == 0 {
		c.WordsPerMinute = 200
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

func (c *SiteConfig) applyEnvironmentOverrides() {
	if v := os.Getenv("ALMANAC_DEV"); v != "" {
		if dev, err := strconv.ParseBool(v); err == nil {
			c.Dev = dev
		}
	}
	if v := os.Getenv("ALMANAC_DB"); v != "" {
		c.DatabasePath = v
	}
	if v := os.Getenv("ALMANAC_CONTENT_DIR"); v != "" {
		c.ContentDir = v
	}
	if v := os.Getenv("ALMANAC_ADMIN_PASSWORD"); v != "" {
		c.AdminPassword = v
	}
	if v := os.Getenv("ALMANAC_SESSION_SECRET"); v != "" {
		c.SessionSecret = v
	}
}

func (c *SiteConfig) validate() error {
	found := false
	for _, l := range c.Locales {
		if l == c.DefaultLocale {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("default_locale %q is not listed in locales %v", c.DefaultLocale, c.Locales)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if c.RefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.RefreshSchedule); err != nil {
			return fmt.Errorf("invalid refresh_schedule %q: %w", c.RefreshSchedule, err)
		}
	}
	if c.WordsPerMinute < 0 {
		return fmt.Errorf("words_per_minute must not be negative")
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC.
func (c SiteConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Paths returns the path builder for the configured base path.
func (c SiteConfig) Paths() Paths {
	return Paths{Base: c.Base}
}

// LoadConfig reads a YAML configuration file, applies defaults and
// environment overrides, and validates the result.
func LoadConfig(path string) (SiteConfig, error) {
	var cfg SiteConfig
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config yaml: %w", err)
	}
	return finishConfig(cfg)
}

// ConfigFromEnv builds a configuration from defaults and environment
// variables only.
func ConfigFromEnv() (SiteConfig, error) {
	return finishConfig(SiteConfig{})
}

func finishConfig(cfg SiteConfig) (SiteConfig, error) {
	cfg.applyEnvironmentOverrides()
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Option configures additional App behavior.
type Option func(*App)

// WithStore makes the App read entries from store instead of opening one
// from the configuration.
func WithStore(store ContentStore) Option {
	return func(a *App) {
		a.source = store
	}
}

// WithRenderer replaces the reading-time renderer.
func WithRenderer(r Renderer) Option {
	return func(a *App) {
		a.renderer = r
	}
}

// WithAppLogger sets the App logger.
func WithAppLogger(log *zap.Logger) Option {
	return func(a *App) {
		if log != nil {
			a.log = log
		}
	}
}

// EnvOr returns the value of the environment variable key, or fallback if empty.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
