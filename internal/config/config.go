// Package config handles the configuration directory, stored token and settings file.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gopkg.in/yaml.v3"

	"spacequest/internal/progress"
)

const (
	// AppName is the application directory name.
	AppName = "spacequest"

	// SettingsFile is the optional YAML settings filename.
	SettingsFile = "config.yaml"

	// TokenFile is the stored bearer token filename.
	TokenFile = "token.json"

	// CacheFile is the board snapshot database filename.
	CacheFile = "cache.db"

	// DefaultAPIURL is used when neither the settings file nor the env sets one.
	DefaultAPIURL = "http://localhost:8080/api"

	// DefaultTimeout bounds every API call.
	DefaultTimeout = 10 * time.Second

	// DefaultMaxLevel is the size of the generated experience table.
	DefaultMaxLevel = 50

	// DefaultNotifyTTL is how long TUI notifications stay on screen.
	DefaultNotifyTTL = 4 * time.Second
)

// Badge is a cosmetic badge unlocked at a level.
type Badge struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name"`
	Icon     string `yaml:"icon"`
	MinLevel int    `yaml:"min_level"`
}

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool

	// APIURL is the REST API base URL.
	APIURL string

	// Timeout bounds every API call.
	Timeout time.Duration

	// ExperienceTable maps levels to cumulative XP thresholds.
	ExperienceTable progress.ExperienceTable

	// Badges is the badge catalogue.
	Badges []Badge

	// NotifyTTL is the auto-dismiss delay for notifications.
	NotifyTTL time.Duration

	// Logger is set by the dispatcher from --debug.
	Logger *zap.Logger
}

// Log returns the configured logger, or a no-op logger.
func (c *Config) Log() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

// Table returns the experience table, falling back to the default curve.
func (c *Config) Table() progress.ExperienceTable {
	if len(c.ExperienceTable) == 0 {
		return progress.CurveTable(DefaultMaxLevel)
	}
	return c.ExperienceTable
}

// settings mirrors config.yaml.
type settings struct {
	APIURL          string  `yaml:"api_url"`
	Timeout         string  `yaml:"timeout"`
	ExperienceTable []int   `yaml:"experience_table"`
	Badges          []Badge `yaml:"badges"`
	NotifyTTL       string  `yaml:"notify_ttl"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/spacequest or $HOME/.config/spacequest.
// Settings come from config.yaml when present, then SPACEQUEST_* env vars.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:             dir,
		APIURL:          DefaultAPIURL,
		Timeout:         DefaultTimeout,
		ExperienceTable: progress.CurveTable(DefaultMaxLevel),
		Badges:          DefaultBadges(),
		NotifyTTL:       DefaultNotifyTTL,
	}
	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultBadges returns the built-in badge catalogue.
func DefaultBadges() []Badge {
	return []Badge{
		{ID: "cadet", Name: "Cadet", Icon: "🎖️", MinLevel: 1},
		{ID: "pilot", Name: "Pilot", Icon: "🛩️", MinLevel: 5},
		{ID: "navigator", Name: "Navigator", Icon: "🧭", MinLevel: 10},
		{ID: "commander", Name: "Commander", Icon: "🚀", MinLevel: 20},
		{ID: "admiral", Name: "Admiral", Icon: "🌌", MinLevel: 35},
	}
}

// BadgesFor returns the badges unlocked at level, in catalogue order.
func (c *Config) BadgesFor(level int) []Badge {
	var out []Badge
	for _, b := range c.Badges {
		if level >= b.MinLevel {
			out = append(out, b)
		}
	}
	return out
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", SettingsFile, err)
	}

	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("parse %s: %w", SettingsFile, err)
	}

	if s.APIURL != "" {
		c.APIURL = s.APIURL
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in %s: %w", SettingsFile, err)
		}
		c.Timeout = d
	}
	if len(s.ExperienceTable) > 0 {
		table := progress.ExperienceTable(s.ExperienceTable)
		if err := table.Validate(); err != nil {
			return fmt.Errorf("invalid experience_table in %s: %w", SettingsFile, err)
		}
		c.ExperienceTable = table
	}
	if len(s.Badges) > 0 {
		c.Badges = s.Badges
	}
	if s.NotifyTTL != "" {
		d, err := time.ParseDuration(s.NotifyTTL)
		if err != nil {
			return fmt.Errorf("invalid notify_ttl in %s: %w", SettingsFile, err)
		}
		c.NotifyTTL = d
	}
	return nil
}

func (c *Config) applyEnv() error {
	if u := os.Getenv("SPACEQUEST_API_URL"); u != "" {
		c.APIURL = u
	}
	if t := os.Getenv("SPACEQUEST_TIMEOUT"); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("invalid SPACEQUEST_TIMEOUT: %w", err)
		}
		c.Timeout = d
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// SettingsPath returns the path to config.yaml.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// TokenPath returns the path to the stored token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// CachePath returns the path to the board snapshot database.
func (c *Config) CachePath() string {
	return filepath.Join(c.Dir, CacheFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// LoadToken reads the stored bearer token.
func (c *Config) LoadToken() (*oauth2.Token, error) {
	data, err := os.ReadFile(c.TokenPath())
	if err != nil {
		return nil, fmt.Errorf("failed to read token.json: %w", err)
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token.json: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("invalid token.json: empty access token")
	}
	return &token, nil
}

// SaveToken writes the bearer token with mode 0600.
func (c *Config) SaveToken(token *oauth2.Token) error {
	if err := c.EnsureDir(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(c.TokenPath(), data, 0600)
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
