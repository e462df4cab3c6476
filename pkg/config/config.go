// Package config handles loading and saving chainview configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/chainview/config.yaml
//   - State:   ~/.local/state/chainview/ (debug log)
//
// Values are resolved in order: defaults, config file, environment
// (CHAINVIEW_BASE_URL, CHAINVIEW_TOKEN, CHAINVIEW_SNAPSHOT), then CLI flags.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vanderheijden86/chainview/pkg/model"
)

// Source kinds.
const (
	SourceHTTP     = "http"
	SourceSnapshot = "snapshot"
)

// Environment overrides.
const (
	EnvBaseURL  = "CHAINVIEW_BASE_URL"
	EnvToken    = "CHAINVIEW_TOKEN"
	EnvSnapshot = "CHAINVIEW_SNAPSHOT"
)

// SourceConfig selects and configures the data source.
type SourceConfig struct {
	Kind         string        `yaml:"kind"`                    // http, snapshot
	BaseURL      string        `yaml:"base_url,omitempty"`      // backend root, e.g. http://localhost:5000
	Token        string        `yaml:"token,omitempty"`         // optional bearer token
	ChatPath     string        `yaml:"chat_path,omitempty"`     // conversation endpoint path
	SnapshotPath string        `yaml:"snapshot_path,omitempty"` // SQLite snapshot file
	Timeout      time.Duration `yaml:"timeout,omitempty"`       // per-request timeout
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	SplitRatio    float64 `yaml:"split_ratio,omitempty"`    // graph pane share of the width (0.2-0.8)
	DefaultView   string  `yaml:"default_view,omitempty"`   // detail, conversation
	WatchSnapshot *bool   `yaml:"watch_snapshot,omitempty"` // reload when the snapshot file changes
}

// Config is the top-level configuration for chainview.
type Config struct {
	Source SourceConfig `yaml:"source"`
	UI     UIConfig     `yaml:"ui,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	watch := true
	return Config{
		Source: SourceConfig{
			Kind:     SourceHTTP,
			BaseURL:  "http://localhost:5000",
			ChatPath: "/api/chat",
			Timeout:  30 * time.Second,
		},
		UI: UIConfig{
			SplitRatio:    0.6,
			DefaultView:   model.ViewDetail.String(),
			WatchSnapshot: &watch,
		},
	}
}

// ConfigDir returns the XDG config directory for chainview.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "chainview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "chainview")
}

// StateDir returns the XDG state directory for chainview.
func StateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "chainview")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".local", "state", "chainview")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}

	cfg.Source.SnapshotPath = expandHome(cfg.Source.SnapshotPath)
	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path with mode 0600.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// ApplyEnv overrides source settings from the environment. Setting
// CHAINVIEW_SNAPSHOT also switches the source kind to snapshot.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.Source.BaseURL = v
	}
	if v := os.Getenv(EnvToken); v != "" {
		c.Source.Token = v
	}
	if v := os.Getenv(EnvSnapshot); v != "" {
		c.Source.Kind = SourceSnapshot
		c.Source.SnapshotPath = expandHome(v)
	}
}

// Validate reports every invalid setting, joined.
func (c Config) Validate() error {
	var errs []error

	switch c.Source.Kind {
	case SourceHTTP:
		u, err := url.Parse(c.Source.BaseURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("source.base_url %q: must be an http(s) URL", c.Source.BaseURL))
		}
		if !strings.HasPrefix(c.Source.ChatPath, "/") {
			errs = append(errs, fmt.Errorf("source.chat_path %q: must start with /", c.Source.ChatPath))
		}
	case SourceSnapshot:
		if c.Source.SnapshotPath == "" {
			errs = append(errs, errors.New("source.snapshot_path: required for snapshot source"))
		}
	default:
		errs = append(errs, fmt.Errorf("source.kind %q: must be %s or %s", c.Source.Kind, SourceHTTP, SourceSnapshot))
	}

	if c.Source.Timeout < 0 {
		errs = append(errs, fmt.Errorf("source.timeout %s: must not be negative", c.Source.Timeout))
	}
	if c.UI.SplitRatio != 0 && (c.UI.SplitRatio < 0.2 || c.UI.SplitRatio > 0.8) {
		errs = append(errs, fmt.Errorf("ui.split_ratio %.2f: must be between 0.2 and 0.8", c.UI.SplitRatio))
	}
	if _, err := model.ParseViewMode(c.UI.DefaultView); err != nil {
		errs = append(errs, fmt.Errorf("ui.default_view: %w", err))
	}

	return errors.Join(errs...)
}

// InitialView returns the configured starting view, falling back to detail.
func (c Config) InitialView() model.ViewMode {
	mode, err := model.ParseViewMode(c.UI.DefaultView)
	if err != nil {
		return model.ViewDetail
	}
	return mode
}

// WatchSnapshot reports whether snapshot changes should trigger a reload.
func (c Config) WatchSnapshot() bool {
	return c.UI.WatchSnapshot == nil || *c.UI.WatchSnapshot
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
