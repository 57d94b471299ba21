// Package config loads the nerdbook YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all nerdbook configuration.
type Config struct {
	Name string `yaml:"name"`

	// Notebook behaviour
	Notebook NotebookConfig `yaml:"notebook"`

	// Interpreter settings
	Sandbox SandboxConfig `yaml:"sandbox"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Directory mirror used by `nerdbook watch`
	Watch WatchConfig `yaml:"watch"`
}

// DefaultConfigPath returns <workspace>/.nerdbook/config.yaml.
func DefaultConfigPath(workspace string) string {
	return filepath.Join(workspace, ".nerdbook", "config.yaml")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name: "nerdbook",

		Notebook: NotebookConfig{
			RefreshPreceding: false,
			SeedDemo:         false,
		},

		Sandbox: SandboxConfig{
			Prelude:       []string{"fmt", "strings", "strconv", "math", "sort", "time", "encoding/json"},
			CaptureStdout: true,
		},

		Logging: LoggingConfig{
			DebugMode: false,
			Level:     "info",
			Format:    "text",
			Dir:       filepath.Join(".nerdbook", "logs"),
		},

		UI: UIConfig{
			Theme:    "auto",
			WordWrap: 80,
			Markdown: true,
		},

		Watch: WatchConfig{
			Pattern:  "*.cell",
			Debounce: "300ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("NERDBOOK_DEBUG"); v != "" {
		switch strings.ToLower(v) {
		case "1", "true", "yes", "on":
			c.Logging.DebugMode = true
		case "0", "false", "no", "off":
			c.Logging.DebugMode = false
		}
	}
	if v := os.Getenv("NERDBOOK_LOG_LEVEL"); v != "" {
		c.Logging.Level = strings.ToLower(v)
	}
	if v := os.Getenv("NERDBOOK_LOG_FORMAT"); v != "" {
		c.Logging.Format = strings.ToLower(v)
	}
	if v := os.Getenv("NERDBOOK_THEME"); v != "" {
		c.UI.Theme = strings.ToLower(v)
	}
}

// GetWatchDebounce returns the watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Watch.Debounce)
	if err != nil || d < 0 {
		return 300 * time.Millisecond
	}
	return d
}

// LogDir resolves the log directory against the workspace.
func (c *Config) LogDir(workspace string) string {
	if filepath.IsAbs(c.Logging.Dir) {
		return c.Logging.Dir
	}
	return filepath.Join(workspace, c.Logging.Dir)
}

var (
	validLevels  = []string{"debug", "info", "warn", "error"}
	validFormats = []string{"text", "json"}
	validThemes  = []string{"auto", "light", "dark"}
)

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !contains(validLevels, c.Logging.Level) {
		return fmt.Errorf("%w: logging.level %q (valid: %v)", ErrInvalidConfig, c.Logging.Level, validLevels)
	}
	if !contains(validFormats, c.Logging.Format) {
		return fmt.Errorf("%w: logging.format %q (valid: %v)", ErrInvalidConfig, c.Logging.Format, validFormats)
	}
	if c.Logging.DebugMode && c.Logging.Dir == "" {
		return fmt.Errorf("%w: logging.dir is required when debug_mode is on", ErrInvalidConfig)
	}
	if !contains(validThemes, c.UI.Theme) {
		return fmt.Errorf("%w: ui.theme %q (valid: %v)", ErrInvalidConfig, c.UI.Theme, validThemes)
	}
	if c.UI.WordWrap < 0 {
		return fmt.Errorf("%w: ui.word_wrap must not be negative", ErrInvalidConfig)
	}
	for _, pkg := range c.Sandbox.Prelude {
		if strings.TrimSpace(pkg) == "" || strings.ContainsAny(pkg, " \t\"") {
			return fmt.Errorf("%w: sandbox.prelude entry %q", ErrInvalidConfig, pkg)
		}
	}
	if _, err := filepath.Match(c.Watch.Pattern, "x.cell"); err != nil || c.Watch.Pattern == "" {
		return fmt.Errorf("%w: watch.pattern %q", ErrInvalidConfig, c.Watch.Pattern)
	}
	if d, err := time.ParseDuration(c.Watch.Debounce); err != nil || d < 0 {
		return fmt.Errorf("%w: watch.debounce %q", ErrInvalidConfig, c.Watch.Debounce)
	}
	return nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
