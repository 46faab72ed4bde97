package config

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Config holds the checker settings. Flags override individual fields after
// loading; see cmd.
type Config struct {
	Concurrency     int               `yaml:"concurrency"`
	TimeoutSeconds  int               `yaml:"timeout_seconds"`
	MaxRetries      int               `yaml:"max_retries"`
	RetryDelay      string            `yaml:"retry_delay"`
	PolitenessDelay string            `yaml:"politeness_delay"`
	UserAgent       string            `yaml:"user_agent"`
	SkipDomains     []string          `yaml:"skip_domains"`
	BrokenDomains   []string          `yaml:"broken_domains"`
	Overrides       map[string]string `yaml:"overrides,omitempty"`
}

// Timeout returns the per-request timeout.
func (c *Config) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// RetryDelayDuration returns the base backoff delay, defaulting to 1s.
func (c *Config) RetryDelayDuration() time.Duration {
	d, err := time.ParseDuration(c.RetryDelay)
	if err != nil || d < 0 {
		return time.Second
	}
	return d
}

// PolitenessDuration returns the post-check delay, defaulting to 100ms.
func (c *Config) PolitenessDuration() time.Duration {
	if c.PolitenessDelay == "" {
		return 100 * time.Millisecond
	}
	d, err := time.ParseDuration(c.PolitenessDelay)
	if err != nil || d < 0 {
		return 100 * time.Millisecond
	}
	return d
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "linkcheck", "config.yaml")
}

// ArchivePath is the default location of the run archive database.
func ArchivePath() string {
	return filepath.Join(xdg.DataHome, "linkcheck", "runs.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads the config at path, falling back to (and writing) the embedded
// defaults when the file does not exist. An empty path means the default
// config location.
func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	if cfg.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", cfg.Concurrency)
	}
	if cfg.TimeoutSeconds < 1 {
		return fmt.Errorf("timeout_seconds must be >= 1, got %d", cfg.TimeoutSeconds)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be >= 0, got %d", cfg.MaxRetries)
	}
	for host := range cfg.Overrides {
		if strings.TrimSpace(host) == "" {
			return fmt.Errorf("overrides: empty host key")
		}
	}
	return nil
}
