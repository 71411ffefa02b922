package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

const defaultConfigName = ".boardctl.yaml"

// Config is the boardctl settings file.
type Config struct {
	Server     string `yaml:"server" json:"server"`
	Identity   string `yaml:"identity" json:"identity"`
	SigningKey string `yaml:"signing_key" json:"signing_key"`
	AdminKey   string `yaml:"admin_key" json:"admin_key"`
	Timeout    string `yaml:"timeout" json:"timeout"`
}

// DefaultConfigPath is $HOME/.boardctl.yaml, or empty when there is no home dir.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, defaultConfigName)
}

// LoadFromFile reads a config file. A missing file yields an empty config
// unless required is set.
func LoadFromFile(path string, required bool) (*Config, error) {
	var cfg Config
	if path == "" {
		return &cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !required {
			return &cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return &cfg, nil
}

func SaveToFile(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// overlay copies the non-empty fields of src onto c.
func (c *Config) overlay(src Config) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&c.Server, src.Server)
	set(&c.Identity, src.Identity)
	set(&c.SigningKey, src.SigningKey)
	set(&c.AdminKey, src.AdminKey)
	set(&c.Timeout, src.Timeout)
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	return d, nil
}
