package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// Config is the main configuration struct.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Board     BoardConfig     `yaml:"board"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
	Backup    BackupConfig    `yaml:"backup"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds http settings.
type ServerConfig struct {
	Address     string    `yaml:"address"`
	Port        int       `yaml:"port"`
	DBPath      string    `yaml:"db_path"`
	MaxBodySize SizeBytes `yaml:"max_body_size"`
	RateLimit   struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
	APIKeys struct {
		// Signing keys verify X-Board-Signature. Empty disables signature checks.
		Signing []string `yaml:"signing"`
		Admin   []string `yaml:"admin"`
	} `yaml:"api_keys"`
}

// BoardConfig holds the constructor-time parameters of the board.
type BoardConfig struct {
	CharLimit int `yaml:"char_limit"`
	MaxBatch  int `yaml:"max_batch"`
}

// StorageConfig selects the pebble mode.
type StorageConfig struct {
	Mode string `yaml:"mode"` // "disk" or "memory"
	Sync *bool  `yaml:"sync"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
	Sink   string `yaml:"sink"`   // stdout | stderr | file:<path>
}

// BackupConfig controls scheduled pebble checkpoints.
type BackupConfig struct {
	Enabled      bool      `yaml:"enabled"`
	Cron         string    `yaml:"cron"`
	Keep         int       `yaml:"keep"`
	MinFreeBytes SizeBytes `yaml:"min_free_bytes"`
}

// TelemetryConfig controls slow-operation reporting.
type TelemetryConfig struct {
	SlowThreshold Duration `yaml:"slow_threshold"`
}

// SizeBytes represents a number of bytes, unmarshaled from human-friendly strings like "64MB" or plain integers.
type SizeBytes int64

func (s *SizeBytes) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*s = 0
		return nil
	}
	v, err := parseSize(node.Value)
	if err != nil {
		return err
	}
	*s = v
	return nil
}

func (s SizeBytes) Int64() int64 { return int64(s) }

func (s SizeBytes) String() string { return humanize.IBytes(uint64(s)) }

func parseSize(raw string) (SizeBytes, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if v, err := humanize.ParseBytes(raw); err == nil {
		return SizeBytes(v), nil
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return SizeBytes(i), nil
	}
	return 0, fmt.Errorf("invalid size value: %q", raw)
}

// Duration is a wrapper around time.Duration that supports YAML parsing from strings like "100ms" or plain numbers (interpreted as seconds).
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node == nil {
		*d = Duration(0)
		return nil
	}
	v, err := parseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func parseDuration(raw string) (Duration, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	if td, err := time.ParseDuration(raw); err == nil {
		return Duration(td), nil
	}
	// allow numeric seconds
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return Duration(time.Duration(f * float64(time.Second))), nil
	}
	return 0, fmt.Errorf("invalid duration value: %q", raw)
}
