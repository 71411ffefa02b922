package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"messageboard/pkg/board"

	"github.com/adhocore/gronx"
	"gopkg.in/yaml.v3"
)

const (
	defaultAddress      = "0.0.0.0"
	defaultPort         = 8080
	defaultDBPath       = "./.database"
	defaultConfigPath   = "./config.yaml"
	defaultMaxBodySize  = 64 * 1024
	defaultRateRPS      = 1000
	defaultRateBurst    = 1000
	defaultLogLevel     = "info"
	defaultLogFormat    = "text"
	defaultLogSink      = "stdout"
	defaultBackupCron   = "0 3 * * *" // daily at 03:00
	defaultBackupKeep   = 7
	defaultMinFreeBytes = 256 * 1024 * 1024
	defaultSlowMs       = 200

	StorageDisk   = "disk"
	StorageMemory = "memory"
)

// Defaults returns a config with every default applied.
func Defaults() *Config {
	c := &Config{}
	c.applyDefaults()
	return c
}

// Addr returns the HTTP server address as host:port.
func (c *Config) Addr() string {
	addr := c.Server.Address
	if addr == "" {
		addr = defaultAddress
	}
	port := c.Server.Port
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// SyncWrites reports whether committed writes are fsynced. Defaults to true.
func (c *Config) SyncWrites() bool {
	if c.Storage.Sync == nil {
		return true
	}
	return *c.Storage.Sync
}

// LoadConfigFile reads and parses a config file.
func LoadConfigFile(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s: %w", path, err)
		}
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = defaultAddress
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultPort
	}
	if c.Server.DBPath == "" {
		c.Server.DBPath = defaultDBPath
	}
	if c.Server.MaxBodySize == 0 {
		c.Server.MaxBodySize = SizeBytes(defaultMaxBodySize)
	}
	if c.Server.RateLimit.RPS <= 0 {
		c.Server.RateLimit.RPS = defaultRateRPS
	}
	if c.Server.RateLimit.Burst <= 0 {
		c.Server.RateLimit.Burst = defaultRateBurst
	}
	if c.Board.CharLimit == 0 {
		c.Board.CharLimit = board.DefaultCharLimit
	}
	if c.Board.MaxBatch == 0 {
		c.Board.MaxBatch = board.DefaultMaxBatch
	}
	if c.Storage.Mode == "" {
		c.Storage.Mode = StorageDisk
	}
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	if c.Logging.Sink == "" {
		c.Logging.Sink = defaultLogSink
	}
	if c.Backup.Cron == "" {
		c.Backup.Cron = defaultBackupCron
	}
	if c.Backup.Keep == 0 {
		c.Backup.Keep = defaultBackupKeep
	}
	if c.Backup.MinFreeBytes == 0 {
		c.Backup.MinFreeBytes = SizeBytes(defaultMinFreeBytes)
	}
	if c.Telemetry.SlowThreshold == 0 {
		c.Telemetry.SlowThreshold = Duration(defaultSlowMs * time.Millisecond)
	}
}

// ValidateConfig fills in missing defaults and fails fast on invalid values.
func (c *Config) ValidateConfig() error {
	c.applyDefaults()

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port out of range: %d", c.Server.Port)
	}
	if c.Board.CharLimit < 1 || c.Board.CharLimit > board.MaxCharLimit {
		return fmt.Errorf("board.char_limit must be between 1 and %d, got %d", board.MaxCharLimit, c.Board.CharLimit)
	}
	if c.Board.MaxBatch < 1 {
		return fmt.Errorf("board.max_batch must be positive, got %d", c.Board.MaxBatch)
	}

	c.Storage.Mode = strings.ToLower(strings.TrimSpace(c.Storage.Mode))
	switch c.Storage.Mode {
	case StorageDisk, StorageMemory:
	default:
		return fmt.Errorf("storage.mode must be %q or %q, got %q", StorageDisk, StorageMemory, c.Storage.Mode)
	}

	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid logging.level: %q", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid logging.format: %q", c.Logging.Format)
	}
	if s := c.Logging.Sink; s != "stdout" && s != "stderr" && !strings.HasPrefix(s, "file:") {
		return fmt.Errorf("invalid logging.sink: %q", s)
	}

	if !gronx.IsValid(c.Backup.Cron) {
		return fmt.Errorf("invalid backup.cron expression: %s", c.Backup.Cron)
	}
	if c.Backup.Keep < 1 {
		return fmt.Errorf("backup.keep must be at least 1, got %d", c.Backup.Keep)
	}
	if c.Backup.Enabled && c.Storage.Mode == StorageMemory {
		return fmt.Errorf("backup.enabled requires storage.mode %q", StorageDisk)
	}
	return nil
}

// ResolveConfigPath returns the config file path, preferring flag, then env.
func ResolveConfigPath(flagPath string, flagSet bool) string {
	if flagSet {
		return flagPath
	}
	if p := os.Getenv(envPrefix + "CONFIG"); p != "" {
		return p
	}
	return flagPath
}
