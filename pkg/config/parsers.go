package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strconv"
	"strings"
)

const envPrefix = "MESSAGEBOARD_"

// holds parsed command-line flag values and which were set
type Flags struct {
	Addr   string
	DB     string
	Config string
	Set    map[string]bool
}

// holds the result of LoadEffectiveConfig
type EffectiveConfigResult struct {
	Config *Config
	Addr   string
	DBPath string
	// Sources lists the layers that contributed, lowest precedence first.
	Sources []string
}

// Source renders the contributing layers for display.
func (e EffectiveConfigResult) Source() string {
	return strings.Join(e.Sources, "+")
}

// ParseConfigFlags parses the server flags from args (without the program name).
func ParseConfigFlags(args []string) (Flags, error) {
	fset := flag.NewFlagSet("messageboard", flag.ContinueOnError)
	addrPtr := fset.String("addr", ":8080", "HTTP listen address")
	dbPtr := fset.String("db", defaultDBPath, "Pebble DB path")
	cfgPtr := fset.String("config", defaultConfigPath, "Path to config file")
	if err := fset.Parse(args); err != nil {
		return Flags{}, err
	}

	setFlags := make(map[string]bool)
	fset.Visit(func(f *flag.Flag) { setFlags[f.Name] = true })

	return Flags{Addr: *addrPtr, DB: *dbPtr, Config: *cfgPtr, Set: setFlags}, nil
}

// ParseConfigFile loads the config file named by flags or env. A missing file
// is only an error when its path was given explicitly.
func ParseConfigFile(flags Flags) (*Config, bool, error) {
	explicit := flags.Set["config"] || os.Getenv(envPrefix+"CONFIG") != ""
	cfgPath := ResolveConfigPath(flags.Config, flags.Set["config"])
	cfg, err := LoadConfigFile(cfgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !explicit {
			return &Config{}, false, nil
		}
		return nil, false, err
	}
	return cfg, true, nil
}

// ParseConfigEnvs reads MESSAGEBOARD_* variables into a new Config. Unset
// variables leave zero values; malformed values are errors.
func ParseConfigEnvs() (*Config, bool, error) {
	envCfg := &Config{}
	used := false
	var errs []error

	get := func(name string) (string, bool) {
		v := strings.TrimSpace(os.Getenv(envPrefix + name))
		if v != "" {
			used = true
		}
		return v, v != ""
	}
	atoi := func(name, v string) int {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s%s: %w", envPrefix, name, err))
		}
		return n
	}

	if v, ok := get("ADDR"); ok {
		if h, p, err := net.SplitHostPort(v); err == nil {
			envCfg.Server.Address = h
			envCfg.Server.Port = atoi("ADDR", p)
		} else {
			envCfg.Server.Address = v
		}
	}
	if v, ok := get("SERVER_ADDRESS"); ok {
		envCfg.Server.Address = v
	}
	if v, ok := get("SERVER_PORT"); ok {
		envCfg.Server.Port = atoi("SERVER_PORT", v)
	}
	if v, ok := get("DB_PATH"); ok {
		envCfg.Server.DBPath = v
	}
	if v, ok := get("MAX_BODY_SIZE"); ok {
		s, err := parseSize(v)
		if err != nil {
			errs = append(errs, err)
		}
		envCfg.Server.MaxBodySize = s
	}
	if v, ok := get("RATE_RPS"); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%sRATE_RPS: %w", envPrefix, err))
		}
		envCfg.Server.RateLimit.RPS = f
	}
	if v, ok := get("RATE_BURST"); ok {
		envCfg.Server.RateLimit.Burst = atoi("RATE_BURST", v)
	}
	if v, ok := get("SIGNING_KEYS"); ok {
		envCfg.Server.APIKeys.Signing = parseList(v)
	}
	if v, ok := get("ADMIN_KEYS"); ok {
		envCfg.Server.APIKeys.Admin = parseList(v)
	}

	if v, ok := get("CHAR_LIMIT"); ok {
		envCfg.Board.CharLimit = atoi("CHAR_LIMIT", v)
	}
	if v, ok := get("MAX_BATCH"); ok {
		envCfg.Board.MaxBatch = atoi("MAX_BATCH", v)
	}

	if v, ok := get("STORAGE_MODE"); ok {
		envCfg.Storage.Mode = strings.ToLower(v)
	}
	if v, ok := get("STORAGE_SYNC"); ok {
		b := parseBool(v)
		envCfg.Storage.Sync = &b
	}

	if v, ok := get("LOG_LEVEL"); ok {
		envCfg.Logging.Level = v
	}
	if v, ok := get("LOG_FORMAT"); ok {
		envCfg.Logging.Format = v
	}
	if v, ok := get("LOG_SINK"); ok {
		envCfg.Logging.Sink = v
	}

	if v, ok := get("BACKUP_ENABLED"); ok {
		envCfg.Backup.Enabled = parseBool(v)
	}
	if v, ok := get("BACKUP_CRON"); ok {
		envCfg.Backup.Cron = v
	}
	if v, ok := get("BACKUP_KEEP"); ok {
		envCfg.Backup.Keep = atoi("BACKUP_KEEP", v)
	}
	if v, ok := get("BACKUP_MIN_FREE_BYTES"); ok {
		s, err := parseSize(v)
		if err != nil {
			errs = append(errs, err)
		}
		envCfg.Backup.MinFreeBytes = s
	}

	if v, ok := get("TELEMETRY_SLOW_THRESHOLD"); ok {
		d, err := parseDuration(v)
		if err != nil {
			errs = append(errs, err)
		}
		envCfg.Telemetry.SlowThreshold = d
	}

	return envCfg, used, errors.Join(errs...)
}

// LoadEffectiveConfig merges defaults, file, env and flags, later layers
// overriding earlier ones field by field, then validates the result.
func LoadEffectiveConfig(flags Flags, fileCfg *Config, fileExists bool, envCfg *Config, envUsed bool) (EffectiveConfigResult, error) {
	var res EffectiveConfigResult
	out := &Config{}
	res.Sources = append(res.Sources, "defaults")

	if fileExists && fileCfg != nil {
		overlay(out, fileCfg)
		res.Sources = append(res.Sources, "config")
	}
	if envUsed && envCfg != nil {
		overlay(out, envCfg)
		res.Sources = append(res.Sources, "env")
	}
	if flags.Set["addr"] || flags.Set["db"] {
		if flags.Set["addr"] {
			host, port, err := net.SplitHostPort(flags.Addr)
			if err != nil {
				return res, fmt.Errorf("invalid --addr %q: %w", flags.Addr, err)
			}
			out.Server.Address = host
			if p, err := strconv.Atoi(port); err == nil {
				out.Server.Port = p
			}
		}
		if flags.Set["db"] {
			out.Server.DBPath = flags.DB
		}
		res.Sources = append(res.Sources, "flags")
	}

	if err := out.ValidateConfig(); err != nil {
		return res, err
	}
	res.Config = out
	res.Addr = out.Addr()
	res.DBPath = out.Server.DBPath
	return res, nil
}

// overlay copies every non-zero field of src onto dst.
func overlay(dst, src *Config) {
	setStr := func(d *string, s string) {
		if strings.TrimSpace(s) != "" {
			*d = s
		}
	}
	setInt := func(d *int, s int) {
		if s != 0 {
			*d = s
		}
	}

	setStr(&dst.Server.Address, src.Server.Address)
	setInt(&dst.Server.Port, src.Server.Port)
	setStr(&dst.Server.DBPath, src.Server.DBPath)
	if src.Server.MaxBodySize != 0 {
		dst.Server.MaxBodySize = src.Server.MaxBodySize
	}
	if src.Server.RateLimit.RPS != 0 {
		dst.Server.RateLimit.RPS = src.Server.RateLimit.RPS
	}
	setInt(&dst.Server.RateLimit.Burst, src.Server.RateLimit.Burst)
	if len(src.Server.APIKeys.Signing) > 0 {
		dst.Server.APIKeys.Signing = append([]string(nil), src.Server.APIKeys.Signing...)
	}
	if len(src.Server.APIKeys.Admin) > 0 {
		dst.Server.APIKeys.Admin = append([]string(nil), src.Server.APIKeys.Admin...)
	}

	setInt(&dst.Board.CharLimit, src.Board.CharLimit)
	setInt(&dst.Board.MaxBatch, src.Board.MaxBatch)

	setStr(&dst.Storage.Mode, src.Storage.Mode)
	if src.Storage.Sync != nil {
		v := *src.Storage.Sync
		dst.Storage.Sync = &v
	}

	setStr(&dst.Logging.Level, src.Logging.Level)
	setStr(&dst.Logging.Format, src.Logging.Format)
	setStr(&dst.Logging.Sink, src.Logging.Sink)

	if src.Backup.Enabled {
		dst.Backup.Enabled = true
	}
	setStr(&dst.Backup.Cron, src.Backup.Cron)
	setInt(&dst.Backup.Keep, src.Backup.Keep)
	if src.Backup.MinFreeBytes != 0 {
		dst.Backup.MinFreeBytes = src.Backup.MinFreeBytes
	}

	if src.Telemetry.SlowThreshold != 0 {
		dst.Telemetry.SlowThreshold = src.Telemetry.SlowThreshold
	}
}

func parseList(v string) []string {
	if v == "" {
		return nil
	}
	parts := []string{}
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return parts
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}
