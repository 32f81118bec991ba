// Package config provides configuration helpers and TOML parsing.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ErrInvalidConfig reports a config or flag value that cannot be used.
var ErrInvalidConfig = errors.New("invalid config")

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Tracker TrackerConfig `toml:"tracker"`
	Storage StorageConfig `toml:"storage"`
}

// TrackerConfig maps tracker settings.
type TrackerConfig struct {
	Subject      *string `toml:"subject"`
	StrictTotals *bool   `toml:"strict-totals"`
	DateLayout   *string `toml:"date-layout"`
	PollInterval *string `toml:"poll-interval"`
	Timezone     *string `toml:"timezone"`
}

// StorageConfig maps storage backend settings.
type StorageConfig struct {
	Backend       *string `toml:"backend"`
	Path          *string `toml:"path"`
	RedisAddr     *string `toml:"redis-addr"`
	RedisPassword *string `toml:"redis-password"`
	RedisDB       *int    `toml:"redis-db"`
	RedisPrefix   *string `toml:"redis-prefix"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return FileConfig{}, fmt.Errorf("%w: unknown keys %s", ErrInvalidConfig, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// ParseBackend normalizes a backend name.
func ParseBackend(value string) (string, error) {
	switch v := strings.ToLower(strings.TrimSpace(value)); v {
	case BackendSQLite, BackendRedis, BackendMemory:
		return v, nil
	case "":
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("%w: backend %q (want sqlite, redis or memory)", ErrInvalidConfig, value)
	}
}

// ParsePollInterval parses a positive duration such as "60s".
func ParsePollInterval(value string) (time.Duration, error) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: poll-interval %q: %v", ErrInvalidConfig, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: poll-interval must be positive", ErrInvalidConfig)
	}
	return d, nil
}

// ParseLocation resolves an IANA zone name. Empty and "Local" mean the
// system zone.
func ParseLocation(value string) (*time.Location, error) {
	v := strings.TrimSpace(value)
	if v == "" || strings.EqualFold(v, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(v)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfig, value, err)
	}
	return loc, nil
}

// ValidateDateLayout rejects layouts that do not render a full calendar date.
func ValidateDateLayout(layout string) error {
	probe := time.Date(2006, time.January, 2, 0, 0, 0, 0, time.UTC)
	out := probe.Format(layout)
	parsed, err := time.Parse(layout, out)
	if err != nil || !parsed.Equal(probe) {
		return fmt.Errorf("%w: date-layout %q must include day, month and year", ErrInvalidConfig, layout)
	}
	return nil
}
