package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cfg.Tracker.Subject != nil || cfg.Storage.Backend != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[tracker]
subject = "Fen"
strict-totals = true
poll-interval = "30s"

[storage]
backend = "redis"
redis-addr = "localhost:6380"
redis-db = 2
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Tracker.Subject == nil || *cfg.Tracker.Subject != "Fen" {
		t.Fatalf("unexpected subject %v", cfg.Tracker.Subject)
	}
	if cfg.Tracker.StrictTotals == nil || !*cfg.Tracker.StrictTotals {
		t.Fatalf("expected strict totals")
	}
	if cfg.Tracker.DateLayout != nil {
		t.Fatalf("expected unset date layout")
	}
	if cfg.Storage.RedisDB == nil || *cfg.Storage.RedisDB != 2 {
		t.Fatalf("unexpected redis db %v", cfg.Storage.RedisDB)
	}
}

func TestLoadConfigRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[tracker]\nsubjekt = \"Fen\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParseBackend(t *testing.T) {
	cases := map[string]string{"": BackendSQLite, "SQLite": BackendSQLite, " redis ": BackendRedis, "memory": BackendMemory}
	for in, want := range cases {
		got, err := ParseBackend(in)
		if err != nil || got != want {
			t.Fatalf("ParseBackend(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseBackend("postgres"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestParsePollInterval(t *testing.T) {
	if d, err := ParsePollInterval("60s"); err != nil || d != time.Minute {
		t.Fatalf("unexpected interval %v err=%v", d, err)
	}
	for _, bad := range []string{"soon", "0s", "-1m"} {
		if _, err := ParsePollInterval(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected ErrInvalidConfig for %q, got %v", bad, err)
		}
	}
}

func TestParseLocation(t *testing.T) {
	if loc, err := ParseLocation("Local"); err != nil || loc != time.Local {
		t.Fatalf("expected local zone, got %v err=%v", loc, err)
	}
	if loc, err := ParseLocation("UTC"); err != nil || loc.String() != "UTC" {
		t.Fatalf("expected UTC, got %v err=%v", loc, err)
	}
	if _, err := ParseLocation("Mars/Olympus"); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("expected ErrInvalidConfig, got %v", err)
	}
}

func TestValidateDateLayout(t *testing.T) {
	for _, ok := range []string{"02.01.2006", "2006-01-02"} {
		if err := ValidateDateLayout(ok); err != nil {
			t.Fatalf("expected %q to be valid: %v", ok, err)
		}
	}
	for _, bad := range []string{"15:04", "01.2006"} {
		if err := ValidateDateLayout(bad); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("expected %q to be rejected, got %v", bad, err)
		}
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "netrack", "config.toml") {
		t.Fatalf("unexpected config path %q", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "netrack", "netrack.db") {
		t.Fatalf("unexpected db path %q", got)
	}
}
