package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	cfg, err := Load(New(), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("missing config should fall back to defaults: %v", err)
	}
	if cfg.Sample.Interval != time.Second {
		t.Fatalf("expected 1s interval, got %s", cfg.Sample.Interval)
	}
	if cfg.Sample.SaveEvery != 60 || cfg.Sample.Target != TargetForeground {
		t.Fatalf("unexpected sample defaults: %+v", cfg.Sample)
	}
	if cfg.Storage.Type != StorageJSON || cfg.Storage.Path != "usage_data.json" {
		t.Fatalf("unexpected storage defaults: %+v", cfg.Storage)
	}
	if cfg.Report.Mode != ReportChart || cfg.Logging.Format != "text" {
		t.Fatalf("unexpected report/logging defaults: %+v %+v", cfg.Report, cfg.Logging)
	}
}

func TestLoadFileAndEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "appwatch.yaml")
	body := []byte("sample:\n  interval: 2s\n  target: self\nstorage:\n  path: /tmp/usage.json\nreport:\n  mode: table\n")
	if err := os.WriteFile(path, body, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("APPWATCH_SAMPLE_SAVE_EVERY", "10")
	t.Setenv("APPWATCH_LOGGING_LEVEL", "debug")

	cfg, err := Load(New(), path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Sample.Interval != 2*time.Second || cfg.Sample.Target != TargetSelf {
		t.Fatalf("file values not applied: %+v", cfg.Sample)
	}
	if cfg.Sample.SaveEvery != 10 || cfg.Logging.Level != "debug" {
		t.Fatalf("environment overrides not applied: %+v %+v", cfg.Sample, cfg.Logging)
	}
	if cfg.Storage.Path != "/tmp/usage.json" || cfg.Report.Mode != ReportTable {
		t.Fatalf("unexpected storage/report: %+v %+v", cfg.Storage, cfg.Report)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"target", "sample:\n  target: everything\n"},
		{"saveEvery", "sample:\n  save_every: 0\n"},
		{"interval", "sample:\n  interval: -1s\n"},
		{"storage", "storage:\n  type: sqlite\n"},
		{"report", "report:\n  mode: pie\n"},
		{"level", "logging:\n  level: loud\n"},
		{"redisTimeout", "storage:\n  type: redis\n  redis:\n    dial_timeout: soon\n"},
	}
	for _, tc := range cases {
		path := filepath.Join(t.TempDir(), tc.name+".yaml")
		if err := os.WriteFile(path, []byte(tc.body), 0o644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		if _, err := Load(New(), path); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected ErrInvalid, got %v", tc.name, err)
		}
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.yaml")
	if err := os.WriteFile(path, []byte("sample: [unterminated"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, err := Load(New(), path)
	if err == nil || errors.Is(err, ErrInvalid) {
		t.Fatalf("expected read error, got %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Storage.Redis.Prefix != "appwatch" || cfg.Storage.Redis.DialTimeout != "5s" {
		t.Fatalf("unexpected redis defaults: %+v", cfg.Storage.Redis)
	}
	if err := validate(cfg); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestKeysCoverEveryDefault(t *testing.T) {
	keys := Keys()
	for _, key := range []string{"sample.interval", "storage.redis.password", "report.async", "metrics.addr"} {
		if !keys[key] {
			t.Fatalf("expected %s to be a known key", key)
		}
	}
	if keys["sample"] {
		t.Fatalf("section names are not keys")
	}
}
