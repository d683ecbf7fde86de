package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Engine.Workers != nil || cfg.Store.Path != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `[engine]
count-inconsistent = true
workers = 2

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Engine.CountInconsistent == nil || !*cfg.Engine.CountInconsistent {
		t.Fatalf("expected count-inconsistent to be true")
	}
	if cfg.Engine.Workers == nil || *cfg.Engine.Workers != 2 {
		t.Fatalf("expected workers 2, got %v", cfg.Engine.Workers)
	}
	if cfg.Engine.HideFirstDowns != nil {
		t.Fatalf("expected hide-first-downs unset")
	}
	if cfg.Log.Level == nil || *cfg.Log.Level != "debug" {
		t.Fatalf("expected log level debug")
	}
}

func TestLoadConfigEmptyPath(t *testing.T) {
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty path")
	}
}

func TestDefaultPathsHonorEnv(t *testing.T) {
	t.Setenv("STATCALC_DB", "/tmp/x.db")
	t.Setenv("STATCALC_CONFIG", "/tmp/x.toml")
	if got := DefaultDBPath(); got != "/tmp/x.db" {
		t.Fatalf("DefaultDBPath = %q", got)
	}
	if got := DefaultConfigPath(); got != "/tmp/x.toml" {
		t.Fatalf("DefaultConfigPath = %q", got)
	}

	t.Setenv("STATCALC_DB", "")
	t.Setenv("XDG_DATA_HOME", "/data")
	if got := DefaultDBPath(); got != filepath.Join("/data", "statcalc", "statcalc.db") {
		t.Fatalf("DefaultDBPath = %q", got)
	}
}
