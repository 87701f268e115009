package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFallsBackToDefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Rate != 1000 || cfg.BypassLevel != 1 {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yml")

	cfg := DefaultConfig()
	cfg.Rate = 42
	cfg.BypassLevel = 3

	if err := cfg.Save(path); err != nil {
		t.Fatalf("unexpected error saving: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error loading: %v", err)
	}
	if loaded.Rate != 42 || loaded.BypassLevel != 3 {
		t.Fatalf("round-trip mismatch: %+v", loaded)
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("not: valid: yaml: ["), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for malformed config file")
	}
}

func TestEnsureDefaultConfigFileIsNoopWhenPresent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte("rate: 7\n"), 0644); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := EnsureDefaultConfigFile(path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != "rate: 7\n" {
		t.Fatalf("expected existing file untouched, got %q", string(data))
	}
}

func TestParseThreshold(t *testing.T) {
	start, end, err := ParseThreshold("0-1000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if start != 0 || end != 1000 {
		t.Fatalf("unexpected parse: %v %v", start, end)
	}
}

func TestParseThresholdRejectsInverted(t *testing.T) {
	if _, _, err := ParseThreshold("1000-0"); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestParseThresholdRejectsNegative(t *testing.T) {
	if _, _, err := ParseThreshold("-5-1000"); err == nil {
		t.Fatalf("expected error for negative minimum")
	}
}
