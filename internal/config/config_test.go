package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Errorf("addr: got %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if cfg.Reminder.DefaultHour != DefaultAlertHour || cfg.Reminder.DefaultDayOffset != DefaultAlertDayOffset {
		t.Errorf("unexpected reminder defaults: %+v", cfg.Reminder)
	}
	if len(cfg.Vocab.Sources) == 0 || len(cfg.Vocab.Categories) == 0 {
		t.Error("default vocabularies should not be empty")
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[auth]
jwt_secret = "s3cret"

[reminder]
default_hour = 9
default_day_offset = 1

[vocab]
locations = ["Austin"]
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("addr: got %q", cfg.Server.Addr)
	}
	if cfg.Auth.JWTSecret != "s3cret" {
		t.Errorf("jwt secret not loaded")
	}
	if cfg.Reminder.DefaultHour != 9 || cfg.Reminder.DefaultDayOffset != 1 {
		t.Errorf("reminder overrides not applied: %+v", cfg.Reminder)
	}
	if len(cfg.Vocab.Locations) != 1 || cfg.Vocab.Locations[0] != "Austin" {
		t.Errorf("locations: got %v", cfg.Vocab.Locations)
	}
	// Untouched sections keep their defaults.
	if cfg.Postgres.Host != DefaultPGHost {
		t.Errorf("postgres host: got %q", cfg.Postgres.Host)
	}
}
