package db

import (
	"testing"

	"github.com/dhruv200010/rentmanager/internal/config"
)

func TestRunMigrateUnknownCommand(t *testing.T) {
	cfg := config.PostgresConfig{
		Host:     "localhost",
		Port:     5432,
		User:     "app",
		Database: "rentmanager",
		SSLMode:  "disable",
	}
	if err := RunMigrate(nil, cfg, nil, "invalid", nil); err == nil {
		t.Fatal("expected error for unknown command")
	}
}

func TestRunMigrateForceRequiresVersion(t *testing.T) {
	if err := RunMigrate(nil, config.PostgresConfig{}, nil, "force", nil); err == nil {
		t.Fatal("expected error when force has no version argument")
	}
}
