// Package config loads and exposes application configuration (TOML).
package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// Default configuration values used when a field is missing in TOML.
const (
	DefaultConfigPath   = "config.toml"
	DefaultHTTPAddr     = ":8080"
	DefaultJWTExpiresIn = "24h"
	DefaultPGHost       = "127.0.0.1"
	DefaultPGPort       = 5432
	DefaultPGUser       = "postgres"
	DefaultPGDatabase   = "rentmanager"
	DefaultPGSSLMode    = "disable"

	// DefaultAlertHour is the reminder hour used when a lead message carries no time.
	DefaultAlertHour = 10
	// DefaultAlertDayOffset is the number of days ahead used when a lead message carries no day.
	DefaultAlertDayOffset = 2
)

// Config is the root application configuration loaded from TOML.
type Config struct {
	Log      LogConfig      `toml:"log"`
	Server   ServerConfig   `toml:"server"`
	Admin    AdminConfig    `toml:"admin"`
	Auth     AuthConfig     `toml:"auth"`
	Postgres PostgresConfig `toml:"postgres"`
	Reminder ReminderConfig `toml:"reminder"`
	Vocab    VocabConfig    `toml:"vocab"`
}

// LogConfig holds logging level and format (e.g. level=info, format=text).
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// ServerConfig holds the HTTP server listen address.
type ServerConfig struct {
	Addr string `toml:"addr"`
}

// AdminConfig holds the initial admin account (username, password, email).
type AdminConfig struct {
	Username string `toml:"username"`
	Password string `toml:"password"`
	Email    string `toml:"email"`
}

// AuthConfig holds JWT secret and token expiry (e.g. 24h).
type AuthConfig struct {
	JWTSecret    string `toml:"jwt_secret"`
	JWTExpiresIn string `toml:"jwt_expires_in"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Database string `toml:"database"`
	SSLMode  string `toml:"sslmode"`
}

// ReminderConfig holds the default reminder policy applied when a lead
// message carries no explicit day or time.
type ReminderConfig struct {
	DefaultHour      int `toml:"default_hour"`
	DefaultDayOffset int `toml:"default_day_offset"`
}

// VocabConfig holds the lead intake vocabularies. The parser grammar
// (day/time/phone/category triggers) is fixed; these lists are not.
type VocabConfig struct {
	Sources    []string `toml:"sources"`
	Categories []string `toml:"categories"`
	Locations  []string `toml:"locations"`
}

// Load reads and parses the TOML config file at path and applies default values for missing fields.
func Load(path string) (Config, error) {
	cfg := Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		Admin: AdminConfig{
			Username: "admin",
			Password: "change-your-password-here",
			Email:    "you@example.com",
		},
		Auth: AuthConfig{
			JWTExpiresIn: DefaultJWTExpiresIn,
		},
		Postgres: PostgresConfig{
			Host:     DefaultPGHost,
			Port:     DefaultPGPort,
			User:     DefaultPGUser,
			Database: DefaultPGDatabase,
			SSLMode:  DefaultPGSSLMode,
		},
		Reminder: ReminderConfig{
			DefaultHour:      DefaultAlertHour,
			DefaultDayOffset: DefaultAlertDayOffset,
		},
		Vocab: VocabConfig{
			Sources:    []string{"Roomies", "Facebook", "Roomster", "Telegram", "Sulekha", "WhatsApp", "Others"},
			Categories: []string{"Call", "Follow up with", "Send lease to", "landed", "Nuh-uh"},
		},
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, err
	}

	return cfg, nil
}
