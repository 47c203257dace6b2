// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Config holds everything the server needs at startup. PasswordHash is the
// single credential's bcrypt hash; SessionSecret signs the login cookie.
type Config struct {
	Addr          string
	DBPath        string
	StaticDir     string
	PasswordHash  string
	SessionSecret string
}

// Load reads configuration from the environment, applying defaults for
// everything except the secrets.
func Load() (Config, error) {
	cfg := Config{
		Addr:          getenv("STEMPEL_ADDR", ":5000"),
		DBPath:        os.Getenv("STEMPEL_DB"),
		StaticDir:     getenv("STEMPEL_STATIC_DIR", "./static"),
		PasswordHash:  os.Getenv("PASSWORD_HASH"),
		SessionSecret: os.Getenv("SESSION_SECRET"),
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("finding home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".stempel", "stempel.db")
	}
	return cfg, nil
}

// Validate checks the values the server cannot run without.
func (c Config) Validate() error {
	if c.PasswordHash == "" {
		return fmt.Errorf("PASSWORD_HASH is required (generate one with `stempel hash-password`)")
	}
	if len(c.SessionSecret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
