package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STEMPEL_ADDR", "")
	t.Setenv("STEMPEL_DB", "")
	t.Setenv("STEMPEL_STATIC_DIR", "")
	t.Setenv("PASSWORD_HASH", "")
	t.Setenv("SESSION_SECRET", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":5000", cfg.Addr)
	assert.Equal(t, "./static", cfg.StaticDir)
	assert.Equal(t, filepath.Join(".stempel", "stempel.db"), filepath.Join(filepath.Base(filepath.Dir(cfg.DBPath)), filepath.Base(cfg.DBPath)))
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STEMPEL_ADDR", ":8080")
	t.Setenv("STEMPEL_DB", "/tmp/test.db")
	t.Setenv("STEMPEL_STATIC_DIR", "/srv/static")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "/srv/static", cfg.StaticDir)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		PasswordHash:  "$2a$10$abcdefghijklmnopqrstuv",
		SessionSecret: "0123456789abcdef0123456789abcdef",
	}
	assert.NoError(t, cfg.Validate())

	missingHash := cfg
	missingHash.PasswordHash = ""
	assert.Error(t, missingHash.Validate())

	shortSecret := cfg
	shortSecret.SessionSecret = "too-short"
	assert.Error(t, shortSecret.Validate())
}
