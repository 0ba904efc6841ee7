package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, "server:\n  port: 9090\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "redis", cfg.Index.Backend)
	assert.Equal(t, 5, cfg.Invite.CodesPerUser)
	assert.Equal(t, 15*24*time.Hour, cfg.Invite.TrialDuration)
	assert.Equal(t, 48*time.Hour, cfg.Invite.Extension)
	assert.Equal(t, 3, cfg.Invite.ClaimAttempts)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
database:
  driver: sqlite
  sqlite:
    path: ":memory:"
index:
  backend: memory
invite:
  extension: 72h
admin:
  user_ids: ["admin-1", "admin-2"]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":memory:", cfg.Database.SQLite.Path)
	assert.Equal(t, "memory", cfg.Index.Backend)
	assert.Equal(t, 72*time.Hour, cfg.Invite.Extension)
	assert.Equal(t, []string{"admin-1", "admin-2"}, cfg.Admin.UserIDs)
}

func TestLoad_EnvOverride(t *testing.T) {
	path := writeConfig(t, "database:\n  postgres:\n    host: localhost\n")
	t.Setenv("DATABASE_POSTGRES_HOST", "db.internal")
	t.Setenv("INVITE_CODES_PER_USER", "7")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, 7, cfg.Invite.CodesPerUser)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
