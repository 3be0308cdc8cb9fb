package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	for _, key := range []string{"APP_NAME", "DB_DRIVER", "DATABASE_URL", "DB_PASSWORD", "SESSION_TTL", "BCRYPT_COST",
		"BUFFER_RETENTION_HOURS", "SYNC_INTERVAL_SECONDS", "SERVER_HOST", "SERVER_PORT",
		"DB_USER", "DB_HOST", "DB_PORT", "DB_NAME", "DB_SSLMODE"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "taskflow", cfg.AppName)
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 24*time.Hour, cfg.Auth.SessionTTL)
	assert.Equal(t, 12, cfg.Auth.BcryptCost)
	assert.Equal(t, 24*time.Hour, cfg.Buffer.Retention)
	assert.Equal(t, 30*time.Second, cfg.Buffer.SyncInterval)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Equal(t, "postgres://taskflow:@localhost:5432/taskflow?sslmode=disable", cfg.Database.DSN())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/tasks.db")
	t.Setenv("SESSION_TTL", "90m")
	t.Setenv("SYNC_INTERVAL_SECONDS", "5")
	t.Setenv("BUFFER_RETENTION_HOURS", "2")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("RUN_MIGRATIONS", "false")
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/x")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "/tmp/tasks.db", cfg.Database.SQLitePath)
	assert.Equal(t, 90*time.Minute, cfg.Auth.SessionTTL)
	assert.Equal(t, 5*time.Second, cfg.Buffer.SyncInterval)
	assert.Equal(t, 2*time.Hour, cfg.Buffer.Retention)
	assert.Equal(t, "0.0.0.0:9090", cfg.Address())
	assert.False(t, cfg.Migrations.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.Database.DSN())
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "mysql")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
	assert.Contains(t, err.Error(), "mysql")
}

func TestGetDurationFallbacks(t *testing.T) {
	t.Setenv("X_DURATION", "not-a-duration")
	assert.Equal(t, time.Second, getDuration("X_DURATION", time.Second))

	t.Setenv("X_DURATION", "15")
	assert.Equal(t, 15*time.Second, getDuration("X_DURATION", time.Second))

	t.Setenv("X_INT", "abc")
	assert.Equal(t, 3, getInt("X_INT", 3))
}
