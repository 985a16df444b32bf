package connection

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"netloc/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDriverName(t *testing.T) {
	tests := map[string]string{
		"":         "sqlite3",
		"sqlite3":  "sqlite3",
		"postgres": "postgres",
		"pgx":      "pgx",
		"mysql":    "mysql",
	}
	for in, want := range tests {
		got, err := DriverName(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := DriverName("oracle")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewNothingConfigured(t *testing.T) {
	c, err := New(context.Background(), &config.NotifyConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Nil(t, c.DB)
	assert.Nil(t, c.RC)
	assert.Nil(t, c.KFK)
	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
}

func TestNewSQLite(t *testing.T) {
	cfg := &config.NotifyConfig{
		SQL: config.SQLConfig{Driver: "sqlite3", DSN: "file::memory:?cache=shared"},
	}

	c, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, c.DB)

	assert.NoError(t, c.Ping(context.Background()))
	assert.NoError(t, c.Close())
	assert.Nil(t, c.DB)
	assert.NoError(t, c.Close(), "second close is a no-op")
}

func TestNewClosesOnFailure(t *testing.T) {
	cfg := &config.NotifyConfig{
		SQL:   config.SQLConfig{Driver: "sqlite3", DSN: "file::memory:?cache=shared"},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1", Channel: "netloc:ip", DialTimeout: 200 * time.Millisecond},
	}

	c, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.Error(t, err)
	assert.Nil(t, c)
	assert.Contains(t, err.Error(), "redis connect error")
}

func TestNewUnsupportedDriver(t *testing.T) {
	cfg := &config.NotifyConfig{SQL: config.SQLConfig{Driver: "oracle", DSN: "x"}}

	_, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestNewSQLiteMigrates(t *testing.T) {
	cfg := &config.NotifyConfig{
		SQL: config.SQLConfig{Driver: "sqlite3", DSN: filepath.Join(t.TempDir(), "netloc.db"), Migrate: true},
	}

	c, err := New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer c.Close()

	var n int
	require.NoError(t, c.DB.QueryRow("SELECT COUNT(*) FROM ip_changes").Scan(&n))
	assert.Zero(t, n)
}
