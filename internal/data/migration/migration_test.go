package migration

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDialect(t *testing.T) {
	for driver, want := range map[string]string{
		"sqlite3":  "sqlite3",
		"postgres": "postgres",
		"pgx":      "postgres",
		"mysql":    "mysql",
	} {
		got, err := Dialect(driver)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := Dialect("oracle")
	assert.Error(t, err)
}

func TestUpSQLite(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "netloc.db")
	logger := zaptest.NewLogger(t)

	require.NoError(t, Up("sqlite3", dsn, logger))
	require.NoError(t, Up("sqlite3", dsn, logger), "second run is a no-op")

	db, err := sql.Open("sqlite3", dsn)
	require.NoError(t, err)
	defer db.Close()

	var name string
	err = db.QueryRow("SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?", Table).Scan(&name)
	require.NoError(t, err)
	assert.Equal(t, Table, name)
}
