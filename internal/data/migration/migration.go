// Package migration creates the change log schema of the SQL reporter.
package migration

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed sql
var migrationsFS embed.FS

// Table is the table the migrations create
const Table = "ip_changes"

// Dialect returns the migration set for a database/sql driver name
func Dialect(driverName string) (string, error) {
	switch driverName {
	case "sqlite3":
		return "sqlite3", nil
	case "postgres", "pgx":
		return "postgres", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("no migrations for driver %s", driverName)
	}
}

// Up applies all pending migrations. It opens its own connection with
// driverName and dsn and closes it when done.
func Up(driverName, dsn string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	dialect, err := Dialect(driverName)
	if err != nil {
		return err
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open database for migration: %w", err)
	}

	var driver database.Driver
	switch dialect {
	case "sqlite3":
		driver, err = sqlite3.WithInstance(db, &sqlite3.Config{})
	case "postgres":
		driver, err = postgres.WithInstance(db, &postgres.Config{})
	case "mysql":
		driver, err = mysql.WithInstance(db, &mysql.Config{})
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create %s migration driver: %w", dialect, err)
	}

	source, err := iofs.New(migrationsFS, "sql/"+dialect)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, dialect, driver)
	if err != nil {
		_ = source.Close()
		_ = driver.Close()
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", zap.NamedError("source", srcErr), zap.NamedError("database", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Debug("Schema is up to date", zap.String("dialect", dialect))
			return nil
		}
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	v, _, _ := m.Version()
	logger.Info("Applied migrations", zap.String("dialect", dialect), zap.Uint("version", v))
	return nil
}
