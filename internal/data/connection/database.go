package connection

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"netloc/internal/config"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// DriverName maps a configured driver to the registered database/sql
// driver name. "postgres" uses lib/pq, "pgx" uses the pgx stdlib driver.
func DriverName(driver string) (string, error) {
	switch driver {
	case "sqlite3", "":
		return "sqlite3", nil
	case "postgres":
		return "postgres", nil
	case "pgx":
		return "pgx", nil
	case "mysql":
		return "mysql", nil
	default:
		return "", fmt.Errorf("unsupported database driver: %s", driver)
	}
}

// newDB creates new database connection
func newDB(ctx context.Context, cfg *config.SQLConfig) (*sql.DB, error) {
	name, err := DriverName(cfg.Driver)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(name, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.MaxOpenConn > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConn)
	}
	if cfg.MaxIdleConn > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if name == "sqlite3" {
		// in-memory databases are per connection
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database connect error: %w", err)
	}

	return db, nil
}
