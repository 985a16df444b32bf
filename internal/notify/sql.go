package notify

import (
	"context"
	"database/sql"
	"fmt"

	"netloc/internal/data/migration"
)

// SQL appends every change to the ip_changes table
type SQL struct {
	db    *sql.DB
	query string
}

// NewSQL creates new SQL reporter. driverName is the database/sql driver
// the connection was opened with.
func NewSQL(db *sql.DB, driverName string) (*SQL, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}

	var query string
	switch driverName {
	case "postgres", "pgx":
		query = "INSERT INTO " + migration.Table + " (event_id, ip, previous, effect, changed_at) VALUES ($1, $2, $3, $4, $5)"
	case "sqlite3", "mysql":
		query = "INSERT INTO " + migration.Table + " (event_id, ip, previous, effect, changed_at) VALUES (?, ?, ?, ?, ?)"
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driverName)
	}

	return &SQL{db: db, query: query}, nil
}

// Name returns the reporter name
func (n *SQL) Name() string { return "sql" }

// Report inserts the change
func (n *SQL) Report(ctx context.Context, p *Payload) error {
	previous := sql.NullString{String: p.Previous, Valid: p.Previous != ""}
	if _, err := n.db.ExecContext(ctx, n.query, p.EventID, p.IP, previous, p.Effect, p.Timestamp); err != nil {
		return fmt.Errorf("failed to insert ip change: %w", err)
	}
	return nil
}
