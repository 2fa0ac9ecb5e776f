// Package sqlite provides a SQLite-backed transcript driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	_ "github.com/mattn/go-sqlite3"

	"github.com/frantai/folio/pkg/transcript/sqlstore"
)

var schema = sqlstore.Dialect{
	Name: dialect.SQLite,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS exchanges (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	response_time_ms INTEGER,
	failed BOOLEAN NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS exchanges_session_created ON exchanges (session_id, created_at)`,
	},
}

// Driver implements transcript.Driver using SQLite.
type Driver struct {
	*sqlstore.Store
}

// NewDriver creates a new SQLite-backed transcript store.
// The dbPath can be a file path or ":memory:" for an in-memory database.
func NewDriver(dbPath string) (*Driver, error) {
	// Open the database using the github.com/mattn/go-sqlite3 driver (registered as "sqlite3")
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A second connection to ":memory:" would open a different, empty database.
	db.SetMaxOpenConns(1)

	store, err := sqlstore.New(context.Background(), db, schema)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Driver{Store: store}, nil
}
