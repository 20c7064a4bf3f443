// Package sqlite implements the embedded relational state store for every
// derived table (entities, recency, co-occurrence, embeddings, feedback,
// applied-link log, FTS-equivalent search, index cache). It uses one
// schema/migration file per change, sentinel-wrapped errors, and plain
// database/sql CRUD.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/flywheel-memory/flywheel/internal/storage/sqlite/migrations"
)

// Store wraps a WAL-mode embedded SQL database at <vault>/.flywheel/state.db.
// All tables are derived from Markdown and may be dropped and rebuilt;
// Store never stores Markdown content itself.
type Store struct {
	db *sql.DB
}

// Open opens (creating if absent) the state store at path, enables WAL
// mode and foreign keys, and runs all pending migrations in order.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}
	db.SetMaxOpenConns(1) // modernc.org/sqlite is not safe for concurrent writers from one *DB

	s := &Store{db: db}
	if err := migrations.Run(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate state store: %w", err)
	}
	return s, nil
}

// Close flushes and releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying handle for packages (migrations, test helpers)
// that need raw access; application code should prefer Store's typed
// methods.
func (s *Store) DB() *sql.DB {
	return s.db
}

// WithTx runs fn inside a serializable transaction, committing on success
// and rolling back on any error.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
