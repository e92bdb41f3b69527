// Package sqlite is the embedded storage backend. It is the default store for
// local bookkeeping.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tinoosan/euer/internal/storage"
	"github.com/tinoosan/euer/internal/storage/sqlstore"
)

const primaryKey = "integer primary key autoincrement"

var dialect = sqlstore.Dialect{
	Name:     "sqlite",
	IsNoRows: func(err error) bool { return errors.Is(err, sql.ErrNoRows) },
	IsUniqueViolation: func(err error) bool {
		var se sqlite3.Error
		if errors.As(err, &se) {
			return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
		}
		return false
	},
}

// Store is a SQLite database file.
type Store struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open opens (or creates) the database at path with foreign keys and WAL
// enabled, applies the schema and seeds the default categories.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows a single writer; serialize on one connection.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db, path: path, now: time.Now}
	if err := s.init(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// SetClock overrides the audit timestamp source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginTx starts a unit of work.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	return sqlstore.NewTx(conn{tx: tx}, dialect, s.now), nil
}

func (s *Store) init(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin init: %w", err)
	}
	defer func() { _ = tx.Rollback() }()
	if _, err := sqlstore.Bootstrap(ctx, sqlstore.NewTx(conn{tx: tx}, dialect, s.now), sqlstore.Schema(primaryKey)); err != nil {
		return err
	}
	return tx.Commit()
}

// conn adapts *sql.Tx to sqlstore.Conn.
type conn struct{ tx *sql.Tx }

func (c conn) Exec(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := c.tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (c conn) Query(ctx context.Context, q string, args ...any) (sqlstore.Rows, error) {
	rows, err := c.tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return sqlRows{rows}, nil
}

func (c conn) QueryRow(ctx context.Context, q string, args ...any) sqlstore.Row {
	return c.tx.QueryRowContext(ctx, q, args...)
}

func (c conn) Commit(context.Context) error { return c.tx.Commit() }

func (c conn) Rollback(context.Context) error {
	err := c.tx.Rollback()
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}

type sqlRows struct{ *sql.Rows }

func (r sqlRows) Close() { _ = r.Rows.Close() }
