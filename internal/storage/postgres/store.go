package postgres

// Package postgres provides a pgx-backed storage implementation for running
// the ledger against a shared Postgres server instead of a local SQLite file.
//
// The SQL itself lives in sqlstore and is written with '?' placeholders; this
// package only rebinds them to $n and maps pgx errors.

import (
    "context"
    "errors"
    "strconv"
    "strings"
    "time"

    "github.com/jackc/pgx/v5"
    "github.com/jackc/pgx/v5/pgconn"
    "github.com/jackc/pgx/v5/pgxpool"

    "github.com/tinoosan/euer/internal/storage"
    "github.com/tinoosan/euer/internal/storage/sqlstore"
)

const primaryKey = "bigserial primary key"

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

var dialect = sqlstore.Dialect{
    Name:     "postgres",
    IsNoRows: func(err error) bool { return errors.Is(err, pgx.ErrNoRows) },
    IsUniqueViolation: func(err error) bool {
        var pgErr *pgconn.PgError
        return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
    },
}

// Store holds a pgx connection pool. All methods are safe for concurrent use.
type Store struct {
    pool *pgxpool.Pool
    now  func() time.Time
}

var _ storage.Store = (*Store)(nil)

// Open establishes a pgx pool using the provided connection string and
// bootstraps the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
    cfg, err := pgxpool.ParseConfig(dsn)
    if err != nil { return nil, err }
    pool, err := pgxpool.NewWithConfig(ctx, cfg)
    if err != nil { return nil, err }
    // Verify connection
    if err := pool.Ping(ctx); err != nil { pool.Close(); return nil, err }
    s := &Store{pool: pool, now: time.Now}
    if err := s.init(ctx); err != nil { pool.Close(); return nil, err }
    return s, nil
}

// Close releases the underlying pool.
func (s *Store) Close() { if s.pool != nil { s.pool.Close() } }

// Ready pings the pool to verify connectivity.
func (s *Store) Ready(ctx context.Context) error { return s.pool.Ping(ctx) }

// SetClock overrides the audit timestamp source.
func (s *Store) SetClock(now func() time.Time) { s.now = now }

// BeginTx starts a unit of work.
func (s *Store) BeginTx(ctx context.Context) (storage.Tx, error) {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return nil, err }
    return sqlstore.NewTx(conn{tx: tx}, dialect, s.now), nil
}

func (s *Store) init(ctx context.Context) error {
    tx, err := s.pool.Begin(ctx)
    if err != nil { return err }
    defer func() { _ = tx.Rollback(ctx) }()
    if _, err := sqlstore.Bootstrap(ctx, sqlstore.NewTx(conn{tx: tx}, dialect, s.now), sqlstore.Schema(primaryKey)); err != nil {
        return err
    }
    return tx.Commit(ctx)
}

// conn adapts pgx.Tx to sqlstore.Conn.
type conn struct{ tx pgx.Tx }

func (c conn) Exec(ctx context.Context, q string, args ...any) (int64, error) {
    ct, err := c.tx.Exec(ctx, rebind(q), args...)
    if err != nil { return 0, err }
    return ct.RowsAffected(), nil
}

func (c conn) Query(ctx context.Context, q string, args ...any) (sqlstore.Rows, error) {
    rows, err := c.tx.Query(ctx, rebind(q), args...)
    if err != nil { return nil, err }
    return rows, nil
}

func (c conn) QueryRow(ctx context.Context, q string, args ...any) sqlstore.Row {
    return c.tx.QueryRow(ctx, rebind(q), args...)
}

func (c conn) Commit(ctx context.Context) error { return c.tx.Commit(ctx) }

func (c conn) Rollback(ctx context.Context) error {
    err := c.tx.Rollback(ctx)
    if errors.Is(err, pgx.ErrTxClosed) { return nil }
    return err
}

// rebind rewrites '?' placeholders to $1..$n. Quoted literals are left alone.
func rebind(q string) string {
    if !strings.Contains(q, "?") { return q }
    var b strings.Builder
    b.Grow(len(q) + 8)
    n := 0
    inQuote := false
    for i := 0; i < len(q); i++ {
        ch := q[i]
        if ch == '\'' { inQuote = !inQuote }
        if ch == '?' && !inQuote {
            n++
            b.WriteByte('$')
            b.WriteString(strconv.Itoa(n))
            continue
        }
        b.WriteByte(ch)
    }
    return b.String()
}
