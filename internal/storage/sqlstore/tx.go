// Package sqlstore implements storage.Tx once for every SQL backend. Queries
// use '?' placeholders; backends that need another style rebind them in
// their Conn adapter.
package sqlstore

import (
    "context"
    "fmt"
    "time"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/storage"
)

// Row is a single-row query result.
type Row interface {
    Scan(dest ...any) error
}

// Rows is a multi-row query result.
type Rows interface {
    Next() bool
    Scan(dest ...any) error
    Err() error
    Close()
}

// Conn is the minimal executor a backend transaction has to provide.
type Conn interface {
    Exec(ctx context.Context, query string, args ...any) (int64, error)
    Query(ctx context.Context, query string, args ...any) (Rows, error)
    QueryRow(ctx context.Context, query string, args ...any) Row
    Commit(ctx context.Context) error
    Rollback(ctx context.Context) error
}

// Dialect tells the shared code how a backend reports well-known failures.
type Dialect struct {
    Name              string
    IsNoRows          func(error) bool
    IsUniqueViolation func(error) bool
}

// Tx implements storage.Tx over a Conn.
type Tx struct {
    c   Conn
    d   Dialect
    now func() time.Time
}

var _ storage.Tx = (*Tx)(nil)

// NewTx wraps an open backend transaction. now stamps audit rows; nil uses time.Now.
func NewTx(c Conn, d Dialect, now func() time.Time) *Tx {
    if now == nil { now = time.Now }
    return &Tx{c: c, d: d, now: now}
}

func (t *Tx) Commit(ctx context.Context) error   { return t.c.Commit(ctx) }
func (t *Tx) Rollback(ctx context.Context) error { return t.c.Rollback(ctx) }

// Exec runs a raw statement; used for schema setup.
func (t *Tx) Exec(ctx context.Context, query string, args ...any) error {
    _, err := t.c.Exec(ctx, query, args...)
    return err
}

// mapErr translates backend errors into errs sentinels.
func (t *Tx) mapErr(err error, what string) error {
    if err == nil { return nil }
    if t.d.IsNoRows != nil && t.d.IsNoRows(err) { return errs.ErrNotFound }
    if t.d.IsUniqueViolation != nil && t.d.IsUniqueViolation(err) {
        return fmt.Errorf("%s: %w: %v", what, errs.ErrConflict, err)
    }
    return fmt.Errorf("%s: %w", what, err)
}

func (t *Tx) idByFingerprint(ctx context.Context, table, fingerprint string) (int64, bool, error) {
    var id int64
    err := t.c.QueryRow(ctx, `select id from `+table+` where fingerprint = ?`, fingerprint).Scan(&id)
    if err != nil {
        if t.d.IsNoRows(err) { return 0, false, nil }
        return 0, false, t.mapErr(err, "lookup "+table+" fingerprint")
    }
    return id, true, nil
}

func (t *Tx) deleteByID(ctx context.Context, table string, id int64) error {
    n, err := t.c.Exec(ctx, `delete from `+table+` where id = ?`, id)
    if err != nil { return t.mapErr(err, "delete "+table) }
    if n == 0 { return errs.ErrNotFound }
    return nil
}

func nullStr(s string) any {
    if s == "" { return nil }
    return s
}

func deref(s *string) string {
    if s == nil { return "" }
    return *s
}

// dateFilter appends year/month conditions on the preferred date column.
func dateFilter(where string, args []any, dateExpr string, year, month int) (string, []any) {
    if year > 0 {
        where += ` and substr(` + dateExpr + `, 1, 4) = ?`
        args = append(args, fmt.Sprintf("%04d", year))
    }
    if month > 0 {
        where += ` and substr(` + dateExpr + `, 6, 2) = ?`
        args = append(args, fmt.Sprintf("%02d", month))
    }
    return where, args
}
