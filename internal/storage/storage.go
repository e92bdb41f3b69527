// Package storage declares the transactional persistence contract shared by
// the SQLite and Postgres backends.
package storage

import (
    "context"

    "github.com/tinoosan/euer/internal/dictionary"
    "github.com/tinoosan/euer/internal/ledger"
)

// Store opens units of work. Every mutation runs inside exactly one Tx.
type Store interface {
    BeginTx(ctx context.Context) (Tx, error)
}

// Tx is a single unit of work. Reads return errs.ErrNotFound for missing rows;
// writes return errs.ErrConflict when a fingerprint is already taken.
type Tx interface {
    CategoryReader
    ExpenseStore
    IncomeStore
    TransferStore
    AuditLog

    Commit(ctx context.Context) error
    Rollback(ctx context.Context) error
}

type CategoryReader interface {
    ListCategories(ctx context.Context, t *ledger.CategoryType) ([]ledger.Category, error)
    CategoryByID(ctx context.Context, id int64) (ledger.Category, error)
    SeedCategories(ctx context.Context, defs []dictionary.CategoryDef) (int, error)
}

type ExpenseStore interface {
    GetExpense(ctx context.Context, id int64) (ledger.Expense, error)
    ExpenseIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error)
    InsertExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error)
    UpdateExpense(ctx context.Context, e ledger.Expense) error
    DeleteExpense(ctx context.Context, id int64) error
    ListExpenses(ctx context.Context, f ledger.ListFilter) ([]ledger.Expense, error)
}

type IncomeStore interface {
    GetIncome(ctx context.Context, id int64) (ledger.Income, error)
    IncomeIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error)
    InsertIncome(ctx context.Context, i ledger.Income) (ledger.Income, error)
    UpdateIncome(ctx context.Context, i ledger.Income) error
    DeleteIncome(ctx context.Context, id int64) error
    ListIncome(ctx context.Context, f ledger.ListFilter) ([]ledger.Income, error)
}

type TransferStore interface {
    GetTransfer(ctx context.Context, id int64) (ledger.PrivateTransfer, error)
    TransferIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error)
    InsertTransfer(ctx context.Context, p ledger.PrivateTransfer) (ledger.PrivateTransfer, error)
    UpdateTransfer(ctx context.Context, p ledger.PrivateTransfer) error
    DeleteTransfer(ctx context.Context, id int64) error
    ListTransfers(ctx context.Context, f ledger.TransferFilter) ([]ledger.PrivateTransfer, error)
}

// AuditLog is insert-only.
type AuditLog interface {
    AppendAudit(ctx context.Context, e ledger.AuditEntry) (int64, error)
    AuditTrail(ctx context.Context, table string, recordID int64) ([]ledger.AuditEntry, error)
    ListAudit(ctx context.Context, limit int) ([]ledger.AuditEntry, error)
}
