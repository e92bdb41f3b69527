package sqlstore

import (
    "context"
    "fmt"
    "strings"

    "github.com/tinoosan/euer/internal/dictionary"
)

// Schema returns the DDL statements with the backend's auto-increment primary
// key declaration substituted (e.g. "integer primary key autoincrement").
func Schema(primaryKey string) []string {
    stmts := []string{
        `create table if not exists categories (
            id %PK%,
            uuid text not null unique,
            name text not null,
            report_line integer,
            type text not null check (type in ('expense', 'income')),
            unique (name, type)
        )`,
        `create table if not exists expenses (
            id %PK%,
            uuid text not null unique,
            payment_date text,
            invoice_date text,
            vendor text not null,
            amount_minor bigint not null,
            category_id bigint references categories(id),
            account text,
            ledger_account text,
            receipt_name text,
            foreign_amount text,
            notes text,
            is_rc boolean not null default false,
            vat_input_minor bigint,
            vat_output_minor bigint,
            is_private_paid boolean not null default false,
            private_classification text not null default 'none'
                check (private_classification in ('none', 'account_rule', 'category_rule', 'manual')),
            fingerprint text not null unique,
            check (payment_date is not null or invoice_date is not null)
        )`,
        `create index if not exists idx_expenses_payment_date on expenses(payment_date)`,
        `create index if not exists idx_expenses_category on expenses(category_id)`,
        `create table if not exists income (
            id %PK%,
            uuid text not null unique,
            payment_date text,
            invoice_date text,
            source text not null,
            amount_minor bigint not null,
            category_id bigint references categories(id),
            ledger_account text,
            receipt_name text,
            foreign_amount text,
            notes text,
            vat_output_minor bigint,
            fingerprint text not null unique,
            check (payment_date is not null or invoice_date is not null)
        )`,
        `create index if not exists idx_income_payment_date on income(payment_date)`,
        `create table if not exists private_transfers (
            id %PK%,
            uuid text not null unique,
            date text not null,
            type text not null check (type in ('deposit', 'withdrawal')),
            amount_minor bigint not null check (amount_minor > 0),
            description text not null,
            notes text,
            related_expense_id bigint references expenses(id),
            fingerprint text not null unique
        )`,
        `create index if not exists idx_private_transfers_date on private_transfers(date)`,
        `create table if not exists audit_log (
            id %PK%,
            created_at text not null,
            table_name text not null,
            record_id bigint not null,
            record_uuid text,
            action text not null check (action in ('INSERT', 'UPDATE', 'DELETE', 'MIGRATE')),
            old_state text,
            new_state text,
            user_name text not null
        )`,
        `create index if not exists idx_audit_table_record on audit_log(table_name, record_id)`,
    }
    for i := range stmts { stmts[i] = strings.ReplaceAll(stmts[i], "%PK%", primaryKey) }
    return stmts
}

// Bootstrap applies the schema and seeds the curated categories inside tx.
// It is idempotent.
func Bootstrap(ctx context.Context, tx *Tx, stmts []string) (int, error) {
    for _, s := range stmts {
        if err := tx.Exec(ctx, s); err != nil { return 0, fmt.Errorf("apply schema: %w", err) }
    }
    return tx.SeedCategories(ctx, dictionary.Seed())
}
