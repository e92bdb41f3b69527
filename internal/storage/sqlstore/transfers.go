package sqlstore

import (
    "context"

    "github.com/google/uuid"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
)

const transferSelect = `
    select id, uuid, date, type, amount_minor, description, notes, related_expense_id, fingerprint
    from private_transfers`

func (t *Tx) GetTransfer(ctx context.Context, id int64) (ledger.PrivateTransfer, error) {
    p, err := scanTransfer(t.c.QueryRow(ctx, transferSelect+` where id = ?`, id))
    if err != nil { return ledger.PrivateTransfer{}, t.mapErr(err, "get private transfer") }
    return p, nil
}

func (t *Tx) TransferIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error) {
    return t.idByFingerprint(ctx, ledger.TableTransfers, fingerprint)
}

func (t *Tx) InsertTransfer(ctx context.Context, p ledger.PrivateTransfer) (ledger.PrivateTransfer, error) {
    if p.UUID == uuid.Nil { p.UUID = uuid.New() }
    err := t.c.QueryRow(ctx, `
        insert into private_transfers (uuid, date, type, amount_minor, description, notes, related_expense_id, fingerprint)
        values (?, ?, ?, ?, ?, ?, ?, ?)
        returning id
    `, p.UUID.String(), p.Date, string(p.Type), ledger.Minor(p.Amount), p.Description, nullStr(p.Notes),
        p.RelatedExpenseID, p.Fingerprint,
    ).Scan(&p.ID)
    if err != nil { return ledger.PrivateTransfer{}, t.mapErr(err, "insert private transfer") }
    return p, nil
}

func (t *Tx) UpdateTransfer(ctx context.Context, p ledger.PrivateTransfer) error {
    n, err := t.c.Exec(ctx, `
        update private_transfers set date = ?, amount_minor = ?, description = ?, notes = ?,
            related_expense_id = ?, fingerprint = ?
        where id = ?
    `, p.Date, ledger.Minor(p.Amount), p.Description, nullStr(p.Notes), p.RelatedExpenseID, p.Fingerprint, p.ID)
    if err != nil { return t.mapErr(err, "update private transfer") }
    if n == 0 { return errs.ErrNotFound }
    return nil
}

func (t *Tx) DeleteTransfer(ctx context.Context, id int64) error {
    return t.deleteByID(ctx, ledger.TableTransfers, id)
}

// ListTransfers returns transfers ordered by date, then id.
func (t *Tx) ListTransfers(ctx context.Context, f ledger.TransferFilter) ([]ledger.PrivateTransfer, error) {
    where, args := dateFilter(` where 1=1`, nil, `date`, f.Year, 0)
    if f.Type != "" {
        where += ` and type = ?`
        args = append(args, string(f.Type))
    }
    if f.RelatedExpenseID != nil {
        where += ` and related_expense_id = ?`
        args = append(args, *f.RelatedExpenseID)
    }
    rows, err := t.c.Query(ctx, transferSelect+where+` order by date, id`, args...)
    if err != nil { return nil, t.mapErr(err, "list private transfers") }
    defer rows.Close()
    out := make([]ledger.PrivateTransfer, 0)
    for rows.Next() {
        p, err := scanTransfer(rows)
        if err != nil { return nil, err }
        out = append(out, p)
    }
    return out, rows.Err()
}

func scanTransfer(r Row) (ledger.PrivateTransfer, error) {
    var p ledger.PrivateTransfer
    var id, typ string
    var notes *string
    var amount int64
    if err := r.Scan(&p.ID, &id, &p.Date, &typ, &amount, &p.Description, &notes, &p.RelatedExpenseID, &p.Fingerprint); err != nil {
        return ledger.PrivateTransfer{}, err
    }
    p.UUID, _ = uuid.Parse(id)
    p.Type = ledger.TransferType(typ)
    p.Amount = ledger.FromMinor(amount)
    p.Notes = deref(notes)
    return p, nil
}
