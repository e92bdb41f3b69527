package sqlstore

import (
    "context"

    "github.com/google/uuid"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
)

const incomeSelect = `
    select i.id, i.uuid, i.payment_date, i.invoice_date, i.source, i.amount_minor,
           i.category_id, c.name, c.report_line, i.ledger_account, i.receipt_name,
           i.foreign_amount, i.notes, i.vat_output_minor, i.fingerprint
    from income i
    left join categories c on c.id = i.category_id`

func (t *Tx) GetIncome(ctx context.Context, id int64) (ledger.Income, error) {
    i, err := scanIncome(t.c.QueryRow(ctx, incomeSelect+` where i.id = ?`, id))
    if err != nil { return ledger.Income{}, t.mapErr(err, "get income") }
    return i, nil
}

func (t *Tx) IncomeIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error) {
    return t.idByFingerprint(ctx, ledger.TableIncome, fingerprint)
}

func (t *Tx) InsertIncome(ctx context.Context, i ledger.Income) (ledger.Income, error) {
    if i.UUID == uuid.Nil { i.UUID = uuid.New() }
    err := t.c.QueryRow(ctx, `
        insert into income (uuid, payment_date, invoice_date, source, amount_minor, category_id,
            ledger_account, receipt_name, foreign_amount, notes, vat_output_minor, fingerprint)
        values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        returning id
    `, i.UUID.String(), nullStr(i.PaymentDate), nullStr(i.InvoiceDate), i.Source, ledger.Minor(i.Amount), i.CategoryID,
        nullStr(i.LedgerAccount), nullStr(i.ReceiptName), nullStr(i.ForeignAmount), nullStr(i.Notes),
        ledger.MinorPtr(i.VATOutput), i.Fingerprint,
    ).Scan(&i.ID)
    if err != nil { return ledger.Income{}, t.mapErr(err, "insert income") }
    return i, nil
}

func (t *Tx) UpdateIncome(ctx context.Context, i ledger.Income) error {
    n, err := t.c.Exec(ctx, `
        update income set payment_date = ?, invoice_date = ?, source = ?, amount_minor = ?,
            category_id = ?, ledger_account = ?, receipt_name = ?, foreign_amount = ?, notes = ?,
            vat_output_minor = ?, fingerprint = ?
        where id = ?
    `, nullStr(i.PaymentDate), nullStr(i.InvoiceDate), i.Source, ledger.Minor(i.Amount),
        i.CategoryID, nullStr(i.LedgerAccount), nullStr(i.ReceiptName), nullStr(i.ForeignAmount), nullStr(i.Notes),
        ledger.MinorPtr(i.VATOutput), i.Fingerprint, i.ID)
    if err != nil { return t.mapErr(err, "update income") }
    if n == 0 { return errs.ErrNotFound }
    return nil
}

func (t *Tx) DeleteIncome(ctx context.Context, id int64) error {
    return t.deleteByID(ctx, ledger.TableIncome, id)
}

// ListIncome returns income ordered by preferred date, then id.
func (t *Tx) ListIncome(ctx context.Context, f ledger.ListFilter) ([]ledger.Income, error) {
    where, args := dateFilter(` where 1=1`, nil, `coalesce(i.payment_date, i.invoice_date)`, f.Year, f.Month)
    if f.CategoryID != nil {
        where += ` and i.category_id = ?`
        args = append(args, *f.CategoryID)
    }
    rows, err := t.c.Query(ctx, incomeSelect+where+` order by coalesce(i.payment_date, i.invoice_date), i.id`, args...)
    if err != nil { return nil, t.mapErr(err, "list income") }
    defer rows.Close()
    out := make([]ledger.Income, 0)
    for rows.Next() {
        i, err := scanIncome(rows)
        if err != nil { return nil, err }
        out = append(out, i)
    }
    return out, rows.Err()
}

func scanIncome(r Row) (ledger.Income, error) {
    var i ledger.Income
    var id string
    var payment, invoice, catName, ledgerAccount, receipt, foreign, notes *string
    var amount int64
    var vatOut *int64
    if err := r.Scan(&i.ID, &id, &payment, &invoice, &i.Source, &amount,
        &i.CategoryID, &catName, &i.CategoryLine, &ledgerAccount, &receipt,
        &foreign, &notes, &vatOut, &i.Fingerprint); err != nil {
        return ledger.Income{}, err
    }
    i.UUID, _ = uuid.Parse(id)
    i.PaymentDate, i.InvoiceDate = deref(payment), deref(invoice)
    i.Amount = ledger.FromMinor(amount)
    i.CategoryName, i.LedgerAccount = deref(catName), deref(ledgerAccount)
    i.ReceiptName, i.ForeignAmount, i.Notes = deref(receipt), deref(foreign), deref(notes)
    i.VATOutput = ledger.FromMinorPtr(vatOut)
    return i, nil
}
