package sqlstore

import (
    "context"

    "github.com/google/uuid"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
)

const expenseSelect = `
    select e.id, e.uuid, e.payment_date, e.invoice_date, e.vendor, e.amount_minor,
           e.category_id, c.name, c.report_line, e.account, e.ledger_account,
           e.receipt_name, e.foreign_amount, e.notes, e.is_rc,
           e.vat_input_minor, e.vat_output_minor, e.is_private_paid,
           e.private_classification, e.fingerprint
    from expenses e
    left join categories c on c.id = e.category_id`

// GetExpense fetches an expense with its category joined.
func (t *Tx) GetExpense(ctx context.Context, id int64) (ledger.Expense, error) {
    e, err := scanExpense(t.c.QueryRow(ctx, expenseSelect+` where e.id = ?`, id))
    if err != nil { return ledger.Expense{}, t.mapErr(err, "get expense") }
    return e, nil
}

func (t *Tx) ExpenseIDByFingerprint(ctx context.Context, fingerprint string) (int64, bool, error) {
    return t.idByFingerprint(ctx, ledger.TableExpenses, fingerprint)
}

// InsertExpense stores e and returns it with its new id.
func (t *Tx) InsertExpense(ctx context.Context, e ledger.Expense) (ledger.Expense, error) {
    if e.UUID == uuid.Nil { e.UUID = uuid.New() }
    err := t.c.QueryRow(ctx, `
        insert into expenses (uuid, payment_date, invoice_date, vendor, amount_minor, category_id,
            account, ledger_account, receipt_name, foreign_amount, notes, is_rc,
            vat_input_minor, vat_output_minor, is_private_paid, private_classification, fingerprint)
        values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        returning id
    `, e.UUID.String(), nullStr(e.PaymentDate), nullStr(e.InvoiceDate), e.Vendor, ledger.Minor(e.Amount), e.CategoryID,
        nullStr(e.Account), nullStr(e.LedgerAccount), nullStr(e.ReceiptName), nullStr(e.ForeignAmount), nullStr(e.Notes), e.ReverseCharge,
        ledger.MinorPtr(e.VATInput), ledger.MinorPtr(e.VATOutput), e.PrivatePaid, string(e.PrivateClass), e.Fingerprint,
    ).Scan(&e.ID)
    if err != nil { return ledger.Expense{}, t.mapErr(err, "insert expense") }
    return e, nil
}

// UpdateExpense overwrites every mutable column of e.
func (t *Tx) UpdateExpense(ctx context.Context, e ledger.Expense) error {
    n, err := t.c.Exec(ctx, `
        update expenses set payment_date = ?, invoice_date = ?, vendor = ?, amount_minor = ?,
            category_id = ?, account = ?, ledger_account = ?, receipt_name = ?, foreign_amount = ?,
            notes = ?, is_rc = ?, vat_input_minor = ?, vat_output_minor = ?, is_private_paid = ?,
            private_classification = ?, fingerprint = ?
        where id = ?
    `, nullStr(e.PaymentDate), nullStr(e.InvoiceDate), e.Vendor, ledger.Minor(e.Amount),
        e.CategoryID, nullStr(e.Account), nullStr(e.LedgerAccount), nullStr(e.ReceiptName), nullStr(e.ForeignAmount),
        nullStr(e.Notes), e.ReverseCharge, ledger.MinorPtr(e.VATInput), ledger.MinorPtr(e.VATOutput), e.PrivatePaid,
        string(e.PrivateClass), e.Fingerprint, e.ID)
    if err != nil { return t.mapErr(err, "update expense") }
    if n == 0 { return errs.ErrNotFound }
    return nil
}

func (t *Tx) DeleteExpense(ctx context.Context, id int64) error {
    return t.deleteByID(ctx, ledger.TableExpenses, id)
}

// ListExpenses returns expenses ordered by preferred date, then id.
func (t *Tx) ListExpenses(ctx context.Context, f ledger.ListFilter) ([]ledger.Expense, error) {
    where, args := dateFilter(` where 1=1`, nil, `coalesce(e.payment_date, e.invoice_date)`, f.Year, f.Month)
    if f.CategoryID != nil {
        where += ` and e.category_id = ?`
        args = append(args, *f.CategoryID)
    }
    rows, err := t.c.Query(ctx, expenseSelect+where+` order by coalesce(e.payment_date, e.invoice_date), e.id`, args...)
    if err != nil { return nil, t.mapErr(err, "list expenses") }
    defer rows.Close()
    out := make([]ledger.Expense, 0)
    for rows.Next() {
        e, err := scanExpense(rows)
        if err != nil { return nil, err }
        out = append(out, e)
    }
    return out, rows.Err()
}

func scanExpense(r Row) (ledger.Expense, error) {
    var e ledger.Expense
    var id, class string
    var payment, invoice, catName, account, ledgerAccount, receipt, foreign, notes *string
    var amount int64
    var vatIn, vatOut *int64
    if err := r.Scan(&e.ID, &id, &payment, &invoice, &e.Vendor, &amount,
        &e.CategoryID, &catName, &e.CategoryLine, &account, &ledgerAccount,
        &receipt, &foreign, &notes, &e.ReverseCharge,
        &vatIn, &vatOut, &e.PrivatePaid, &class, &e.Fingerprint); err != nil {
        return ledger.Expense{}, err
    }
    e.UUID, _ = uuid.Parse(id)
    e.PaymentDate, e.InvoiceDate = deref(payment), deref(invoice)
    e.Amount = ledger.FromMinor(amount)
    e.CategoryName = deref(catName)
    e.Account, e.LedgerAccount = deref(account), deref(ledgerAccount)
    e.ReceiptName, e.ForeignAmount, e.Notes = deref(receipt), deref(foreign), deref(notes)
    e.VATInput, e.VATOutput = ledger.FromMinorPtr(vatIn), ledger.FromMinorPtr(vatOut)
    e.PrivateClass = ledger.PrivateClassification(class)
    return e, nil
}
