package mutation

import (
    "context"
    "strings"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/audit"
    "github.com/tinoosan/euer/internal/classify"
    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/fingerprint"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/storage"
    "github.com/tinoosan/euer/internal/tax"
)

// ExpenseInput carries the fields of a new expense.
//
// VAT is a manual override fed into the tax table. VATInput and VATOutput are
// pre-populated values (bulk import passthrough); when either is set the tax
// table only fills the remaining nil field. PrivatePaid marks the expense as
// manually classified private-paid.
type ExpenseInput struct {
    PaymentDate   string
    InvoiceDate   string
    Vendor        string
    Amount        money.Amount
    Category      string
    LedgerAccount string
    Account       string
    ReceiptName   string
    ForeignAmount string
    Notes         string
    ReverseCharge bool
    VAT           *money.Amount
    VATInput      *money.Amount
    VATOutput     *money.Amount
    PrivatePaid   bool
}

// ExpensePatch lists the fields to change; nil keeps the stored value. An
// empty Category clears the category. PrivatePaid true sets a manual
// classification, false forces none.
type ExpensePatch struct {
    PaymentDate   *string
    InvoiceDate   *string
    Vendor        *string
    Amount        *money.Amount
    Category      *string
    LedgerAccount *string
    Account       *string
    ReceiptName   *string
    ForeignAmount *string
    Notes         *string
    ReverseCharge *bool
    VAT           *money.Amount
    PrivatePaid   *bool
}

// CreateExpense validates, classifies, taxes and stores a new expense.
func (u *Unit) CreateExpense(ctx context.Context, in ExpenseInput, policy DuplicatePolicy) (ledger.Expense, Outcome, error) {
    if err := validateDates(in.PaymentDate, in.InvoiceDate); err != nil { return ledger.Expense{}, Outcome{}, err }
    if err := validateAmounts(map[string]*money.Amount{"amount": &in.Amount, "vat": in.VAT, "vat_input": in.VATInput, "vat_output": in.VATOutput}); err != nil {
        return ledger.Expense{}, Outcome{}, err
    }
    if err := requireText("vendor", in.Vendor); err != nil { return ledger.Expense{}, Outcome{}, err }
    cat, ledgerKey, err := u.resolveCategory(ctx, in.Category, in.LedgerAccount, ledger.CategoryTypeExpense)
    if err != nil { return ledger.Expense{}, Outcome{}, err }

    e := ledger.Expense{
        PaymentDate:   in.PaymentDate,
        InvoiceDate:   in.InvoiceDate,
        Vendor:        strings.TrimSpace(in.Vendor),
        Amount:        in.Amount,
        Account:       strings.TrimSpace(in.Account),
        LedgerAccount: ledgerKey,
        ReceiptName:   in.ReceiptName,
        ForeignAmount: in.ForeignAmount,
        Notes:         in.Notes,
        ReverseCharge: in.ReverseCharge,
    }
    setCategory(&e, cat)
    e.Fingerprint = fingerprint.Expense(e)
    if id, exists, err := u.tx.ExpenseIDByFingerprint(ctx, e.Fingerprint); err != nil {
        return ledger.Expense{}, Outcome{}, err
    } else if exists {
        out, err := u.duplicate(ledger.TableExpenses, id, policy)
        return ledger.Expense{}, out, err
    }

    e.PrivatePaid, e.PrivateClass = classify.Expense(e.Account, e.CategoryName, u.s.settings.PrivateAccounts, in.PrivatePaid)
    var vat tax.ExpenseVAT
    if in.VATInput != nil || in.VATOutput != nil {
        vat, err = tax.FillExpense(u.s.settings.TaxMode, e.ReverseCharge, e.Amount, tax.ExpenseVAT{Input: in.VATInput, Output: in.VATOutput})
    } else {
        vat, err = tax.Expense(u.s.settings.TaxMode, e.ReverseCharge, e.Amount, in.VAT)
    }
    if err != nil { return ledger.Expense{}, Outcome{}, err }
    e.VATInput, e.VATOutput = vat.Input, vat.Output

    e, err = u.tx.InsertExpense(ctx, e)
    if err != nil { return ledger.Expense{}, Outcome{}, u.s.translateConflict(err, ledger.TableExpenses) }
    setCategory(&e, cat)
    if err := u.writeAudit(ctx, ledger.TableExpenses, e.ID, e.UUID.String(), ledger.AuditInsert, nil, audit.Expense(e)); err != nil {
        return ledger.Expense{}, Outcome{}, err
    }
    u.s.log.Debug("expense created", "id", e.ID, "fingerprint", e.Fingerprint, "private_classification", e.PrivateClass)
    return e, Outcome{Created: true}, nil
}

// UpdateExpense merges patch over the stored expense. Tax is recomputed only
// when the amount or reverse-charge flag changed or a VAT override was given;
// classification only when an explicit flag was given or account/category
// changed. A stored manual classification survives account/category changes.
func (u *Unit) UpdateExpense(ctx context.Context, id int64, patch ExpensePatch) (ledger.Expense, error) {
    if err := validateAmounts(map[string]*money.Amount{"amount": patch.Amount, "vat": patch.VAT}); err != nil { return ledger.Expense{}, err }
    existing, err := u.tx.GetExpense(ctx, id)
    if err != nil { return ledger.Expense{}, notFound(err, ledger.TableExpenses, id) }
    before := audit.Expense(existing)
    e := existing

    applyString(&e.PaymentDate, patch.PaymentDate)
    applyString(&e.InvoiceDate, patch.InvoiceDate)
    applyString(&e.Vendor, patch.Vendor)
    applyString(&e.Account, patch.Account)
    applyString(&e.ReceiptName, patch.ReceiptName)
    applyString(&e.ForeignAmount, patch.ForeignAmount)
    applyString(&e.Notes, patch.Notes)
    if patch.Amount != nil { e.Amount = *patch.Amount }
    if patch.ReverseCharge != nil { e.ReverseCharge = *patch.ReverseCharge }
    if err := validateDates(e.PaymentDate, e.InvoiceDate); err != nil { return ledger.Expense{}, err }
    if err := requireText("vendor", e.Vendor); err != nil { return ledger.Expense{}, err }

    if patch.LedgerAccount != nil || patch.Category != nil {
        cat, key, err := u.resolveCategory(ctx, deref(patch.Category), deref(patch.LedgerAccount), ledger.CategoryTypeExpense)
        if err != nil { return ledger.Expense{}, err }
        if cat != nil || (patch.Category != nil && strings.TrimSpace(*patch.Category) == "") {
            setCategory(&e, cat)
        }
        if patch.LedgerAccount != nil { e.LedgerAccount = key }
    }

    e.Fingerprint = fingerprint.Expense(e)
    if e.Fingerprint != existing.Fingerprint {
        if other, exists, err := u.tx.ExpenseIDByFingerprint(ctx, e.Fingerprint); err != nil {
            return ledger.Expense{}, err
        } else if exists && other != id {
            return ledger.Expense{}, errs.New(errs.CodeDuplicate, map[string]any{"existing_id": other, "table": ledger.TableExpenses}, "update collides with #%d", other)
        }
    }

    amountChanged := patch.Amount != nil && ledger.Minor(*patch.Amount) != ledger.Minor(existing.Amount)
    rcChanged := patch.ReverseCharge != nil && *patch.ReverseCharge != existing.ReverseCharge
    if amountChanged || rcChanged || patch.VAT != nil {
        vat, err := tax.Expense(u.s.settings.TaxMode, e.ReverseCharge, e.Amount, patch.VAT)
        if err != nil { return ledger.Expense{}, err }
        if vat.Input == nil { vat.Input = existing.VATInput }
        e.VATInput, e.VATOutput = vat.Input, vat.Output
    }

    switch {
    case patch.PrivatePaid != nil && *patch.PrivatePaid:
        e.PrivatePaid, e.PrivateClass = true, ledger.PrivateManual
    case patch.PrivatePaid != nil:
        e.PrivatePaid, e.PrivateClass = false, ledger.PrivateNone
    case e.Account != existing.Account || !sameID(e.CategoryID, existing.CategoryID):
        e.PrivatePaid, e.PrivateClass = classify.Expense(e.Account, e.CategoryName, u.s.settings.PrivateAccounts, existing.PrivateClass == ledger.PrivateManual)
    }

    if err := u.writeAudit(ctx, ledger.TableExpenses, e.ID, e.UUID.String(), ledger.AuditUpdate, before, audit.Expense(e)); err != nil {
        return ledger.Expense{}, err
    }
    if err := u.tx.UpdateExpense(ctx, e); err != nil {
        return ledger.Expense{}, u.s.translateConflict(err, ledger.TableExpenses)
    }
    u.s.log.Debug("expense updated", "id", e.ID, "changed", before.Diff(audit.Expense(e)))
    return e, nil
}

// DeleteExpense removes an expense and records its last state. Transfers
// linked to it are detached first, each with its own UPDATE audit entry.
func (u *Unit) DeleteExpense(ctx context.Context, id int64) error {
    existing, err := u.tx.GetExpense(ctx, id)
    if err != nil { return notFound(err, ledger.TableExpenses, id) }
    linked, err := u.tx.ListTransfers(ctx, ledger.TransferFilter{RelatedExpenseID: &id})
    if err != nil { return err }
    for _, p := range linked {
        if _, err := u.UpdateTransfer(ctx, p.ID, TransferPatch{ClearRelatedExpense: true}); err != nil { return err }
        u.s.log.Debug("transfer detached from deleted expense", "transfer_id", p.ID, "expense_id", id)
    }
    if err := u.tx.DeleteExpense(ctx, id); err != nil { return notFound(err, ledger.TableExpenses, id) }
    if err := u.writeAudit(ctx, ledger.TableExpenses, id, existing.UUID.String(), ledger.AuditDelete, audit.Expense(existing), nil); err != nil {
        return err
    }
    u.s.log.Debug("expense deleted", "id", id)
    return nil
}

// Reclassify stores a recomputed private-paid classification and records it
// as a MIGRATE audit entry. Nothing else on the record changes.
func (u *Unit) Reclassify(ctx context.Context, id int64, paid bool, class ledger.PrivateClassification) (ledger.Expense, error) {
    existing, err := u.tx.GetExpense(ctx, id)
    if err != nil { return ledger.Expense{}, notFound(err, ledger.TableExpenses, id) }
    e := existing
    e.PrivatePaid, e.PrivateClass = paid, class
    if err := u.writeAudit(ctx, ledger.TableExpenses, id, e.UUID.String(), ledger.AuditMigrate, audit.Expense(existing), audit.Expense(e)); err != nil {
        return ledger.Expense{}, err
    }
    if err := u.tx.UpdateExpense(ctx, e); err != nil { return ledger.Expense{}, err }
    return e, nil
}

// CreateExpense runs Unit.CreateExpense in its own transaction.
func (s *Service) CreateExpense(ctx context.Context, in ExpenseInput, policy DuplicatePolicy) (ledger.Expense, Outcome, error) {
    defer since(s.metrics, ledger.TableExpenses)()
    var e ledger.Expense
    var out Outcome
    err := s.run(ctx, func(u *Unit) error {
        var err error
        e, out, err = u.CreateExpense(ctx, in, policy)
        return err
    })
    return e, out, s.translateConflict(err, ledger.TableExpenses)
}

func (s *Service) UpdateExpense(ctx context.Context, id int64, patch ExpensePatch) (ledger.Expense, error) {
    defer since(s.metrics, ledger.TableExpenses)()
    var e ledger.Expense
    err := s.run(ctx, func(u *Unit) error {
        var err error
        e, err = u.UpdateExpense(ctx, id, patch)
        return err
    })
    return e, err
}

func (s *Service) DeleteExpense(ctx context.Context, id int64) error {
    defer since(s.metrics, ledger.TableExpenses)()
    return s.run(ctx, func(u *Unit) error { return u.DeleteExpense(ctx, id) })
}

// Expense fetches one expense.
func (s *Service) Expense(ctx context.Context, id int64) (ledger.Expense, error) {
    var e ledger.Expense
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        e, err = tx.GetExpense(ctx, id)
        return notFound(err, ledger.TableExpenses, id)
    })
    return e, err
}

// Expenses lists expenses, optionally filtered by year, month and category name.
func (s *Service) Expenses(ctx context.Context, year, month int, category string) ([]ledger.Expense, error) {
    var out []ledger.Expense
    err := s.read(ctx, func(tx storage.Tx) error {
        f := ledger.ListFilter{Year: year, Month: month}
        if category != "" {
            c, err := findCategory(ctx, tx, category, ledger.CategoryTypeExpense)
            if err != nil { return err }
            f.CategoryID = &c.ID
        }
        var err error
        out, err = tx.ListExpenses(ctx, f)
        return err
    })
    return out, err
}

func setCategory(e *ledger.Expense, c *ledger.Category) {
    if c == nil {
        e.CategoryID, e.CategoryName, e.CategoryLine = nil, "", nil
        return
    }
    id := c.ID
    e.CategoryID, e.CategoryName, e.CategoryLine = &id, c.Name, c.ReportLine
}
