package mutation

import (
    "context"
    "fmt"
    "strings"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/audit"
    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/fingerprint"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/storage"
    "github.com/tinoosan/euer/internal/tax"
)

// IncomeInput carries the fields of a new income record. VAT is an override;
// VATOutput is a pre-populated value kept as is.
type IncomeInput struct {
    PaymentDate   string
    InvoiceDate   string
    Source        string
    Amount        money.Amount
    Category      string
    LedgerAccount string
    ReceiptName   string
    ForeignAmount string
    Notes         string
    VAT           *money.Amount
    VATOutput     *money.Amount
}

type IncomePatch struct {
    PaymentDate   *string
    InvoiceDate   *string
    Source        *string
    Amount        *money.Amount
    Category      *string
    LedgerAccount *string
    ReceiptName   *string
    ForeignAmount *string
    Notes         *string
    VAT           *money.Amount
}

func (u *Unit) CreateIncome(ctx context.Context, in IncomeInput, policy DuplicatePolicy) (ledger.Income, Outcome, error) {
    if err := validateDates(in.PaymentDate, in.InvoiceDate); err != nil { return ledger.Income{}, Outcome{}, err }
    if err := validateAmounts(map[string]*money.Amount{"amount": &in.Amount, "vat": in.VAT, "vat_output": in.VATOutput}); err != nil {
        return ledger.Income{}, Outcome{}, err
    }
    if err := requireText("source", in.Source); err != nil { return ledger.Income{}, Outcome{}, err }
    cat, ledgerKey, err := u.resolveCategory(ctx, in.Category, in.LedgerAccount, ledger.CategoryTypeIncome)
    if err != nil { return ledger.Income{}, Outcome{}, err }

    i := ledger.Income{
        PaymentDate:   in.PaymentDate,
        InvoiceDate:   in.InvoiceDate,
        Source:        strings.TrimSpace(in.Source),
        Amount:        in.Amount,
        LedgerAccount: ledgerKey,
        ReceiptName:   in.ReceiptName,
        ForeignAmount: in.ForeignAmount,
        Notes:         in.Notes,
    }
    setIncomeCategory(&i, cat)
    i.Fingerprint = fingerprint.Income(i)
    if id, exists, err := u.tx.IncomeIDByFingerprint(ctx, i.Fingerprint); err != nil {
        return ledger.Income{}, Outcome{}, err
    } else if exists {
        out, err := u.duplicate(ledger.TableIncome, id, policy)
        return ledger.Income{}, out, err
    }

    var vat tax.IncomeVAT
    if in.VATOutput != nil {
        vat, err = tax.FillIncome(u.s.settings.TaxMode, in.VATOutput)
    } else {
        vat, err = tax.Income(u.s.settings.TaxMode, in.VAT)
    }
    if err != nil { return ledger.Income{}, Outcome{}, err }
    i.VATOutput = vat.Output

    i, err = u.tx.InsertIncome(ctx, i)
    if err != nil { return ledger.Income{}, Outcome{}, u.s.translateConflict(err, ledger.TableIncome) }
    setIncomeCategory(&i, cat)
    if err := u.writeAudit(ctx, ledger.TableIncome, i.ID, i.UUID.String(), ledger.AuditInsert, nil, audit.Income(i)); err != nil {
        return ledger.Income{}, Outcome{}, err
    }
    out := Outcome{Created: true}
    if vat.Anomaly { out.Warnings = append(out.Warnings, u.anomaly(i.ID, in.VAT, in.VATOutput)) }
    u.s.log.Debug("income created", "id", i.ID, "fingerprint", i.Fingerprint)
    return i, out, nil
}

// UpdateIncome merges patch over the stored record. Output VAT is recomputed
// only when the amount changed or an override was given.
func (u *Unit) UpdateIncome(ctx context.Context, id int64, patch IncomePatch) (ledger.Income, Outcome, error) {
    if err := validateAmounts(map[string]*money.Amount{"amount": patch.Amount, "vat": patch.VAT}); err != nil { return ledger.Income{}, Outcome{}, err }
    existing, err := u.tx.GetIncome(ctx, id)
    if err != nil { return ledger.Income{}, Outcome{}, notFound(err, ledger.TableIncome, id) }
    before := audit.Income(existing)
    i := existing

    applyString(&i.PaymentDate, patch.PaymentDate)
    applyString(&i.InvoiceDate, patch.InvoiceDate)
    applyString(&i.Source, patch.Source)
    applyString(&i.ReceiptName, patch.ReceiptName)
    applyString(&i.ForeignAmount, patch.ForeignAmount)
    applyString(&i.Notes, patch.Notes)
    if patch.Amount != nil { i.Amount = *patch.Amount }
    if err := validateDates(i.PaymentDate, i.InvoiceDate); err != nil { return ledger.Income{}, Outcome{}, err }
    if err := requireText("source", i.Source); err != nil { return ledger.Income{}, Outcome{}, err }

    if patch.LedgerAccount != nil || patch.Category != nil {
        cat, key, err := u.resolveCategory(ctx, deref(patch.Category), deref(patch.LedgerAccount), ledger.CategoryTypeIncome)
        if err != nil { return ledger.Income{}, Outcome{}, err }
        if cat != nil || (patch.Category != nil && strings.TrimSpace(*patch.Category) == "") {
            setIncomeCategory(&i, cat)
        }
        if patch.LedgerAccount != nil { i.LedgerAccount = key }
    }

    i.Fingerprint = fingerprint.Income(i)
    if i.Fingerprint != existing.Fingerprint {
        if other, exists, err := u.tx.IncomeIDByFingerprint(ctx, i.Fingerprint); err != nil {
            return ledger.Income{}, Outcome{}, err
        } else if exists && other != id {
            return ledger.Income{}, Outcome{}, errs.New(errs.CodeDuplicate, map[string]any{"existing_id": other, "table": ledger.TableIncome}, "update collides with #%d", other)
        }
    }

    var out Outcome
    amountChanged := patch.Amount != nil && ledger.Minor(*patch.Amount) != ledger.Minor(existing.Amount)
    if amountChanged || patch.VAT != nil {
        vat, err := tax.Income(u.s.settings.TaxMode, patch.VAT)
        if err != nil { return ledger.Income{}, Outcome{}, err }
        if vat.Output == nil && patch.VAT == nil { vat.Output = existing.VATOutput }
        i.VATOutput = vat.Output
        if vat.Anomaly { out.Warnings = append(out.Warnings, u.anomaly(id, patch.VAT, nil)) }
    }

    if err := u.writeAudit(ctx, ledger.TableIncome, i.ID, i.UUID.String(), ledger.AuditUpdate, before, audit.Income(i)); err != nil {
        return ledger.Income{}, Outcome{}, err
    }
    if err := u.tx.UpdateIncome(ctx, i); err != nil {
        return ledger.Income{}, Outcome{}, u.s.translateConflict(err, ledger.TableIncome)
    }
    u.s.log.Debug("income updated", "id", i.ID, "changed", before.Diff(audit.Income(i)))
    return i, out, nil
}

func (u *Unit) DeleteIncome(ctx context.Context, id int64) error {
    existing, err := u.tx.GetIncome(ctx, id)
    if err != nil { return notFound(err, ledger.TableIncome, id) }
    if err := u.tx.DeleteIncome(ctx, id); err != nil { return notFound(err, ledger.TableIncome, id) }
    if err := u.writeAudit(ctx, ledger.TableIncome, id, existing.UUID.String(), ledger.AuditDelete, audit.Income(existing), nil); err != nil {
        return err
    }
    u.s.log.Debug("income deleted", "id", id)
    return nil
}

// anomaly logs a VAT value that small-business mode replaced with zero.
func (u *Unit) anomaly(id int64, override, preset *money.Amount) string {
    v := override
    if v == nil { v = preset }
    msg := fmt.Sprintf("income #%d: VAT %s ignored under %s", id, ledger.Format(*v), u.s.settings.TaxMode)
    if preset != nil && override == nil {
        msg = fmt.Sprintf("income #%d: VAT %s recorded under %s", id, ledger.Format(*v), u.s.settings.TaxMode)
    }
    u.s.log.Warn("vat anomaly", "table", ledger.TableIncome, "id", id, "vat", ledger.Format(*v), "tax_mode", string(u.s.settings.TaxMode))
    return msg
}

func (s *Service) CreateIncome(ctx context.Context, in IncomeInput, policy DuplicatePolicy) (ledger.Income, Outcome, error) {
    defer since(s.metrics, ledger.TableIncome)()
    var i ledger.Income
    var out Outcome
    err := s.run(ctx, func(u *Unit) error {
        var err error
        i, out, err = u.CreateIncome(ctx, in, policy)
        return err
    })
    return i, out, s.translateConflict(err, ledger.TableIncome)
}

func (s *Service) UpdateIncome(ctx context.Context, id int64, patch IncomePatch) (ledger.Income, Outcome, error) {
    defer since(s.metrics, ledger.TableIncome)()
    var i ledger.Income
    var out Outcome
    err := s.run(ctx, func(u *Unit) error {
        var err error
        i, out, err = u.UpdateIncome(ctx, id, patch)
        return err
    })
    return i, out, err
}

func (s *Service) DeleteIncome(ctx context.Context, id int64) error {
    defer since(s.metrics, ledger.TableIncome)()
    return s.run(ctx, func(u *Unit) error { return u.DeleteIncome(ctx, id) })
}

func (s *Service) Income(ctx context.Context, id int64) (ledger.Income, error) {
    var i ledger.Income
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        i, err = tx.GetIncome(ctx, id)
        return notFound(err, ledger.TableIncome, id)
    })
    return i, err
}

// IncomeList lists income records, optionally filtered by year, month and
// category name.
func (s *Service) IncomeList(ctx context.Context, year, month int, category string) ([]ledger.Income, error) {
    var out []ledger.Income
    err := s.read(ctx, func(tx storage.Tx) error {
        f := ledger.ListFilter{Year: year, Month: month}
        if category != "" {
            c, err := findCategory(ctx, tx, category, ledger.CategoryTypeIncome)
            if err != nil { return err }
            f.CategoryID = &c.ID
        }
        var err error
        out, err = tx.ListIncome(ctx, f)
        return err
    })
    return out, err
}

func setIncomeCategory(i *ledger.Income, c *ledger.Category) {
    if c == nil {
        i.CategoryID, i.CategoryName, i.CategoryLine = nil, "", nil
        return
    }
    id := c.ID
    i.CategoryID, i.CategoryName, i.CategoryLine = &id, c.Name, c.ReportLine
}
