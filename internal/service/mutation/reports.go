package mutation

import (
    "context"
    "sort"
    "strings"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/dictionary"
    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/storage"
    "github.com/tinoosan/euer/internal/tax"
)

// PrivateSummary totals the money moved between private and business funds.
// DepositsInKind is the sum of |amount| of private-paid expenses.
type PrivateSummary struct {
    Year           int
    DepositsDirect money.Amount
    DepositsInKind money.Amount
    DepositsTotal  money.Amount
    Withdrawals    money.Amount
    Balance        money.Amount
}

// CategoryTotal is the booked sum of one category.
type CategoryTotal struct {
    Name       string
    ReportLine *int
    Total      money.Amount
}

// Label renders the category like ledger.Category.Label.
func (c CategoryTotal) Label() string {
    return ledger.Category{Name: c.Name, ReportLine: c.ReportLine}.Label()
}

// Summary is the yearly profit statement. Expense totals are negative, so
// Result is income plus expenses. VATPayable is output minus input; negative
// means a refund.
type Summary struct {
    Year         int
    TaxMode      tax.Mode
    Expenses     []CategoryTotal
    Income       []CategoryTotal
    ExpenseTotal money.Amount
    IncomeTotal  money.Amount
    Result       money.Amount
    VATInput     money.Amount
    VATOutput    money.Amount
    VATPayable   money.Amount
}

// IncompleteEntry is a booking with fields still to fill in.
type IncompleteEntry struct {
    ID           int64
    Type         ledger.CategoryType
    PaymentDate  string
    InvoiceDate  string
    Party        string
    CategoryName string
    Amount       money.Amount
    Account      string
    ReceiptName  string
    Notes        string
    Missing      []string
}

func (s *Service) PrivateSummary(ctx context.Context, year int) (PrivateSummary, error) {
    var direct, inKind, withdrawals int64
    err := s.read(ctx, func(tx storage.Tx) error {
        transfers, err := tx.ListTransfers(ctx, ledger.TransferFilter{Year: year})
        if err != nil { return err }
        for _, p := range transfers {
            if p.Type == ledger.TransferDeposit {
                direct += ledger.Minor(p.Amount)
            } else {
                withdrawals += ledger.Minor(p.Amount)
            }
        }
        expenses, err := tx.ListExpenses(ctx, ledger.ListFilter{Year: year})
        if err != nil { return err }
        for _, e := range expenses {
            if e.PrivatePaid { inKind += abs(ledger.Minor(e.Amount)) }
        }
        return nil
    })
    if err != nil { return PrivateSummary{}, err }
    return PrivateSummary{
        Year:           year,
        DepositsDirect: ledger.FromMinor(direct),
        DepositsInKind: ledger.FromMinor(inKind),
        DepositsTotal:  ledger.FromMinor(direct + inKind),
        Withdrawals:    ledger.FromMinor(withdrawals),
        Balance:        ledger.FromMinor(direct + inKind - withdrawals),
    }, nil
}

func (s *Service) Summary(ctx context.Context, year int) (Summary, error) {
    out := Summary{Year: year, TaxMode: s.settings.TaxMode}
    var expTotal, incTotal, vatIn, vatOut int64
    err := s.read(ctx, func(tx storage.Tx) error {
        expenses, err := tx.ListExpenses(ctx, ledger.ListFilter{Year: year})
        if err != nil { return err }
        exp := newTotals()
        for _, e := range expenses {
            vatIn += minorOrZero(e.VATInput)
            vatOut += minorOrZero(e.VATOutput)
            if e.CategoryID == nil { continue }
            exp.add(*e.CategoryID, e.CategoryName, e.CategoryLine, ledger.Minor(e.Amount))
            expTotal += ledger.Minor(e.Amount)
        }
        income, err := tx.ListIncome(ctx, ledger.ListFilter{Year: year})
        if err != nil { return err }
        inc := newTotals()
        for _, i := range income {
            vatOut += minorOrZero(i.VATOutput)
            if i.CategoryID == nil { continue }
            inc.add(*i.CategoryID, i.CategoryName, i.CategoryLine, ledger.Minor(i.Amount))
            incTotal += ledger.Minor(i.Amount)
        }
        out.Expenses, out.Income = exp.sorted(), inc.sorted()
        return nil
    })
    if err != nil { return Summary{}, err }
    out.ExpenseTotal = ledger.FromMinor(expTotal)
    out.IncomeTotal = ledger.FromMinor(incTotal)
    out.Result = ledger.FromMinor(incTotal + expTotal)
    out.VATInput = ledger.FromMinor(vatIn)
    out.VATOutput = ledger.FromMinor(vatOut)
    out.VATPayable = ledger.FromMinor(vatOut - vatIn)
    return out, nil
}

// Incomplete lists bookings missing dates, category, receipt, account or VAT,
// newest first. typ nil covers both expenses and income; year 0 covers all.
// Paid-VAT expenses need no receipt. VAT is only required under standard
// taxation.
func (s *Service) Incomplete(ctx context.Context, typ *ledger.CategoryType, year int) ([]IncompleteEntry, error) {
    var out []IncompleteEntry
    standard := s.settings.TaxMode == tax.Standard
    err := s.read(ctx, func(tx storage.Tx) error {
        if typ == nil || *typ == ledger.CategoryTypeExpense {
            expenses, err := tx.ListExpenses(ctx, ledger.ListFilter{Year: year})
            if err != nil { return err }
            for _, e := range expenses {
                if missing := expenseMissing(e, standard); len(missing) > 0 {
                    out = append(out, IncompleteEntry{
                        ID: e.ID, Type: ledger.CategoryTypeExpense,
                        PaymentDate: e.PaymentDate, InvoiceDate: e.InvoiceDate,
                        Party: e.Vendor, CategoryName: e.CategoryName, Amount: e.Amount,
                        Account: e.Account, ReceiptName: e.ReceiptName, Notes: e.Notes,
                        Missing: missing,
                    })
                }
            }
        }
        if typ == nil || *typ == ledger.CategoryTypeIncome {
            income, err := tx.ListIncome(ctx, ledger.ListFilter{Year: year})
            if err != nil { return err }
            for _, i := range income {
                if missing := incomeMissing(i, standard); len(missing) > 0 {
                    out = append(out, IncompleteEntry{
                        ID: i.ID, Type: ledger.CategoryTypeIncome,
                        PaymentDate: i.PaymentDate, InvoiceDate: i.InvoiceDate,
                        Party: i.Source, CategoryName: i.CategoryName, Amount: i.Amount,
                        ReceiptName: i.ReceiptName, Notes: i.Notes,
                        Missing: missing,
                    })
                }
            }
        }
        return nil
    })
    if err != nil { return nil, err }
    sort.SliceStable(out, func(a, b int) bool {
        da := ledger.PreferredDate(out[a].PaymentDate, out[a].InvoiceDate)
        db := ledger.PreferredDate(out[b].PaymentDate, out[b].InvoiceDate)
        if da != db { return da > db }
        return out[a].ID > out[b].ID
    })
    return out, nil
}

func expenseMissing(e ledger.Expense, standard bool) []string {
    var missing []string
    if e.PaymentDate == "" { missing = append(missing, "payment_date") }
    if e.InvoiceDate == "" { missing = append(missing, "invoice_date") }
    if e.CategoryID == nil { missing = append(missing, "category") }
    if e.ReceiptName == "" && !dictionary.IsPaidVAT(e.CategoryName, e.CategoryLine) {
        missing = append(missing, "receipt")
    }
    if strings.TrimSpace(e.Account) == "" { missing = append(missing, "account") }
    if standard && (e.VATInput == nil || (e.ReverseCharge && e.VATOutput == nil)) {
        missing = append(missing, "vat")
    }
    return missing
}

func incomeMissing(i ledger.Income, standard bool) []string {
    var missing []string
    if i.PaymentDate == "" { missing = append(missing, "payment_date") }
    if i.InvoiceDate == "" { missing = append(missing, "invoice_date") }
    if i.CategoryID == nil { missing = append(missing, "category") }
    if i.ReceiptName == "" { missing = append(missing, "receipt") }
    if standard && i.VATOutput == nil { missing = append(missing, "vat") }
    return missing
}

// AuditTrail returns the history of one record, oldest first.
func (s *Service) AuditTrail(ctx context.Context, table string, id int64) ([]ledger.AuditEntry, error) {
    if err := validTable(table); err != nil { return nil, err }
    var out []ledger.AuditEntry
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        out, err = tx.AuditTrail(ctx, table, id)
        return err
    })
    return out, err
}

// RecentAudit returns the latest audit entries across all tables, newest first.
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]ledger.AuditEntry, error) {
    if limit <= 0 { limit = 50 }
    var out []ledger.AuditEntry
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        out, err = tx.ListAudit(ctx, limit)
        return err
    })
    return out, err
}

func validTable(table string) error {
    switch table {
    case ledger.TableExpenses, ledger.TableIncome, ledger.TableTransfers:
        return nil
    }
    return errs.New(errs.CodeInvalidType, map[string]any{"table": table,
        "valid": []string{ledger.TableExpenses, ledger.TableIncome, ledger.TableTransfers}},
        "unknown table %q", table)
}

type totals struct {
    order []int64
    byID  map[int64]*categorySum
}

type categorySum struct {
    name  string
    line  *int
    minor int64
}

func newTotals() *totals { return &totals{byID: map[int64]*categorySum{}} }

func (t *totals) add(id int64, name string, line *int, minor int64) {
    c, ok := t.byID[id]
    if !ok {
        c = &categorySum{name: name, line: line}
        t.byID[id] = c
        t.order = append(t.order, id)
    }
    c.minor += minor
}

// sorted orders by report line, then name; categories without a line go last.
func (t *totals) sorted() []CategoryTotal {
    out := make([]CategoryTotal, 0, len(t.order))
    for _, id := range t.order {
        c := t.byID[id]
        out = append(out, CategoryTotal{Name: c.name, ReportLine: c.line, Total: ledger.FromMinor(c.minor)})
    }
    sort.SliceStable(out, func(a, b int) bool {
        la, lb := out[a].ReportLine, out[b].ReportLine
        switch {
        case la == nil && lb == nil:
            return out[a].Name < out[b].Name
        case la == nil:
            return false
        case lb == nil:
            return true
        case *la != *lb:
            return *la < *lb
        }
        return out[a].Name < out[b].Name
    })
    return out
}

func minorOrZero(a *money.Amount) int64 {
    if a == nil { return 0 }
    return ledger.Minor(*a)
}

func abs(v int64) int64 {
    if v < 0 { return -v }
    return v
}
