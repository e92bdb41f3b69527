// Package importer loads batches of expense and income rows from CSV or JSON
// Lines files through the mutation service.
package importer

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/service/mutation"
    "github.com/tinoosan/euer/internal/storage"
)

// RowError names the required fields missing from one row. Index is 1-based.
type RowError struct {
    Index   int      `json:"index"`
    Missing []string `json:"missing"`
}

type Result struct {
    Total            int
    InsertedExpenses int
    InsertedIncome   int
    Duplicates       int
    Warnings         []string
    Errors           []RowError
}

type Importer struct {
    svc *mutation.Service
}

func New(svc *mutation.Service) *Importer { return &Importer{svc: svc} }

// Import validates every row first; if any lacks a required field nothing is
// written and the error carries errs.CodeMissingFields with the row errors
// under "rows". Otherwise all rows are created in one transaction, skipping
// duplicates. Category names that do not resolve are dropped. With dryRun the
// counts are computed and the transaction rolled back.
func (im *Importer) Import(ctx context.Context, raw []map[string]any, dryRun bool) (Result, error) {
    res := Result{Total: len(raw)}
    rows := make([]Row, 0, len(raw))
    for i, r := range raw {
        row := Normalize(r)
        if missing := row.Missing(); len(missing) > 0 {
            res.Errors = append(res.Errors, RowError{Index: i + 1, Missing: missing})
        }
        rows = append(rows, row)
    }
    m := im.svc.Metrics()
    if len(res.Errors) > 0 {
        m.ImportRows("rejected", len(raw))
        return res, errs.New(errs.CodeMissingFields, map[string]any{"rows": res.Errors},
            "%d of %d rows lack required fields", len(res.Errors), len(raw))
    }

    var counted Result
    err := im.svc.Batch(ctx, dryRun, func(u *mutation.Unit) error {
        counted = Result{}
        known, err := categoryNames(ctx, u.Tx())
        if err != nil { return err }
        for i, row := range rows {
            category := row.Category
            if category != "" && !known[row.Type][strings.ToLower(category)] {
                im.svc.Logger().Debug("import: unknown category dropped", "row", i+1, "category", category)
                counted.Warnings = append(counted.Warnings, fmt.Sprintf("row %d: unknown category %q dropped", i+1, category))
                category = ""
            }
            var out mutation.Outcome
            if row.Type == ledger.CategoryTypeExpense {
                _, out, err = u.CreateExpense(ctx, mutation.ExpenseInput{
                    PaymentDate:   row.PaymentDate,
                    InvoiceDate:   row.InvoiceDate,
                    Vendor:        row.Party,
                    Amount:        *row.Amount,
                    Category:      category,
                    LedgerAccount: row.LedgerAccount,
                    Account:       row.Account,
                    ReceiptName:   row.ReceiptName,
                    ForeignAmount: row.ForeignAmount,
                    Notes:         row.Notes,
                    ReverseCharge: row.ReverseCharge,
                    VATInput:      row.VATInput,
                    VATOutput:     row.VATOutput,
                    PrivatePaid:   row.PrivatePaid,
                }, mutation.SkipDuplicates)
            } else {
                _, out, err = u.CreateIncome(ctx, mutation.IncomeInput{
                    PaymentDate:   row.PaymentDate,
                    InvoiceDate:   row.InvoiceDate,
                    Source:        row.Party,
                    Amount:        *row.Amount,
                    Category:      category,
                    LedgerAccount: row.LedgerAccount,
                    ReceiptName:   row.ReceiptName,
                    ForeignAmount: row.ForeignAmount,
                    Notes:         row.Notes,
                    VATOutput:     row.VATOutput,
                }, mutation.SkipDuplicates)
            }
            if err != nil { return rowError(err, i+1) }
            counted.Warnings = append(counted.Warnings, out.Warnings...)
            switch {
            case !out.Created:
                counted.Duplicates++
            case row.Type == ledger.CategoryTypeExpense:
                counted.InsertedExpenses++
            default:
                counted.InsertedIncome++
            }
        }
        return nil
    })
    if err != nil { return res, err }

    res.InsertedExpenses, res.InsertedIncome = counted.InsertedExpenses, counted.InsertedIncome
    res.Duplicates, res.Warnings = counted.Duplicates, counted.Warnings
    if !dryRun {
        m.ImportRows("expense", res.InsertedExpenses)
        m.ImportRows("income", res.InsertedIncome)
        m.ImportRows("duplicate", res.Duplicates)
    }
    im.svc.Logger().Info("import finished", "total", res.Total, "expenses", res.InsertedExpenses,
        "income", res.InsertedIncome, "duplicates", res.Duplicates, "dry_run", dryRun)
    return res, nil
}

// categoryNames returns the lowercased category names per type.
func categoryNames(ctx context.Context, tx storage.CategoryReader) (map[ledger.CategoryType]map[string]bool, error) {
    cats, err := tx.ListCategories(ctx, nil)
    if err != nil { return nil, err }
    out := map[ledger.CategoryType]map[string]bool{
        ledger.CategoryTypeExpense: {},
        ledger.CategoryTypeIncome:  {},
    }
    for _, c := range cats { out[c.Type][strings.ToLower(c.Name)] = true }
    return out, nil
}

// rowError adds the failing row index to a typed error.
func rowError(err error, index int) error {
    var e *errs.Error
    if !errors.As(err, &e) { return err }
    details := map[string]any{"row": index}
    for k, v := range e.Details { details[k] = v }
    return &errs.Error{Code: e.Code, Message: e.Message, Details: details}
}
