// Package reconcile re-derives the private-paid classification of stored
// expenses from the current configuration. Manual classifications are never
// touched.
package reconcile

import (
    "context"
    "time"

    "github.com/tinoosan/euer/internal/classify"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/service/mutation"
)

// Options narrows a run. A nil Year covers every expense.
type Options struct {
    Year   *int
    DryRun bool
}

// Change is one staged or applied reclassification.
type Change struct {
    ID       int64
    Date     string
    Vendor   string
    OldPaid  bool
    OldClass ledger.PrivateClassification
    NewPaid  bool
    NewClass ledger.PrivateClassification
}

type Result struct {
    Checked       int
    Changed       int
    SkippedManual int
    Changes       []Change
}

// Engine holds the private-account labels captured when it was built, so one
// run never sees a configuration change halfway through.
type Engine struct {
    svc             *mutation.Service
    privateAccounts []string
}

func New(svc *mutation.Service) *Engine {
    return &Engine{svc: svc, privateAccounts: svc.Settings().PrivateAccounts}
}

// Run visits expenses ordered by preferred date, then id, and applies every
// changed classification in one transaction with a MIGRATE audit entry each.
// DryRun reports the same changes and writes nothing.
func (e *Engine) Run(ctx context.Context, opts Options) (Result, error) {
    start := time.Now()
    var res Result
    err := e.svc.Batch(ctx, opts.DryRun, func(u *mutation.Unit) error {
        res = Result{}
        f := ledger.ListFilter{}
        if opts.Year != nil { f.Year = *opts.Year }
        expenses, err := u.Tx().ListExpenses(ctx, f)
        if err != nil { return err }
        for _, exp := range expenses {
            res.Checked++
            if exp.PrivateClass == ledger.PrivateManual {
                res.SkippedManual++
                continue
            }
            paid, class := classify.Expense(exp.Account, exp.CategoryName, e.privateAccounts, false)
            if paid == exp.PrivatePaid && class == exp.PrivateClass { continue }
            res.Changed++
            res.Changes = append(res.Changes, Change{
                ID: exp.ID, Date: exp.Date(), Vendor: exp.Vendor,
                OldPaid: exp.PrivatePaid, OldClass: exp.PrivateClass,
                NewPaid: paid, NewClass: class,
            })
            if opts.DryRun { continue }
            if _, err := u.Reclassify(ctx, exp.ID, paid, class); err != nil { return err }
        }
        return nil
    })
    if err != nil { return Result{}, err }

    m := e.svc.Metrics()
    m.Reconciled("unchanged", res.Checked-res.Changed-res.SkippedManual)
    m.Reconciled("skipped_manual", res.SkippedManual)
    if opts.DryRun {
        m.Reconciled("staged", res.Changed)
    } else {
        m.Reconciled("changed", res.Changed)
    }
    e.svc.Logger().Info("reconcile finished",
        "checked", res.Checked, "changed", res.Changed, "skipped_manual", res.SkippedManual,
        "dry_run", opts.DryRun, "elapsed", time.Since(start))
    return res, nil
}
