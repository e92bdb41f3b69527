// Package mutation is the only write path for expenses, income and private
// transfers. Every operation resolves its category, classifies, derives tax,
// checks the fingerprint, writes the record and appends one audit row inside a
// single transaction.
package mutation

import (
    "context"
    "errors"
    "fmt"
    "io"
    "log/slog"
    "strings"
    "time"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/audit"
    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/metrics"
    "github.com/tinoosan/euer/internal/storage"
    "github.com/tinoosan/euer/internal/tax"
)

// DuplicatePolicy selects what a create does when the fingerprint exists.
type DuplicatePolicy int

const (
    // RaiseOnDuplicate fails with errs.CodeDuplicate.
    RaiseOnDuplicate DuplicatePolicy = iota
    // SkipDuplicates turns the create into a no-op.
    SkipDuplicates
)

func (p DuplicatePolicy) String() string {
    if p == SkipDuplicates { return "skip" }
    return "raise"
}

// Settings are the configuration values every operation depends on. They are
// copied at construction so a running batch sees one consistent snapshot.
type Settings struct {
    TaxMode         tax.Mode
    PrivateAccounts []string
    LedgerAccounts  []ledger.LedgerAccount
    User            string
}

func (s Settings) clone() Settings {
    out := s
    out.PrivateAccounts = append([]string(nil), s.PrivateAccounts...)
    out.LedgerAccounts = append([]ledger.LedgerAccount(nil), s.LedgerAccounts...)
    return out
}

// Outcome describes a create. Created is false when a duplicate was skipped,
// in which case ExistingID names the colliding row.
type Outcome struct {
    Created    bool
    ExistingID int64
    Warnings   []string
}

// Service runs mutations against a store.
type Service struct {
    store    storage.Store
    settings Settings
    log      *slog.Logger
    metrics  *metrics.Metrics
}

type Option func(*Service)

func WithLogger(l *slog.Logger) Option { return func(s *Service) { if l != nil { s.log = l } } }

func WithMetrics(m *metrics.Metrics) Option { return func(s *Service) { s.metrics = m } }

// New validates settings and returns a Service. An unknown tax mode fails
// with errs.CodeInvalidTaxMode.
func New(store storage.Store, settings Settings, opts ...Option) (*Service, error) {
    mode, err := tax.ParseMode(string(settings.TaxMode))
    if err != nil { return nil, err }
    settings = settings.clone()
    settings.TaxMode = mode
    if strings.TrimSpace(settings.User) == "" { settings.User = "euer" }
    s := &Service{store: store, settings: settings, log: slog.New(slog.NewTextHandler(io.Discard, nil))}
    for _, o := range opts { o(s) }
    return s, nil
}

// Settings returns a copy of the active settings.
func (s *Service) Settings() Settings { return s.settings.clone() }

// Logger returns the service logger so collaborators log the same way.
func (s *Service) Logger() *slog.Logger { return s.log }

// Metrics returns the configured collectors (possibly nil).
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Unit is a set of operations bound to one open transaction.
type Unit struct {
    s       *Service
    tx      storage.Tx
    pending []func()
}

// errDryRun aborts a batch after its function succeeded.
var errDryRun = errors.New("dry run")

// Batch runs fn inside one transaction. Any error rolls everything back. With
// dryRun the transaction is rolled back after fn succeeds.
func (s *Service) Batch(ctx context.Context, dryRun bool, fn func(u *Unit) error) error {
    err := s.run(ctx, func(u *Unit) error {
        if err := fn(u); err != nil { return err }
        if dryRun { return errDryRun }
        return nil
    })
    if errors.Is(err, errDryRun) { return nil }
    return err
}

func (s *Service) run(ctx context.Context, fn func(u *Unit) error) error {
    tx, err := s.store.BeginTx(ctx)
    if err != nil { return fmt.Errorf("begin: %w", err) }
    u := &Unit{s: s, tx: tx}
    if err := fn(u); err != nil {
        _ = tx.Rollback(ctx)
        return err
    }
    if err := tx.Commit(ctx); err != nil {
        _ = tx.Rollback(ctx)
        return s.translateConflict(fmt.Errorf("commit: %w", err), "")
    }
    for _, f := range u.pending { f() }
    return nil
}

// read runs fn in a transaction that is always rolled back.
func (s *Service) read(ctx context.Context, fn func(tx storage.Tx) error) error {
    tx, err := s.store.BeginTx(ctx)
    if err != nil { return fmt.Errorf("begin: %w", err) }
    defer func() { _ = tx.Rollback(ctx) }()
    return fn(tx)
}

// Tx exposes the underlying transaction for read access inside a batch.
func (u *Unit) Tx() storage.Tx { return u.tx }

// writeAudit appends one audit row for a mutation and schedules its metric.
func (u *Unit) writeAudit(ctx context.Context, table string, id int64, recordUUID string, action ledger.AuditAction, before, after audit.State) error {
    oldState, err := audit.Encode(before)
    if err != nil { return fmt.Errorf("encode audit state: %w", err) }
    newState, err := audit.Encode(after)
    if err != nil { return fmt.Errorf("encode audit state: %w", err) }
    if _, err := u.tx.AppendAudit(ctx, ledger.AuditEntry{
        Table:      table,
        RecordID:   id,
        RecordUUID: recordUUID,
        Action:     action,
        OldState:   oldState,
        NewState:   newState,
        User:       u.s.settings.User,
    }); err != nil {
        return err
    }
    m := u.s.metrics
    u.pending = append(u.pending, func() { m.Mutation(table, string(action)) })
    return nil
}

// translateConflict turns a store uniqueness violation into a duplicate error.
func (s *Service) translateConflict(err error, table string) error {
    if err == nil || !errors.Is(err, errs.ErrConflict) || errs.CodeOf(err) != "" { return err }
    return errs.New(errs.CodeDuplicate, map[string]any{"table": table}, "fingerprint already exists")
}

// duplicate handles a fingerprint collision according to policy.
func (u *Unit) duplicate(table string, existingID int64, policy DuplicatePolicy) (Outcome, error) {
    u.s.metrics.Duplicate(table, policy.String())
    if policy == SkipDuplicates {
        u.s.log.Debug("duplicate skipped", "table", table, "existing_id", existingID)
        return Outcome{ExistingID: existingID}, nil
    }
    return Outcome{ExistingID: existingID}, errs.New(errs.CodeDuplicate, map[string]any{"existing_id": existingID, "table": table}, "duplicate of #%d", existingID)
}

func validateDates(payment, invoice string) error {
    if payment == "" && invoice == "" {
        return errs.New(errs.CodeMissingDates, nil, "payment date or invoice date required")
    }
    if err := validateDate("payment_date", payment); err != nil { return err }
    return validateDate("invoice_date", invoice)
}

func validateDate(field, d string) error {
    if d != "" && !ledger.ValidDate(d) {
        return errs.New(errs.CodeInvalidDate, map[string]any{"field": field, "value": d}, "%s %q is not YYYY-MM-DD", field, d)
    }
    return nil
}

// validateAmounts rejects amounts that cannot be stored as cents. Nil
// entries are skipped.
func validateAmounts(fields map[string]*money.Amount) error {
    for field, a := range fields {
        if a == nil { continue }
        if err := ledger.CheckRange(*a); err != nil {
            return errs.New(errs.CodeInvalidAmount, map[string]any{"field": field, "value": a.Decimal().String()}, "%s is out of range", field)
        }
    }
    return nil
}

func requireText(field, value string) error {
    if strings.TrimSpace(value) == "" {
        return errs.New(errs.CodeMissingFields, map[string]any{"fields": []string{field}}, "%s is required", field)
    }
    return nil
}

func since(m *metrics.Metrics, table string) func() {
    start := time.Now()
    return func() { m.Observe(table, start) }
}

// notFound tags a bare store ErrNotFound with errs.CodeNotFound.
func notFound(err error, table string, id int64) error {
    if err == nil || !errors.Is(err, errs.ErrNotFound) || errs.CodeOf(err) != "" { return err }
    return errs.New(errs.CodeNotFound, map[string]any{"table": table, "id": id}, "%s #%d not found", table, id)
}

func applyString(dst *string, v *string) { if v != nil { *dst = strings.TrimSpace(*v) } }

func deref(p *string) string {
    if p == nil { return "" }
    return *p
}

func sameID(a, b *int64) bool {
    if a == nil || b == nil { return a == b }
    return *a == *b
}
