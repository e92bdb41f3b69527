package mutation

import (
    "context"
    "errors"
    "strings"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/audit"
    "github.com/tinoosan/euer/internal/errs"
    "github.com/tinoosan/euer/internal/fingerprint"
    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/storage"
)

type TransferInput struct {
    Date             string
    Type             ledger.TransferType
    Amount           money.Amount
    Description      string
    Notes            string
    RelatedExpenseID *int64
}

// TransferPatch changes a stored transfer. The type is fixed at creation.
// ClearRelatedExpense drops the link to an expense.
type TransferPatch struct {
    Date                *string
    Amount              *money.Amount
    Description         *string
    Notes               *string
    RelatedExpenseID    *int64
    ClearRelatedExpense bool
}

func (u *Unit) CreateTransfer(ctx context.Context, in TransferInput, policy DuplicatePolicy) (ledger.PrivateTransfer, Outcome, error) {
    p := ledger.PrivateTransfer{
        Date:             strings.TrimSpace(in.Date),
        Type:             in.Type,
        Amount:           in.Amount,
        Description:      strings.TrimSpace(in.Description),
        Notes:            in.Notes,
        RelatedExpenseID: in.RelatedExpenseID,
    }
    if err := u.validateTransfer(ctx, p); err != nil { return ledger.PrivateTransfer{}, Outcome{}, err }
    p.Fingerprint = fingerprint.Transfer(p)
    if id, exists, err := u.tx.TransferIDByFingerprint(ctx, p.Fingerprint); err != nil {
        return ledger.PrivateTransfer{}, Outcome{}, err
    } else if exists {
        out, err := u.duplicate(ledger.TableTransfers, id, policy)
        return ledger.PrivateTransfer{}, out, err
    }
    p, err := u.tx.InsertTransfer(ctx, p)
    if err != nil { return ledger.PrivateTransfer{}, Outcome{}, u.s.translateConflict(err, ledger.TableTransfers) }
    if err := u.writeAudit(ctx, ledger.TableTransfers, p.ID, p.UUID.String(), ledger.AuditInsert, nil, audit.Transfer(p)); err != nil {
        return ledger.PrivateTransfer{}, Outcome{}, err
    }
    u.s.log.Debug("transfer created", "id", p.ID, "type", p.Type, "fingerprint", p.Fingerprint)
    return p, Outcome{Created: true}, nil
}

func (u *Unit) UpdateTransfer(ctx context.Context, id int64, patch TransferPatch) (ledger.PrivateTransfer, error) {
    existing, err := u.tx.GetTransfer(ctx, id)
    if err != nil { return ledger.PrivateTransfer{}, notFound(err, ledger.TableTransfers, id) }
    before := audit.Transfer(existing)
    p := existing
    applyString(&p.Date, patch.Date)
    applyString(&p.Description, patch.Description)
    if patch.Notes != nil { p.Notes = *patch.Notes }
    if patch.Amount != nil { p.Amount = *patch.Amount }
    switch {
    case patch.ClearRelatedExpense:
        p.RelatedExpenseID = nil
    case patch.RelatedExpenseID != nil:
        rel := *patch.RelatedExpenseID
        p.RelatedExpenseID = &rel
    }
    if err := u.validateTransfer(ctx, p); err != nil { return ledger.PrivateTransfer{}, err }

    p.Fingerprint = fingerprint.Transfer(p)
    if p.Fingerprint != existing.Fingerprint {
        if other, exists, err := u.tx.TransferIDByFingerprint(ctx, p.Fingerprint); err != nil {
            return ledger.PrivateTransfer{}, err
        } else if exists && other != id {
            return ledger.PrivateTransfer{}, errs.New(errs.CodeDuplicate, map[string]any{"existing_id": other, "table": ledger.TableTransfers}, "update collides with #%d", other)
        }
    }
    if err := u.writeAudit(ctx, ledger.TableTransfers, p.ID, p.UUID.String(), ledger.AuditUpdate, before, audit.Transfer(p)); err != nil {
        return ledger.PrivateTransfer{}, err
    }
    if err := u.tx.UpdateTransfer(ctx, p); err != nil {
        return ledger.PrivateTransfer{}, u.s.translateConflict(err, ledger.TableTransfers)
    }
    u.s.log.Debug("transfer updated", "id", p.ID)
    return p, nil
}

func (u *Unit) DeleteTransfer(ctx context.Context, id int64) error {
    existing, err := u.tx.GetTransfer(ctx, id)
    if err != nil { return notFound(err, ledger.TableTransfers, id) }
    if err := u.tx.DeleteTransfer(ctx, id); err != nil { return notFound(err, ledger.TableTransfers, id) }
    if err := u.writeAudit(ctx, ledger.TableTransfers, id, existing.UUID.String(), ledger.AuditDelete, audit.Transfer(existing), nil); err != nil {
        return err
    }
    u.s.log.Debug("transfer deleted", "id", id)
    return nil
}

func (u *Unit) validateTransfer(ctx context.Context, p ledger.PrivateTransfer) error {
    if p.Type != ledger.TransferDeposit && p.Type != ledger.TransferWithdrawal {
        return errs.New(errs.CodeInvalidType, map[string]any{"type": string(p.Type)}, "transfer type must be deposit or withdrawal, got %q", p.Type)
    }
    if p.Date == "" { return errs.New(errs.CodeMissingDates, nil, "transfer date required") }
    if err := validateDate("date", p.Date); err != nil { return err }
    if err := validateAmounts(map[string]*money.Amount{"amount": &p.Amount}); err != nil { return err }
    if !p.Amount.IsPos() {
        return errs.New(errs.CodeInvalidAmount, map[string]any{"amount": ledger.Format(p.Amount)}, "transfer amount must be positive")
    }
    if p.Description == "" {
        return errs.New(errs.CodeInvalidDescription, nil, "transfer description required")
    }
    if p.RelatedExpenseID != nil {
        if _, err := u.tx.GetExpense(ctx, *p.RelatedExpenseID); err != nil {
            if errors.Is(err, errs.ErrNotFound) {
                return errs.New(errs.CodeExpenseNotFound, map[string]any{"id": *p.RelatedExpenseID}, "related expense #%d not found", *p.RelatedExpenseID)
            }
            return err
        }
    }
    return nil
}

func (s *Service) CreateTransfer(ctx context.Context, in TransferInput, policy DuplicatePolicy) (ledger.PrivateTransfer, Outcome, error) {
    defer since(s.metrics, ledger.TableTransfers)()
    var p ledger.PrivateTransfer
    var out Outcome
    err := s.run(ctx, func(u *Unit) error {
        var err error
        p, out, err = u.CreateTransfer(ctx, in, policy)
        return err
    })
    return p, out, s.translateConflict(err, ledger.TableTransfers)
}

func (s *Service) UpdateTransfer(ctx context.Context, id int64, patch TransferPatch) (ledger.PrivateTransfer, error) {
    defer since(s.metrics, ledger.TableTransfers)()
    var p ledger.PrivateTransfer
    err := s.run(ctx, func(u *Unit) error {
        var err error
        p, err = u.UpdateTransfer(ctx, id, patch)
        return err
    })
    return p, err
}

func (s *Service) DeleteTransfer(ctx context.Context, id int64) error {
    defer since(s.metrics, ledger.TableTransfers)()
    return s.run(ctx, func(u *Unit) error { return u.DeleteTransfer(ctx, id) })
}

func (s *Service) Transfer(ctx context.Context, id int64) (ledger.PrivateTransfer, error) {
    var p ledger.PrivateTransfer
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        p, err = tx.GetTransfer(ctx, id)
        return notFound(err, ledger.TableTransfers, id)
    })
    return p, err
}

// Transfers lists private transfers; an empty type and zero year list all.
func (s *Service) Transfers(ctx context.Context, f ledger.TransferFilter) ([]ledger.PrivateTransfer, error) {
    if f.Type != "" && f.Type != ledger.TransferDeposit && f.Type != ledger.TransferWithdrawal {
        return nil, errs.New(errs.CodeInvalidType, map[string]any{"type": string(f.Type)}, "unknown transfer type %q", f.Type)
    }
    var out []ledger.PrivateTransfer
    err := s.read(ctx, func(tx storage.Tx) error {
        var err error
        out, err = tx.ListTransfers(ctx, f)
        return err
    })
    return out, err
}
