// Package audit builds the record snapshots stored in the audit log.
package audit

import (
    "bytes"
    "encoding/json"
    "reflect"
    "sort"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/ledger"
)

// State is a flat snapshot of a record with a stable JSON encoding. Values are
// plain JSON scalars (string, bool, int64, nil).
type State map[string]any

// Clone returns an independent copy.
func (s State) Clone() State {
    if s == nil { return State{} }
    out := make(State, len(s))
    for k, v := range s { out[k] = v }
    return out
}

// Diff returns the sorted keys whose values differ between s and other.
func (s State) Diff(other State) []string {
    keys := map[string]struct{}{}
    for k := range s { keys[k] = struct{}{} }
    for k := range other { keys[k] = struct{}{} }
    out := make([]string, 0)
    for k := range keys {
        if !reflect.DeepEqual(s[k], other[k]) { out = append(out, k) }
    }
    sort.Strings(out)
    return out
}

// MarshalStableJSON returns a deterministic JSON representation with keys sorted.
func (s State) MarshalStableJSON() ([]byte, error) {
    if len(s) == 0 { return []byte("{}"), nil }
    keys := make([]string, 0, len(s))
    for k := range s { keys = append(keys, k) }
    sort.Strings(keys)
    buf := &bytes.Buffer{}
    buf.WriteByte('{')
    for i, k := range keys {
        kb, _ := json.Marshal(k)
        vb, err := json.Marshal(s[k])
        if err != nil { return nil, err }
        buf.Write(kb)
        buf.WriteByte(':')
        buf.Write(vb)
        if i < len(keys)-1 { buf.WriteByte(',') }
    }
    buf.WriteByte('}')
    return buf.Bytes(), nil
}

func (s State) MarshalJSON() ([]byte, error) { return s.MarshalStableJSON() }

// Decode parses a stored snapshot. Numbers decode as float64 or json.Number
// depending on the caller; nil input yields a nil State.
func Decode(b []byte) (State, error) {
    if len(b) == 0 || bytes.Equal(b, []byte("null")) { return nil, nil }
    var s State
    dec := json.NewDecoder(bytes.NewReader(b))
    dec.UseNumber()
    if err := dec.Decode(&s); err != nil { return nil, err }
    return s, nil
}

// Encode is MarshalStableJSON for an optional state; nil encodes to nil.
func Encode(s State) ([]byte, error) {
    if s == nil { return nil, nil }
    return s.MarshalStableJSON()
}

// Expense snapshots every persisted expense column.
func Expense(e ledger.Expense) State {
    return State{
        "uuid":                   e.UUID.String(),
        "payment_date":           nullString(e.PaymentDate),
        "invoice_date":           nullString(e.InvoiceDate),
        "vendor":                 e.Vendor,
        "category_id":            nullInt(e.CategoryID),
        "amount_eur":             ledger.Format(e.Amount),
        "account":                nullString(e.Account),
        "ledger_account":         nullString(e.LedgerAccount),
        "receipt_name":           nullString(e.ReceiptName),
        "foreign_amount":         nullString(e.ForeignAmount),
        "notes":                  nullString(e.Notes),
        "is_rc":                  e.ReverseCharge,
        "vat_input":              nullAmount(e.VATInput),
        "vat_output":             nullAmount(e.VATOutput),
        "is_private_paid":        e.PrivatePaid,
        "private_classification": string(e.PrivateClass),
        "hash":                   e.Fingerprint,
    }
}

// Income snapshots every persisted income column.
func Income(i ledger.Income) State {
    return State{
        "uuid":           i.UUID.String(),
        "payment_date":   nullString(i.PaymentDate),
        "invoice_date":   nullString(i.InvoiceDate),
        "source":         i.Source,
        "category_id":    nullInt(i.CategoryID),
        "amount_eur":     ledger.Format(i.Amount),
        "ledger_account": nullString(i.LedgerAccount),
        "receipt_name":   nullString(i.ReceiptName),
        "foreign_amount": nullString(i.ForeignAmount),
        "notes":          nullString(i.Notes),
        "vat_output":     nullAmount(i.VATOutput),
        "hash":           i.Fingerprint,
    }
}

// Transfer snapshots every persisted private transfer column.
func Transfer(p ledger.PrivateTransfer) State {
    return State{
        "uuid":               p.UUID.String(),
        "date":               p.Date,
        "type":               string(p.Type),
        "amount_eur":         ledger.Format(p.Amount),
        "description":        p.Description,
        "notes":              nullString(p.Notes),
        "related_expense_id": nullInt(p.RelatedExpenseID),
        "hash":               p.Fingerprint,
    }
}

func nullString(s string) any {
    if s == "" { return nil }
    return s
}

func nullInt(v *int64) any {
    if v == nil { return nil }
    return *v
}

func nullAmount(a *money.Amount) any {
    if a == nil { return nil }
    return ledger.Format(*a)
}
