package importer

import (
    "encoding/json"
    "fmt"
    "regexp"
    "strconv"
    "strings"

    "github.com/govalues/money"

    "github.com/tinoosan/euer/internal/ledger"
    "github.com/tinoosan/euer/internal/slug"
)

// Row is one import record after alias resolution and parsing. A nil Amount
// means the amount was absent or unparseable.
type Row struct {
    Type          ledger.CategoryType
    PaymentDate   string
    InvoiceDate   string
    Party         string
    Category      string
    Amount        *money.Amount
    Account       string
    LedgerAccount string
    ForeignAmount string
    ReceiptName   string
    Notes         string
    ReverseCharge bool
    PrivatePaid   bool
    VATInput      *money.Amount
    VATOutput     *money.Amount
}

// aliases lists the accepted headers per field in slug form, first match wins.
var aliases = map[string][]string{
    "type":           {"type", "kind", "direction", "typ"},
    "payment_date":   {"payment_date", "date", "datum", "wertstellung"},
    "invoice_date":   {"invoice_date", "rechnungsdatum"},
    "party":          {"party", "vendor", "source", "counterparty", "lieferant", "quelle", "partei"},
    "category":       {"category", "category_name", "kategorie"},
    "amount":         {"amount_eur", "amount", "eur", "betrag", "betrag_in_eur"},
    "account":        {"account", "konto"},
    "ledger_account": {"ledger_account", "buchungskonto"},
    "foreign_amount": {"foreign_amount", "foreign", "fremdwaehrung"},
    "receipt_name":   {"receipt_name", "receipt", "belegname", "beleg"},
    "notes":          {"notes", "bemerkung", "notiz"},
    "rc":             {"rc", "is_rc"},
    "private_paid":   {"private_paid", "privat_bezahlt"},
    "vat_input":      {"vat_input", "vorsteuer", "ust_va"},
    "vat_output":     {"vat_output", "umsatzsteuer"},
}

var typeNames = map[string]ledger.CategoryType{
    "expense": ledger.CategoryTypeExpense, "expenses": ledger.CategoryTypeExpense,
    "ausgabe": ledger.CategoryTypeExpense, "ausgaben": ledger.CategoryTypeExpense,
    "debit": ledger.CategoryTypeExpense, "outflow": ledger.CategoryTypeExpense,
    "outgoing": ledger.CategoryTypeExpense,
    "income": ledger.CategoryTypeIncome, "einnahme": ledger.CategoryTypeIncome,
    "einnahmen": ledger.CategoryTypeIncome, "credit": ledger.CategoryTypeIncome,
    "inflow": ledger.CategoryTypeIncome, "incoming": ledger.CategoryTypeIncome,
}

var reportLineSuffix = regexp.MustCompile(`^(.*\S) \(\d+\)$`)

// Normalize maps a raw record onto Row. Header spelling, case, umlauts and a
// leading BOM do not matter. Without an explicit type the sign of the amount
// decides: negative is an expense, positive is income. An unrecognized type
// leaves Type empty so the row is reported as missing it.
func Normalize(raw map[string]any) Row {
    fields := make(map[string]any, len(raw))
    for k, v := range raw {
        key := slug.Key(k)
        if _, seen := fields[key]; !seen || isBlank(fields[key]) { fields[key] = v }
    }
    get := func(field string) any {
        for _, k := range aliases[field] {
            if v, ok := fields[k]; ok && !isBlank(v) { return v }
        }
        return nil
    }
    str := func(field string) string { return text(get(field)) }

    r := Row{
        PaymentDate:   str("payment_date"),
        InvoiceDate:   str("invoice_date"),
        Party:         str("party"),
        Category:      stripReportLine(str("category")),
        Amount:        amount(get("amount")),
        Account:       str("account"),
        LedgerAccount: str("ledger_account"),
        ForeignAmount: str("foreign_amount"),
        ReceiptName:   str("receipt_name"),
        Notes:         str("notes"),
        ReverseCharge: truthy(get("rc")),
        PrivatePaid:   truthy(get("private_paid")),
        VATInput:      amount(get("vat_input")),
        VATOutput:     amount(get("vat_output")),
    }
    explicit := str("type")
    r.Type = typeNames[strings.ToLower(explicit)]
    if explicit == "" && r.Amount != nil {
        switch {
        case r.Amount.IsNeg():
            r.Type = ledger.CategoryTypeExpense
        case r.Amount.IsPos():
            r.Type = ledger.CategoryTypeIncome
        }
    }
    return r
}

// Missing lists the required fields the row lacks.
func (r Row) Missing() []string {
    var missing []string
    if r.Type == "" { missing = append(missing, "type") }
    if r.PaymentDate == "" && r.InvoiceDate == "" { missing = append(missing, "payment_date|invoice_date") }
    if r.Amount == nil { missing = append(missing, "amount_eur") }
    if r.Party == "" { missing = append(missing, "party") }
    return missing
}

func stripReportLine(s string) string {
    if m := reportLineSuffix.FindStringSubmatch(s); m != nil { return m[1] }
    return s
}

func isBlank(v any) bool {
    if v == nil { return true }
    if s, ok := v.(string); ok { return strings.TrimSpace(s) == "" }
    return false
}

func text(v any) string {
    switch t := v.(type) {
    case nil:
        return ""
    case string:
        return strings.TrimSpace(t)
    case json.Number:
        return t.String()
    case float64:
        return strconv.FormatFloat(t, 'f', -1, 64)
    default:
        return strings.TrimSpace(fmt.Sprint(t))
    }
}

func amount(v any) *money.Amount {
    var (
        a   money.Amount
        err error
    )
    switch t := v.(type) {
    case nil:
        return nil
    case float64:
        a, err = ledger.AmountFromFloat(t)
    default:
        a, err = ledger.ParseAmount(text(t))
    }
    if err != nil { return nil }
    return &a
}

func truthy(v any) bool {
    if b, ok := v.(bool); ok { return b }
    switch strings.ToLower(text(v)) {
    case "1", "true", "yes", "y", "ja", "j", "x":
        return true
    }
    return false
}
