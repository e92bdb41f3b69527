package dictionary

import (
	"strings"

	"github.com/tinoosan/euer/internal/ledger"
)

// CategoryDef is a seeded booking category. Line is the report line of the
// annual profit statement, 0 when the category is not reported on its own line.
type CategoryDef struct {
	Name string              `json:"name"`
	Line int                 `json:"line,omitempty"`
	Type ledger.CategoryType `json:"type"`
}

// PaidVATLine is the report line for VAT paid to the tax office. Bookings on
// it need no receipt.
const PaidVATLine = 58

var curated = map[ledger.CategoryType][]CategoryDef{
	ledger.CategoryTypeExpense: {
		{Name: "Telekommunikation", Line: 44, Type: ledger.CategoryTypeExpense},
		{Name: "Laufende EDV-Kosten", Line: 51, Type: ledger.CategoryTypeExpense},
		{Name: "Arbeitsmittel", Line: 52, Type: ledger.CategoryTypeExpense},
		{Name: "Werbekosten", Line: 54, Type: ledger.CategoryTypeExpense},
		{Name: "Gezahlte USt", Line: PaidVATLine, Type: ledger.CategoryTypeExpense},
		{Name: "Übrige Betriebsausgaben", Line: 60, Type: ledger.CategoryTypeExpense},
		{Name: "Bewirtungsaufwendungen", Line: 63, Type: ledger.CategoryTypeExpense},
		{Name: "Fahrtkosten (Nutzungseinlage)", Type: ledger.CategoryTypeExpense},
	},
	ledger.CategoryTypeIncome: {
		{Name: "Umsatzsteuerpflichtige Betriebseinnahmen", Line: 14, Type: ledger.CategoryTypeIncome},
		{Name: "Sonstige betriebsfremde Einnahme", Type: ledger.CategoryTypeIncome},
	},
}

// Seed returns every curated category, expenses first.
func Seed() []CategoryDef {
	out := make([]CategoryDef, 0, len(curated[ledger.CategoryTypeExpense])+len(curated[ledger.CategoryTypeIncome]))
	out = append(out, curated[ledger.CategoryTypeExpense]...)
	return append(out, curated[ledger.CategoryTypeIncome]...)
}

// CategoriesFor returns the curated categories of one type, or all when t is nil.
func CategoriesFor(t *ledger.CategoryType) []CategoryDef {
	if t == nil {
		return Seed()
	}
	return append([]CategoryDef(nil), curated[*t]...)
}

// IsPaidVAT reports whether a category books VAT paid to the tax office.
func IsPaidVAT(name string, line *int) bool {
	if strings.EqualFold(strings.TrimSpace(name), "Gezahlte USt") {
		return true
	}
	return line != nil && *line == PaidVATLine
}

// ReportLine returns the optional line as a pointer for storage.
func (d CategoryDef) ReportLine() *int {
	if d.Line == 0 {
		return nil
	}
	l := d.Line
	return &l
}
