package dictionary

import (
	"testing"

	"github.com/tinoosan/euer/internal/classify"
	"github.com/tinoosan/euer/internal/ledger"
)

func TestSeedContainsUsageContributionCategory(t *testing.T) {
	found := false
	for _, d := range Seed() {
		if d.Name == classify.UsageContributionCategory && d.Type == ledger.CategoryTypeExpense {
			found = true
		}
	}
	if !found {
		t.Fatalf("usage contribution category must be seeded")
	}
}

func TestNamesUniquePerType(t *testing.T) {
	seen := map[string]bool{}
	for _, d := range Seed() {
		k := string(d.Type) + "|" + d.Name
		if seen[k] {
			t.Fatalf("duplicate seed %s", k)
		}
		seen[k] = true
	}
	income := ledger.CategoryTypeIncome
	for _, d := range CategoriesFor(&income) {
		if d.Type != ledger.CategoryTypeIncome {
			t.Fatalf("CategoriesFor(income) returned %s", d.Type)
		}
	}
}

func TestIsPaidVAT(t *testing.T) {
	line := PaidVATLine
	other := 52
	if !IsPaidVAT("gezahlte ust ", nil) || !IsPaidVAT("Renamed", &line) || IsPaidVAT("Arbeitsmittel", &other) {
		t.Fatalf("paid VAT detection")
	}
	if (CategoryDef{Name: "x"}).ReportLine() != nil {
		t.Fatalf("zero line must map to nil")
	}
}
