package ledger

import (
	"errors"
	"testing"
)

func TestParseAmountNotations(t *testing.T) {
	cases := map[string]int64{
		"-39.99":    -3999,
		"-39,99":    -3999,
		"1.234,56":  123456,
		"1,234.56":  123456,
		"-10":       -1000,
		" 2 500,5 ": 250050,
	}
	for in, want := range cases {
		a, err := ParseAmount(in)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got := Minor(a); got != want {
			t.Fatalf("%q: got %d want %d", in, got, want)
		}
	}
	if _, err := ParseAmount("abc"); err == nil {
		t.Fatalf("expected error for garbage input")
	}
	if _, err := ParseAmount(""); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestFormatTwoDecimals(t *testing.T) {
	a, _ := ParseAmount("-10")
	b, _ := ParseAmount("-10.00")
	if Format(a) != "-10.00" || Format(b) != "-10.00" {
		t.Fatalf("format: %s %s", Format(a), Format(b))
	}
	if Format(FromMinor(5)) != "0.05" {
		t.Fatalf("format small: %s", Format(FromMinor(5)))
	}
	if Format(FromMinor(-5)) != "-0.05" {
		t.Fatalf("format small negative: %s", Format(FromMinor(-5)))
	}
}

func TestAmountFromFloat(t *testing.T) {
	a, err := AmountFromFloat(-39.99)
	if err != nil || Minor(a) != -3999 {
		t.Fatalf("float: %v %d", err, Minor(a))
	}
}

func TestCategoryLabelAndDates(t *testing.T) {
	line := 52
	c := Category{Name: "Arbeitsmittel", ReportLine: &line}
	if c.Label() != "Arbeitsmittel (52)" {
		t.Fatalf("label: %s", c.Label())
	}
	if (Category{Name: "X"}).Label() != "X" {
		t.Fatalf("label without line")
	}
	e := Expense{InvoiceDate: "2026-01-10"}
	if e.Date() != "2026-01-10" {
		t.Fatalf("fallback to invoice date")
	}
	e.PaymentDate = "2026-01-15"
	if e.Date() != "2026-01-15" {
		t.Fatalf("payment date wins")
	}
	if !ValidDate("2026-02-28") || ValidDate("2026-02-30") || ValidDate("15.01.2026") {
		t.Fatalf("date validation")
	}
}

func TestParseAmountRejectsOverflow(t *testing.T) {
	_, err := ParseAmount("-99999999999999999.99")
	if !errors.Is(err, ErrAmountRange) {
		t.Fatalf("want ErrAmountRange, got %v", err)
	}
	if err := CheckRange(FromMinor(-9999)); err != nil {
		t.Fatalf("small amount: %v", err)
	}
}
