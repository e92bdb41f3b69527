package tax

import (
	"testing"

	"github.com/govalues/money"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
)

func amt(t *testing.T, s string) money.Amount {
	t.Helper()
	a, err := ledger.ParseAmount(s)
	if err != nil {
		t.Fatalf("parse %q: %v", s, err)
	}
	return a
}

func cents(a *money.Amount) int64 {
	if a == nil {
		return -1 << 62
	}
	return ledger.Minor(*a)
}

func TestStandardReverseChargeNetsToZero(t *testing.T) {
	v, err := Expense(Standard, true, amt(t, "-100.00"), nil)
	if err != nil {
		t.Fatalf("expense: %v", err)
	}
	if cents(v.Input) != 1900 || cents(v.Output) != 1900 {
		t.Fatalf("want 19.00/19.00, got %d/%d", cents(v.Input), cents(v.Output))
	}
}

func TestSmallBusinessWithoutReverseChargeIsZero(t *testing.T) {
	for _, s := range []string{"-39.99", "-100", "250.00", "0"} {
		v, err := Expense(SmallBusiness, false, amt(t, s), nil)
		if err != nil {
			t.Fatalf("expense: %v", err)
		}
		if cents(v.Input) != 0 || cents(v.Output) != 0 {
			t.Fatalf("%s: want 0/0, got %d/%d", s, cents(v.Input), cents(v.Output))
		}
	}
}

func TestExpenseTable(t *testing.T) {
	override := amt(t, "5.00")
	cases := []struct {
		name      string
		mode      Mode
		rc        bool
		override  *money.Amount
		in, out   int64
		inputNull bool
	}{
		{"sb rc derived", SmallBusiness, true, nil, 0, 1900, false},
		{"sb rc override", SmallBusiness, true, &override, 0, 500, false},
		{"sb no rc ignores override", SmallBusiness, false, &override, 0, 0, false},
		{"std rc override", Standard, true, &override, 500, 500, false},
		{"std no rc override", Standard, false, &override, 500, 0, false},
		{"std no rc unresolved", Standard, false, nil, 0, 0, true},
	}
	for _, c := range cases {
		v, err := Expense(c.mode, c.rc, amt(t, "-100"), c.override)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if c.inputNull {
			if v.Input != nil {
				t.Fatalf("%s: vat_input must stay nil, got %d", c.name, cents(v.Input))
			}
		} else if cents(v.Input) != c.in {
			t.Fatalf("%s: input got %d want %d", c.name, cents(v.Input), c.in)
		}
		if cents(v.Output) != c.out {
			t.Fatalf("%s: output got %d want %d", c.name, cents(v.Output), c.out)
		}
	}
}

func TestReverseChargeRoundingWithinACent(t *testing.T) {
	got := ledger.Minor(ReverseCharge(amt(t, "-39.99")))
	// 39.99 * 0.19 = 7.5981
	if got < 759 || got > 760 {
		t.Fatalf("rounding: %d", got)
	}
}

func TestFillKeepsPresetValues(t *testing.T) {
	in := amt(t, "3.00")
	v, err := FillExpense(Standard, true, amt(t, "-100"), ExpenseVAT{Input: &in})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if cents(v.Input) != 300 {
		t.Fatalf("preset input overwritten: %d", cents(v.Input))
	}
	if cents(v.Output) != 1900 {
		t.Fatalf("output should be derived: %d", cents(v.Output))
	}
	v, _ = FillExpense(Standard, false, amt(t, "-100"), ExpenseVAT{})
	if v.Input != nil || cents(v.Output) != 0 {
		t.Fatalf("standard non-rc fill: %+v", v)
	}
}

func TestIncome(t *testing.T) {
	o := amt(t, "19.00")
	v, _ := Income(SmallBusiness, &o)
	if cents(v.Output) != 0 || !v.Anomaly {
		t.Fatalf("small business must force 0 and flag override: %+v", v)
	}
	v, _ = Income(SmallBusiness, nil)
	if v.Anomaly {
		t.Fatalf("no override, no anomaly")
	}
	v, _ = Income(Standard, &o)
	if cents(v.Output) != 1900 {
		t.Fatalf("standard keeps override")
	}
	v, _ = Income(Standard, nil)
	if v.Output != nil {
		t.Fatalf("standard without override stays unresolved")
	}
	v, _ = FillIncome(Standard, &o)
	if cents(v.Output) != 1900 {
		t.Fatalf("fill keeps preset")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"small_business":   SmallBusiness,
		"Kleinunternehmer": SmallBusiness,
		"small-business":   SmallBusiness,
		" standard ":       Standard,
		"regelbesteuerung": Standard,
	} {
		got, err := ParseMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: got %q err %v", in, got, err)
		}
	}
	if _, err := ParseMode("flat"); !errs.Is(err, errs.CodeInvalidTaxMode) {
		t.Fatalf("expected invalid_tax_mode, got %v", err)
	}
	if _, err := Expense(Mode("flat"), false, amt(t, "1"), nil); !errs.Is(err, errs.CodeInvalidTaxMode) {
		t.Fatalf("expected invalid_tax_mode from Expense, got %v", err)
	}
}

func TestReverseChargeRateIsFixed(t *testing.T) {
	r := ReverseChargeRate()
	if r.String() != "0.19" {
		t.Fatalf("rate: %s", r)
	}
	if got := ledger.Minor(ReverseCharge(amt(t, "-100"))); got != 1900 {
		t.Fatalf("reverse charge: %d", got)
	}
}
