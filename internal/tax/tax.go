// Package tax derives VAT amounts for expenses and income under the two
// supported regimes.
package tax

import (
	"strings"

	"github.com/govalues/decimal"
	"github.com/govalues/money"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
)

// Mode is the configured tax regime.
type Mode string

const (
	// SmallBusiness charges no VAT on ordinary transactions; reverse-charge
	// liabilities still apply.
	SmallBusiness Mode = "small_business"
	// Standard is regular VAT taxation.
	Standard Mode = "standard"
)

// reverseChargeRate is the flat rate applied to reverse-charge expenses.
const reverseChargeRate = "0.19"

// ReverseChargeRate returns the flat reverse-charge rate.
func ReverseChargeRate() decimal.Decimal { return decimal.MustParse(reverseChargeRate) }

// ParseMode normalizes a configured regime name.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "small_business", "small-business", "kleinunternehmer", "kleinunternehmerregelung":
		return SmallBusiness, nil
	case "standard", "regelbesteuerung":
		return Standard, nil
	}
	return "", errs.New(errs.CodeInvalidTaxMode, map[string]any{"tax_mode": s}, "unknown tax mode %q", s)
}

// Valid reports whether m is a known regime.
func (m Mode) Valid() bool { return m == SmallBusiness || m == Standard }

// ExpenseVAT holds the resolved input and output VAT of an expense. A nil
// field is unresolved (not yet known).
type ExpenseVAT struct {
	Input  *money.Amount
	Output *money.Amount
}

// IncomeVAT holds the resolved output VAT of an income record. Anomaly is set
// when an override was supplied under a regime that forces zero.
type IncomeVAT struct {
	Output  *money.Amount
	Anomaly bool
}

// ReverseCharge returns round(|amount| * 0.19, 2).
func ReverseCharge(amount money.Amount) money.Amount {
	v, err := amount.Abs().Mul(ReverseChargeRate())
	if err != nil {
		return ledger.Zero()
	}
	return v.RoundToCurr()
}

// Expense resolves VAT for an expense:
//
//	small_business, RC:     input 0,              output override or 19%
//	small_business, no RC:  input 0,              output 0
//	standard, RC:           input = output,       output override or 19%
//	standard, no RC:        input override or nil, output 0
func Expense(mode Mode, reverseCharge bool, amount money.Amount, override *money.Amount) (ExpenseVAT, error) {
	zero := ledger.Zero()
	switch mode {
	case SmallBusiness:
		if !reverseCharge {
			return ExpenseVAT{Input: ptr(zero), Output: ptr(zero)}, nil
		}
		return ExpenseVAT{Input: ptr(zero), Output: ptr(rcOrOverride(amount, override))}, nil
	case Standard:
		if reverseCharge {
			v := rcOrOverride(amount, override)
			return ExpenseVAT{Input: ptr(v), Output: ptr(v)}, nil
		}
		return ExpenseVAT{Input: clone(override), Output: ptr(zero)}, nil
	}
	return ExpenseVAT{}, errs.New(errs.CodeInvalidTaxMode, map[string]any{"tax_mode": string(mode)}, "unknown tax mode %q", mode)
}

// FillExpense resolves VAT without overwriting values that arrived
// pre-populated; only nil fields of preset are derived.
func FillExpense(mode Mode, reverseCharge bool, amount money.Amount, preset ExpenseVAT) (ExpenseVAT, error) {
	override := preset.Output
	if mode == Standard && !reverseCharge {
		override = preset.Input
	}
	computed, err := Expense(mode, reverseCharge, amount, override)
	if err != nil {
		return ExpenseVAT{}, err
	}
	out := ExpenseVAT{Input: clone(preset.Input), Output: clone(preset.Output)}
	if out.Input == nil {
		out.Input = computed.Input
	}
	if out.Output == nil {
		out.Output = computed.Output
	}
	return out, nil
}

// Income resolves output VAT for an income record.
func Income(mode Mode, override *money.Amount) (IncomeVAT, error) {
	switch mode {
	case SmallBusiness:
		return IncomeVAT{Output: ptr(ledger.Zero()), Anomaly: override != nil && !override.IsZero()}, nil
	case Standard:
		return IncomeVAT{Output: clone(override)}, nil
	}
	return IncomeVAT{}, errs.New(errs.CodeInvalidTaxMode, map[string]any{"tax_mode": string(mode)}, "unknown tax mode %q", mode)
}

// FillIncome keeps a pre-populated output VAT and derives it otherwise.
func FillIncome(mode Mode, preset *money.Amount) (IncomeVAT, error) {
	if preset != nil {
		if !mode.Valid() {
			return Income(mode, nil)
		}
		return IncomeVAT{Output: clone(preset), Anomaly: mode == SmallBusiness && !preset.IsZero()}, nil
	}
	return Income(mode, nil)
}

func rcOrOverride(amount money.Amount, override *money.Amount) money.Amount {
	if override != nil {
		return *override
	}
	return ReverseCharge(amount)
}

func ptr(a money.Amount) *money.Amount { return &a }

func clone(a *money.Amount) *money.Amount {
	if a == nil {
		return nil
	}
	v := *a
	return &v
}
