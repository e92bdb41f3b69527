package ledger

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/govalues/money"
)

// Currency is the only currency the ledger books in.
const Currency = "EUR"

// DateLayout is the canonical on-disk date format.
const DateLayout = "2006-01-02"

// Zero returns 0.00 EUR.
func Zero() money.Amount { return money.MustNewAmount(Currency, 0, 2) }

// FromMinor converts cents to an amount.
func FromMinor(units int64) money.Amount {
	a, err := money.NewAmountFromMinorUnits(Currency, units)
	if err != nil {
		return Zero()
	}
	return a
}

// ErrAmountRange reports an amount whose cents do not fit in an int64.
var ErrAmountRange = errors.New("amount out of range")

// CheckRange fails with ErrAmountRange when a cannot be stored as cents.
func CheckRange(a money.Amount) error {
	if _, ok := a.RoundToCurr().MinorUnits(); !ok {
		return fmt.Errorf("%w: %s", ErrAmountRange, a.Decimal())
	}
	return nil
}

// Minor returns the amount in cents, rounded to the currency scale. Amounts
// that fail CheckRange yield 0; callers validate before storing.
func Minor(a money.Amount) int64 {
	u, _ := a.MinorUnits()
	return u
}

// MinorPtr converts an optional amount for storage.
func MinorPtr(a *money.Amount) *int64 {
	if a == nil {
		return nil
	}
	u := Minor(*a)
	return &u
}

// FromMinorPtr converts an optional stored amount.
func FromMinorPtr(u *int64) *money.Amount {
	if u == nil {
		return nil
	}
	a := FromMinor(*u)
	return &a
}

// Format renders an amount with exactly two decimals and no currency code,
// e.g. "-10.00". Representations of the same value format identically.
func Format(a money.Amount) string {
	u := Minor(a)
	sign := ""
	if u < 0 {
		sign = "-"
		u = -u
	}
	return fmt.Sprintf("%s%d.%02d", sign, u/100, u%100)
}

// ParseAmount reads a decimal number in either point or comma notation:
// "1.234,56", "1,234.56", "-39,99" and "-39.99" are all accepted.
func ParseAmount(s string) (money.Amount, error) {
	text := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if text == "" {
		return money.Amount{}, fmt.Errorf("empty amount")
	}
	hasComma := strings.Contains(text, ",")
	hasDot := strings.Contains(text, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(text, ",") > strings.LastIndex(text, ".") {
			text = strings.ReplaceAll(text, ".", "")
			text = strings.ReplaceAll(text, ",", ".")
		} else {
			text = strings.ReplaceAll(text, ",", "")
		}
	case hasComma:
		text = strings.ReplaceAll(text, ",", ".")
	}
	a, err := money.ParseAmount(Currency, text)
	if err != nil {
		return money.Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	a = a.RoundToCurr()
	if err := CheckRange(a); err != nil {
		return money.Amount{}, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return a, nil
}

// AmountFromFloat converts a float read from a decoded document.
func AmountFromFloat(f float64) (money.Amount, error) {
	return ParseAmount(strconv.FormatFloat(f, 'f', -1, 64))
}

// ValidDate reports whether s is a YYYY-MM-DD calendar date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
