// Package fingerprint derives the content hash used to detect duplicate
// bookings. Two records with the same date, counterparty, amount and receipt
// name are the same transaction.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/govalues/money"

	"github.com/tinoosan/euer/internal/ledger"
)

// Compute returns the hex sha256 of "date|counterparty|amount|receipt" with
// the amount rendered to exactly two decimals.
func Compute(date, counterparty string, amount money.Amount, receipt string) string {
	sum := sha256.Sum256([]byte(date + "|" + counterparty + "|" + ledger.Format(amount) + "|" + receipt))
	return hex.EncodeToString(sum[:])
}

// Expense fingerprints an expense by its preferred date.
func Expense(e ledger.Expense) string {
	return Compute(e.Date(), e.Vendor, e.Amount, e.ReceiptName)
}

// Income fingerprints an income record by its preferred date.
func Income(i ledger.Income) string {
	return Compute(i.Date(), i.Source, i.Amount, i.ReceiptName)
}

// Transfer fingerprints a private transfer; transfers carry no receipt.
func Transfer(p ledger.PrivateTransfer) string {
	return Compute(p.Date, p.Description, p.Amount, "")
}
