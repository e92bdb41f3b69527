// Package classify decides whether an expense was paid from private funds.
package classify

import (
	"strings"

	"github.com/tinoosan/euer/internal/ledger"
)

// UsageContributionCategory is the category whose expenses are always
// contributions in kind (private vehicle use booked as a business cost).
const UsageContributionCategory = "Fahrtkosten (Nutzungseinlage)"

// Expense returns the private-paid flag and its reason. First match wins:
// manual override, usage-contribution category, private account label.
func Expense(account, category string, privateAccounts []string, manual bool) (bool, ledger.PrivateClassification) {
	if manual {
		return true, ledger.PrivateManual
	}
	if category == UsageContributionCategory {
		return true, ledger.PrivateCategoryRule
	}
	if IsPrivateAccount(account, privateAccounts) {
		return true, ledger.PrivateAccountRule
	}
	return false, ledger.PrivateNone
}

// IsPrivateAccount matches account against the configured labels, trimmed and
// case-insensitive. An empty account never matches.
func IsPrivateAccount(account string, privateAccounts []string) bool {
	a := strings.TrimSpace(account)
	if a == "" {
		return false
	}
	for _, p := range privateAccounts {
		if strings.EqualFold(a, strings.TrimSpace(p)) {
			return true
		}
	}
	return false
}
