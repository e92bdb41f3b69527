package slug

import (
	"regexp"
	"strings"
)

var reSlug = regexp.MustCompile(`^[a-z0-9_]{2,40}$`)

var umlauts = strings.NewReplacer("ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss", "Ä", "ae", "Ö", "oe", "Ü", "ue")

// IsSlug returns true if s matches ^[a-z0-9_]{2,40}$. Ledger account keys must be slugs.
func IsSlug(s string) bool {
	return reSlug.MatchString(s)
}

// Key normalizes an import column header so that "Betrag in EUR",
// "BETRAG-IN-EUR" and a BOM-prefixed "betrag_in_eur" compare equal.
func Key(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "\ufeff")
	return Slugify(umlauts.Replace(s))
}

// Slugify lowercases s, maps every rune outside [a-z0-9_] to '_', collapses
// repeats, caps the result at 40 runes and trims leading/trailing '_'.
func Slugify(s string) string {
	if s == "" {
		return s
	}
	out := make([]rune, 0, len(s))
	prevUnderscore := false
	for _, r := range strings.ToLower(s) {
		word := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if !word {
			if !prevUnderscore {
				out = append(out, '_')
				prevUnderscore = true
			}
		} else {
			out = append(out, r)
			prevUnderscore = false
		}
		if len(out) >= 40 {
			break
		}
	}
	return strings.Trim(string(out), "_")
}
