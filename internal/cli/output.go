package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/govalues/money"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/importer"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func table(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func optAmount(a *money.Amount) string {
	if a == nil {
		return "-"
	}
	return ledger.Format(*a)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func parseAmount(flag, s string) (money.Amount, error) {
	a, err := ledger.ParseAmount(s)
	if err != nil {
		return money.Amount{}, errs.New(errs.CodeInvalidAmount, map[string]any{"field": flag, "value": s}, "--%s: %v", flag, err)
	}
	return a, nil
}

// FormatError renders err for the terminal, including the details of a typed
// ledger error.
func FormatError(err error) string {
	var e *errs.Error
	if !errors.As(err, &e) || len(e.Details) == 0 {
		return "Error: " + err.Error()
	}
	var b strings.Builder
	b.WriteString("Error: " + err.Error())
	keys := make([]string, 0, len(e.Details))
	for k := range e.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := e.Details[k].(type) {
		case []string:
			fmt.Fprintf(&b, "\n  %s:", k)
			for _, s := range v {
				fmt.Fprintf(&b, "\n    - %s", s)
			}
		case []importer.RowError:
			fmt.Fprintf(&b, "\n  %s:", k)
			for _, r := range v {
				fmt.Fprintf(&b, "\n    row %d: %s", r.Index, strings.Join(r.Missing, ", "))
			}
		default:
			fmt.Fprintf(&b, "\n  %s: %v", k, v)
		}
	}
	return b.String()
}
