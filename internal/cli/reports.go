package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/mutation"
)

func currentYear() int { return time.Now().Year() }

func (a *app) summaryCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:     "summary",
		Short:   "Profit statement for one year, by category",
		Example: "  euer summary --year 2025",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			s, err := a.svc.Summary(cmd.Context(), year)
			if err != nil {
				return err
			}
			if a.jsonOut {
				lines := func(in []mutation.CategoryTotal) []map[string]any {
					out := make([]map[string]any, 0, len(in))
					for _, c := range in {
						out = append(out, map[string]any{"category": c.Name, "report_line": c.ReportLine, "total_eur": ledger.Format(c.Total)})
					}
					return out
				}
				return writeJSON(a.out(cmd), map[string]any{
					"year": s.Year, "tax_mode": string(s.TaxMode),
					"expenses": lines(s.Expenses), "income": lines(s.Income),
					"expense_total_eur": ledger.Format(s.ExpenseTotal),
					"income_total_eur":  ledger.Format(s.IncomeTotal),
					"result_eur":        ledger.Format(s.Result),
					"vat_input_eur":     ledger.Format(s.VATInput),
					"vat_output_eur":    ledger.Format(s.VATOutput),
					"vat_payable_eur":   ledger.Format(s.VATPayable),
				})
			}
			w := table(a.out(cmd))
			fmt.Fprintf(w, "EÜR %d (%s)\n\nINCOME\t\n", s.Year, s.TaxMode)
			for _, c := range s.Income {
				fmt.Fprintf(w, "  %s\t%s\n", c.Label(), ledger.Format(c.Total))
			}
			fmt.Fprintf(w, "Total income\t%s\n\nEXPENSES\t\n", ledger.Format(s.IncomeTotal))
			for _, c := range s.Expenses {
				fmt.Fprintf(w, "  %s\t%s\n", c.Label(), ledger.Format(c.Total))
			}
			fmt.Fprintf(w, "Total expenses\t%s\n\nResult\t%s\n\n", ledger.Format(s.ExpenseTotal), ledger.Format(s.Result))
			fmt.Fprintf(w, "VAT input\t%s\nVAT output\t%s\nVAT payable\t%s\n",
				ledger.Format(s.VATInput), ledger.Format(s.VATOutput), ledger.Format(s.VATPayable))
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&year, "year", currentYear(), "tax year")
	return cmd
}

func (a *app) privateSummaryCmd() *cobra.Command {
	var year int
	cmd := &cobra.Command{
		Use:   "private-summary",
		Short: "Private deposits and withdrawals for one year",
		Long: `Deposits include direct transfers into the business and expenses paid
from private funds (deposits in kind). The balance is deposits minus withdrawals.`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			p, err := a.svc.PrivateSummary(cmd.Context(), year)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), map[string]any{
					"year":                 p.Year,
					"deposits_direct_eur":  ledger.Format(p.DepositsDirect),
					"deposits_in_kind_eur": ledger.Format(p.DepositsInKind),
					"deposits_total_eur":   ledger.Format(p.DepositsTotal),
					"withdrawals_eur":      ledger.Format(p.Withdrawals),
					"balance_eur":          ledger.Format(p.Balance),
				})
			}
			w := table(a.out(cmd))
			fmt.Fprintf(w, "Private transfers %d\n", p.Year)
			fmt.Fprintf(w, "Deposits (direct)\t%s\n", ledger.Format(p.DepositsDirect))
			fmt.Fprintf(w, "Deposits (in kind)\t%s\n", ledger.Format(p.DepositsInKind))
			fmt.Fprintf(w, "Deposits total\t%s\n", ledger.Format(p.DepositsTotal))
			fmt.Fprintf(w, "Withdrawals\t%s\n", ledger.Format(p.Withdrawals))
			fmt.Fprintf(w, "Balance\t%s\n", ledger.Format(p.Balance))
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&year, "year", currentYear(), "tax year")
	return cmd
}

func (a *app) incompleteCmd() *cobra.Command {
	var (
		year int
		typ  string
	)
	cmd := &cobra.Command{
		Use:     "incomplete",
		Short:   "List bookings with missing dates, category, receipt, account or VAT",
		Example: "  euer incomplete --type expense --year 2026",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			t, err := categoryType(typ)
			if err != nil {
				return err
			}
			list, err := a.svc.Incomplete(cmd.Context(), t, year)
			if err != nil {
				return err
			}
			if a.jsonOut {
				views := make([]map[string]any, 0, len(list))
				for _, e := range list {
					views = append(views, map[string]any{
						"id": e.ID, "type": string(e.Type),
						"payment_date": e.PaymentDate, "invoice_date": e.InvoiceDate,
						"party": e.Party, "category": e.CategoryName, "amount_eur": ledger.Format(e.Amount),
						"missing": e.Missing,
					})
				}
				return writeJSON(a.out(cmd), views)
			}
			if len(list) == 0 {
				fmt.Fprintln(a.out(cmd), "No incomplete bookings")
				return nil
			}
			w := table(a.out(cmd))
			fmt.Fprintln(w, "TYPE\tID\tDATE\tPARTY\tAMOUNT\tMISSING")
			for _, e := range list {
				fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\t%s\n", e.Type, e.ID, orDash(ledger.PreferredDate(e.PaymentDate, e.InvoiceDate)),
					e.Party, ledger.Format(e.Amount), strings.Join(e.Missing, ", "))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "only this year (default all)")
	cmd.Flags().StringVar(&typ, "type", "", "expense or income (default both)")
	return cmd
}
