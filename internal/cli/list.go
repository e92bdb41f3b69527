package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
)

type expenseJSON struct {
	ID            int64  `json:"id"`
	UUID          string `json:"uuid"`
	PaymentDate   string `json:"payment_date,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	Vendor        string `json:"vendor"`
	Amount        string `json:"amount_eur"`
	Category      string `json:"category,omitempty"`
	Account       string `json:"account,omitempty"`
	LedgerAccount string `json:"ledger_account,omitempty"`
	ReceiptName   string `json:"receipt_name,omitempty"`
	ForeignAmount string `json:"foreign_amount,omitempty"`
	Notes         string `json:"notes,omitempty"`
	ReverseCharge bool   `json:"is_rc"`
	VATInput      string `json:"vat_input_eur,omitempty"`
	VATOutput     string `json:"vat_output_eur,omitempty"`
	PrivatePaid   bool   `json:"private_paid"`
	PrivateClass  string `json:"private_classification"`
}

type incomeJSON struct {
	ID            int64  `json:"id"`
	UUID          string `json:"uuid"`
	PaymentDate   string `json:"payment_date,omitempty"`
	InvoiceDate   string `json:"invoice_date,omitempty"`
	Source        string `json:"source"`
	Amount        string `json:"amount_eur"`
	Category      string `json:"category,omitempty"`
	LedgerAccount string `json:"ledger_account,omitempty"`
	ReceiptName   string `json:"receipt_name,omitempty"`
	ForeignAmount string `json:"foreign_amount,omitempty"`
	Notes         string `json:"notes,omitempty"`
	VATOutput     string `json:"vat_output_eur,omitempty"`
}

type transferJSON struct {
	ID               int64  `json:"id"`
	UUID             string `json:"uuid"`
	Date             string `json:"date"`
	Type             string `json:"type"`
	Amount           string `json:"amount_eur"`
	Description      string `json:"description"`
	Notes            string `json:"notes,omitempty"`
	RelatedExpenseID *int64 `json:"related_expense_id,omitempty"`
}

func jsonAmount(s string) string {
	if s == "-" {
		return ""
	}
	return s
}

func expenseView(e ledger.Expense) expenseJSON {
	return expenseJSON{
		ID: e.ID, UUID: e.UUID.String(),
		PaymentDate: e.PaymentDate, InvoiceDate: e.InvoiceDate,
		Vendor: e.Vendor, Amount: ledger.Format(e.Amount),
		Category: e.CategoryName, Account: e.Account, LedgerAccount: e.LedgerAccount,
		ReceiptName: e.ReceiptName, ForeignAmount: e.ForeignAmount, Notes: e.Notes,
		ReverseCharge: e.ReverseCharge,
		VATInput:      jsonAmount(optAmount(e.VATInput)),
		VATOutput:     jsonAmount(optAmount(e.VATOutput)),
		PrivatePaid:   e.PrivatePaid, PrivateClass: string(e.PrivateClass),
	}
}

func incomeView(i ledger.Income) incomeJSON {
	return incomeJSON{
		ID: i.ID, UUID: i.UUID.String(),
		PaymentDate: i.PaymentDate, InvoiceDate: i.InvoiceDate,
		Source: i.Source, Amount: ledger.Format(i.Amount),
		Category: i.CategoryName, LedgerAccount: i.LedgerAccount,
		ReceiptName: i.ReceiptName, ForeignAmount: i.ForeignAmount, Notes: i.Notes,
		VATOutput: jsonAmount(optAmount(i.VATOutput)),
	}
}

func transferView(p ledger.PrivateTransfer) transferJSON {
	return transferJSON{
		ID: p.ID, UUID: p.UUID.String(), Date: p.Date, Type: string(p.Type),
		Amount: ledger.Format(p.Amount), Description: p.Description,
		Notes: p.Notes, RelatedExpenseID: p.RelatedExpenseID,
	}
}

type listFlags struct {
	year, month int
	category    string
	typ         string
}

func (a *app) listCmd() *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:       "list {expenses|income|transfers|categories}",
		Short:     "List stored records",
		Example:   "  euer list expenses --year 2026 --month 3\n  euer list categories --type income",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"expenses", "income", "transfers", "categories"},
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "expenses":
				return a.listExpenses(cmd, lf)
			case "income":
				return a.listIncome(cmd, lf)
			case "transfers":
				return a.listTransfers(cmd, lf)
			case "categories":
				return a.listCategories(cmd, lf)
			}
			return errs.New(errs.CodeInvalidType, map[string]any{"valid": []string{"expenses", "income", "transfers", "categories"}},
				"unknown record kind %q", args[0])
		}),
	}
	f := cmd.Flags()
	f.IntVar(&lf.year, "year", 0, "only this year")
	f.IntVar(&lf.month, "month", 0, "only this month (1-12, needs --year)")
	f.StringVar(&lf.category, "category", "", "only this category")
	f.StringVar(&lf.typ, "type", "", "transfer type (deposit|withdrawal) or category type (expense|income)")
	return cmd
}

func (a *app) listExpenses(cmd *cobra.Command, lf listFlags) error {
	list, err := a.svc.Expenses(cmd.Context(), lf.year, lf.month, lf.category)
	if err != nil {
		return err
	}
	if a.jsonOut {
		views := make([]expenseJSON, 0, len(list))
		for _, e := range list {
			views = append(views, expenseView(e))
		}
		return writeJSON(a.out(cmd), views)
	}
	w := table(a.out(cmd))
	fmt.Fprintln(w, "ID\tDATE\tVENDOR\tAMOUNT\tCATEGORY\tVAT IN\tVAT OUT\tRC\tPRIVATE")
	for _, e := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n", e.ID, e.Date(), e.Vendor, ledger.Format(e.Amount),
			orDash(e.CategoryName), optAmount(e.VATInput), optAmount(e.VATOutput), yesNo(e.ReverseCharge), e.PrivateClass)
	}
	return w.Flush()
}

func (a *app) listIncome(cmd *cobra.Command, lf listFlags) error {
	list, err := a.svc.IncomeList(cmd.Context(), lf.year, lf.month, lf.category)
	if err != nil {
		return err
	}
	if a.jsonOut {
		views := make([]incomeJSON, 0, len(list))
		for _, i := range list {
			views = append(views, incomeView(i))
		}
		return writeJSON(a.out(cmd), views)
	}
	w := table(a.out(cmd))
	fmt.Fprintln(w, "ID\tDATE\tSOURCE\tAMOUNT\tCATEGORY\tVAT")
	for _, i := range list {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", i.ID, i.Date(), i.Source, ledger.Format(i.Amount),
			orDash(i.CategoryName), optAmount(i.VATOutput))
	}
	return w.Flush()
}

func (a *app) listTransfers(cmd *cobra.Command, lf listFlags) error {
	list, err := a.svc.Transfers(cmd.Context(), ledger.TransferFilter{Type: ledger.TransferType(lf.typ), Year: lf.year})
	if err != nil {
		return err
	}
	if a.jsonOut {
		views := make([]transferJSON, 0, len(list))
		for _, p := range list {
			views = append(views, transferView(p))
		}
		return writeJSON(a.out(cmd), views)
	}
	w := table(a.out(cmd))
	fmt.Fprintln(w, "ID\tDATE\tTYPE\tAMOUNT\tDESCRIPTION\tEXPENSE")
	for _, p := range list {
		rel := "-"
		if p.RelatedExpenseID != nil {
			rel = fmt.Sprintf("#%d", *p.RelatedExpenseID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Date, p.Type, ledger.Format(p.Amount), p.Description, rel)
	}
	return w.Flush()
}

func (a *app) listCategories(cmd *cobra.Command, lf listFlags) error {
	typ, err := categoryType(lf.typ)
	if err != nil {
		return err
	}
	cats, err := a.svc.Categories(cmd.Context(), typ)
	if err != nil {
		return err
	}
	if a.jsonOut {
		type view struct {
			ID         int64  `json:"id"`
			Name       string `json:"name"`
			Type       string `json:"type"`
			ReportLine *int   `json:"report_line,omitempty"`
		}
		views := make([]view, 0, len(cats))
		for _, c := range cats {
			views = append(views, view{ID: c.ID, Name: c.Name, Type: string(c.Type), ReportLine: c.ReportLine})
		}
		return writeJSON(a.out(cmd), views)
	}
	w := table(a.out(cmd))
	fmt.Fprintln(w, "ID\tTYPE\tCATEGORY")
	for _, c := range cats {
		fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Type, c.Label())
	}
	return w.Flush()
}

// categoryType parses expense|income; empty means both.
func categoryType(s string) (*ledger.CategoryType, error) {
	switch t := ledger.CategoryType(strings.ToLower(strings.TrimSpace(s))); t {
	case "":
		return nil, nil
	case ledger.CategoryTypeExpense, ledger.CategoryTypeIncome:
		return &t, nil
	default:
		return nil, errs.New(errs.CodeInvalidType, map[string]any{"type": s, "valid": []string{"expense", "income"}},
			"unknown category type %q", s)
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

