package cli

import (
	"fmt"

	"github.com/govalues/money"
	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/mutation"
)

func (a *app) initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the database and seed the categories",
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			cats, err := a.svc.Categories(cmd.Context(), nil)
			if err != nil {
				return err
			}
			where := a.cfg.Database.Path
			if a.cfg.Database.URL != "" {
				where = "postgres"
			}
			fmt.Fprintf(a.out(cmd), "Database ready: %s (%d categories, tax mode %s)\n", where, len(cats), a.cfg.Tax.Mode)
			return nil
		}),
	}
}

func (a *app) addCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "add", Short: "Record an expense, income or private transfer"}
	cmd.AddCommand(a.addExpenseCmd(), a.addIncomeCmd(),
		a.addTransferCmd(ledger.TransferDeposit, "Record a private deposit into the business"),
		a.addTransferCmd(ledger.TransferWithdrawal, "Record a private withdrawal from the business"))
	return cmd
}

func policy(skip bool) mutation.DuplicatePolicy {
	if skip {
		return mutation.SkipDuplicates
	}
	return mutation.RaiseOnDuplicate
}

func (a *app) addExpenseCmd() *cobra.Command {
	var (
		in          mutation.ExpenseInput
		amount, vat string
		skip        bool
	)
	cmd := &cobra.Command{
		Use:   "expense",
		Short: "Record an expense (amounts are negative)",
		Example: `  euer add expense --date 2026-01-15 --vendor Acme --amount -39.99 --category Arbeitsmittel
  euer add expense --invoice-date 2026-02-01 --vendor "Cloud Inc" --amount -100 --rc`,
		Args: cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if in.VAT, err = optionalAmount(cmd, "vat", vat); err != nil {
				return err
			}
			e, out, err := a.svc.CreateExpense(cmd.Context(), in, policy(skip))
			if err != nil {
				return err
			}
			if !out.Created {
				fmt.Fprintf(a.out(cmd), "Duplicate of expense #%d skipped\n", out.ExistingID)
				return nil
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), expenseView(e))
			}
			fmt.Fprintf(a.out(cmd), "Expense #%d recorded: %s %s %s (VAT in %s, out %s, private: %s)\n",
				e.ID, e.Date(), e.Vendor, ledger.Format(e.Amount), optAmount(e.VATInput), optAmount(e.VATOutput), e.PrivateClass)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.PaymentDate, "date", "", "payment date YYYY-MM-DD")
	f.StringVar(&in.PaymentDate, "payment-date", "", "payment date YYYY-MM-DD")
	f.StringVar(&in.InvoiceDate, "invoice-date", "", "invoice date YYYY-MM-DD")
	f.StringVar(&in.Vendor, "vendor", "", "vendor name")
	f.StringVar(&amount, "amount", "", "amount in EUR")
	f.StringVar(&in.Category, "category", "", "category name")
	f.StringVar(&in.LedgerAccount, "ledger-account", "", "configured ledger account key (overrides --category)")
	f.StringVar(&in.Account, "account", "", "paying account label")
	f.StringVar(&in.ReceiptName, "receipt", "", "receipt file name")
	f.StringVar(&in.ForeignAmount, "foreign", "", "original foreign currency amount")
	f.StringVar(&in.Notes, "notes", "", "notes")
	f.BoolVar(&in.ReverseCharge, "rc", false, "reverse-charge expense")
	f.StringVar(&vat, "vat", "", "VAT override in EUR")
	f.BoolVar(&in.PrivatePaid, "private-paid", false, "mark as paid from private funds")
	f.BoolVar(&skip, "skip-duplicates", false, "do nothing when the expense already exists")
	_ = cmd.MarkFlagRequired("vendor")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) addIncomeCmd() *cobra.Command {
	var (
		in          mutation.IncomeInput
		amount, vat string
		skip        bool
	)
	cmd := &cobra.Command{
		Use:     "income",
		Short:   "Record income",
		Example: `  euer add income --date 2026-03-01 --source "Kunde GmbH" --amount 2500 --category "Umsatzsteuerpflichtige Betriebseinnahmen"`,
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if in.VAT, err = optionalAmount(cmd, "vat", vat); err != nil {
				return err
			}
			i, out, err := a.svc.CreateIncome(cmd.Context(), in, policy(skip))
			if err != nil {
				return err
			}
			if !out.Created {
				fmt.Fprintf(a.out(cmd), "Duplicate of income #%d skipped\n", out.ExistingID)
				return nil
			}
			for _, w := range out.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), incomeView(i))
			}
			fmt.Fprintf(a.out(cmd), "Income #%d recorded: %s %s %s (VAT %s)\n",
				i.ID, i.Date(), i.Source, ledger.Format(i.Amount), optAmount(i.VATOutput))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.PaymentDate, "date", "", "payment date YYYY-MM-DD")
	f.StringVar(&in.PaymentDate, "payment-date", "", "payment date YYYY-MM-DD")
	f.StringVar(&in.InvoiceDate, "invoice-date", "", "invoice date YYYY-MM-DD")
	f.StringVar(&in.Source, "source", "", "payer")
	f.StringVar(&amount, "amount", "", "amount in EUR")
	f.StringVar(&in.Category, "category", "", "category name")
	f.StringVar(&in.LedgerAccount, "ledger-account", "", "configured ledger account key (overrides --category)")
	f.StringVar(&in.ReceiptName, "receipt", "", "receipt file name")
	f.StringVar(&in.ForeignAmount, "foreign", "", "original foreign currency amount")
	f.StringVar(&in.Notes, "notes", "", "notes")
	f.StringVar(&vat, "vat", "", "output VAT in EUR")
	f.BoolVar(&skip, "skip-duplicates", false, "do nothing when the income already exists")
	_ = cmd.MarkFlagRequired("source")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

func (a *app) addTransferCmd(typ ledger.TransferType, short string) *cobra.Command {
	var (
		in      = mutation.TransferInput{Type: typ}
		amount  string
		related int64
		skip    bool
	)
	cmd := &cobra.Command{
		Use:   string(typ),
		Short: short,
		Args:  cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var err error
			if in.Amount, err = parseAmount("amount", amount); err != nil {
				return err
			}
			if cmd.Flags().Changed("related-expense") {
				in.RelatedExpenseID = &related
			}
			p, out, err := a.svc.CreateTransfer(cmd.Context(), in, policy(skip))
			if err != nil {
				return err
			}
			if !out.Created {
				fmt.Fprintf(a.out(cmd), "Duplicate of transfer #%d skipped\n", out.ExistingID)
				return nil
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), transferView(p))
			}
			fmt.Fprintf(a.out(cmd), "%s #%d recorded: %s %s %s\n", p.Type, p.ID, p.Date, p.Description, ledger.Format(p.Amount))
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVar(&in.Date, "date", "", "date YYYY-MM-DD")
	f.StringVar(&amount, "amount", "", "amount in EUR (positive)")
	f.StringVar(&in.Description, "description", "", "description")
	f.StringVar(&in.Notes, "notes", "", "notes")
	f.Int64Var(&related, "related-expense", 0, "id of the expense this transfer belongs to")
	f.BoolVar(&skip, "skip-duplicates", false, "do nothing when the transfer already exists")
	_ = cmd.MarkFlagRequired("amount")
	return cmd
}

// optionalAmount parses a flag only when it was set.
func optionalAmount(cmd *cobra.Command, flag, value string) (*money.Amount, error) {
	if !cmd.Flags().Changed(flag) {
		return nil, nil
	}
	v, err := parseAmount(flag, value)
	if err != nil {
		return nil, err
	}
	return &v, nil
}
