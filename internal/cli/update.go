package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/errs"
	"github.com/tinoosan/euer/internal/ledger"
	"github.com/tinoosan/euer/internal/service/mutation"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, errs.New(errs.CodeNotFound, map[string]any{"id": s}, "invalid id %q", s)
	}
	return id, nil
}

// changedString returns a pointer to v when the flag was given.
func changedString(cmd *cobra.Command, flag string) *string {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	v, _ := cmd.Flags().GetString(flag)
	return &v
}

func changedBool(cmd *cobra.Command, flag string) *bool {
	if !cmd.Flags().Changed(flag) {
		return nil
	}
	v, _ := cmd.Flags().GetBool(flag)
	return &v
}

func (a *app) updateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change fields of a stored record",
		Long: `Only the flags given are changed. Changing the amount, the reverse-charge
flag or passing --vat recomputes VAT; changing the account or category
re-runs the private-paid classification unless it was set manually.`,
	}
	cmd.AddCommand(a.updateExpenseCmd(), a.updateIncomeCmd(), a.updateTransferCmd())
	return cmd
}

func (a *app) updateExpenseCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expense <id>",
		Short:   "Update an expense",
		Example: "  euer update expense 12 --amount -45.00 --receipt 2026-01-acme.pdf",
		Args:    cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := mutation.ExpensePatch{
				PaymentDate:   changedString(cmd, "payment-date"),
				InvoiceDate:   changedString(cmd, "invoice-date"),
				Vendor:        changedString(cmd, "vendor"),
				Category:      changedString(cmd, "category"),
				LedgerAccount: changedString(cmd, "ledger-account"),
				Account:       changedString(cmd, "account"),
				ReceiptName:   changedString(cmd, "receipt"),
				ForeignAmount: changedString(cmd, "foreign"),
				Notes:         changedString(cmd, "notes"),
				ReverseCharge: changedBool(cmd, "rc"),
				PrivatePaid:   changedBool(cmd, "private-paid"),
			}
			if s := changedString(cmd, "amount"); s != nil {
				v, err := parseAmount("amount", *s)
				if err != nil {
					return err
				}
				p.Amount = &v
			}
			if p.VAT, err = optionalAmount(cmd, "vat", stringFlag(cmd, "vat")); err != nil {
				return err
			}
			e, err := a.svc.UpdateExpense(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), expenseView(e))
			}
			fmt.Fprintf(a.out(cmd), "Expense #%d updated: %s %s %s (VAT in %s, out %s, private: %s)\n",
				e.ID, e.Date(), e.Vendor, ledger.Format(e.Amount), optAmount(e.VATInput), optAmount(e.VATOutput), e.PrivateClass)
			return nil
		}),
	}
	f := cmd.Flags()
	f.String("payment-date", "", "payment date YYYY-MM-DD (empty clears)")
	f.String("invoice-date", "", "invoice date YYYY-MM-DD (empty clears)")
	f.String("vendor", "", "vendor name")
	f.String("amount", "", "amount in EUR")
	f.String("category", "", "category name (empty clears)")
	f.String("ledger-account", "", "configured ledger account key")
	f.String("account", "", "paying account label")
	f.String("receipt", "", "receipt file name")
	f.String("foreign", "", "original foreign currency amount")
	f.String("notes", "", "notes")
	f.Bool("rc", false, "reverse-charge expense")
	f.String("vat", "", "VAT override in EUR")
	f.Bool("private-paid", false, "set the private-paid flag manually")
	return cmd
}

func (a *app) updateIncomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "income <id>",
		Short: "Update an income record",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := mutation.IncomePatch{
				PaymentDate:   changedString(cmd, "payment-date"),
				InvoiceDate:   changedString(cmd, "invoice-date"),
				Source:        changedString(cmd, "source"),
				Category:      changedString(cmd, "category"),
				LedgerAccount: changedString(cmd, "ledger-account"),
				ReceiptName:   changedString(cmd, "receipt"),
				ForeignAmount: changedString(cmd, "foreign"),
				Notes:         changedString(cmd, "notes"),
			}
			if s := changedString(cmd, "amount"); s != nil {
				v, err := parseAmount("amount", *s)
				if err != nil {
					return err
				}
				p.Amount = &v
			}
			if p.VAT, err = optionalAmount(cmd, "vat", stringFlag(cmd, "vat")); err != nil {
				return err
			}
			i, out, err := a.svc.UpdateIncome(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			for _, w := range out.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), incomeView(i))
			}
			fmt.Fprintf(a.out(cmd), "Income #%d updated: %s %s %s (VAT %s)\n",
				i.ID, i.Date(), i.Source, ledger.Format(i.Amount), optAmount(i.VATOutput))
			return nil
		}),
	}
	f := cmd.Flags()
	f.String("payment-date", "", "payment date YYYY-MM-DD (empty clears)")
	f.String("invoice-date", "", "invoice date YYYY-MM-DD (empty clears)")
	f.String("source", "", "payer")
	f.String("amount", "", "amount in EUR")
	f.String("category", "", "category name (empty clears)")
	f.String("ledger-account", "", "configured ledger account key")
	f.String("receipt", "", "receipt file name")
	f.String("foreign", "", "original foreign currency amount")
	f.String("notes", "", "notes")
	f.String("vat", "", "output VAT in EUR")
	return cmd
}

func (a *app) updateTransferCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer <id>",
		Short: "Update a private deposit or withdrawal",
		Args:  cobra.ExactArgs(1),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			p := mutation.TransferPatch{
				Date:        changedString(cmd, "date"),
				Description: changedString(cmd, "description"),
				Notes:       changedString(cmd, "notes"),
			}
			if s := changedString(cmd, "amount"); s != nil {
				v, err := parseAmount("amount", *s)
				if err != nil {
					return err
				}
				p.Amount = &v
			}
			if cmd.Flags().Changed("related-expense") {
				rel, _ := cmd.Flags().GetInt64("related-expense")
				if rel == 0 {
					p.ClearRelatedExpense = true
				} else {
					p.RelatedExpenseID = &rel
				}
			}
			t, err := a.svc.UpdateTransfer(cmd.Context(), id, p)
			if err != nil {
				return err
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), transferView(t))
			}
			fmt.Fprintf(a.out(cmd), "%s #%d updated: %s %s %s\n", t.Type, t.ID, t.Date, t.Description, ledger.Format(t.Amount))
			return nil
		}),
	}
	f := cmd.Flags()
	f.String("date", "", "date YYYY-MM-DD")
	f.String("amount", "", "amount in EUR (positive)")
	f.String("description", "", "description")
	f.String("notes", "", "notes")
	f.Int64("related-expense", 0, "id of the related expense (0 clears)")
	return cmd
}

func stringFlag(cmd *cobra.Command, flag string) string {
	v, _ := cmd.Flags().GetString(flag)
	return v
}
