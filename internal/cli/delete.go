package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func (a *app) deleteCmd() *cobra.Command {
	kinds := map[string]func(cmd *cobra.Command, id int64) error{
		"expense":  func(cmd *cobra.Command, id int64) error { return a.svc.DeleteExpense(cmd.Context(), id) },
		"income":   func(cmd *cobra.Command, id int64) error { return a.svc.DeleteIncome(cmd.Context(), id) },
		"transfer": func(cmd *cobra.Command, id int64) error { return a.svc.DeleteTransfer(cmd.Context(), id) },
	}
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a stored record; the audit trail keeps its last state",
	}
	for _, kind := range []string{"expense", "income", "transfer"} {
		kind := kind
		del := kinds[kind]
		cmd.AddCommand(&cobra.Command{
			Use:   kind + " <id>",
			Short: "Delete a " + kind,
			Args:  cobra.ExactArgs(1),
			RunE: a.run(func(cmd *cobra.Command, args []string) error {
				id, err := parseID(args[0])
				if err != nil {
					return err
				}
				if err := del(cmd, id); err != nil {
					return err
				}
				fmt.Fprintf(a.out(cmd), "Deleted %s #%d\n", kind, id)
				return nil
			}),
		})
	}
	return cmd
}
