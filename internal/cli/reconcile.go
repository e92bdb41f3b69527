package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/service/reconcile"
)

func (a *app) reconcileCmd() *cobra.Command {
	var (
		year   int
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Re-run the private-paid classification over stored expenses",
		Long: `Applies the current private_accounts configuration to every expense that
was not classified manually. Each change is written with a MIGRATE audit entry.`,
		Example: "  euer reconcile --year 2026 --dry-run",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			opts := reconcile.Options{DryRun: dryRun}
			if cmd.Flags().Changed("year") {
				opts.Year = &year
			}
			res, err := reconcile.New(a.svc).Run(cmd.Context(), opts)
			if err != nil {
				return err
			}
			if a.jsonOut {
				type change struct {
					ID       int64  `json:"id"`
					Date     string `json:"date"`
					Vendor   string `json:"vendor"`
					OldPaid  bool   `json:"old_private_paid"`
					OldClass string `json:"old_classification"`
					NewPaid  bool   `json:"new_private_paid"`
					NewClass string `json:"new_classification"`
				}
				changes := make([]change, 0, len(res.Changes))
				for _, c := range res.Changes {
					changes = append(changes, change{c.ID, c.Date, c.Vendor, c.OldPaid, string(c.OldClass), c.NewPaid, string(c.NewClass)})
				}
				return writeJSON(a.out(cmd), map[string]any{
					"checked": res.Checked, "changed": res.Changed,
					"skipped_manual": res.SkippedManual, "dry_run": dryRun, "changes": changes,
				})
			}
			w := table(a.out(cmd))
			if len(res.Changes) > 0 {
				fmt.Fprintln(w, "ID\tDATE\tVENDOR\tBEFORE\tAFTER")
				for _, c := range res.Changes {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Date, c.Vendor, c.OldClass, c.NewClass)
				}
			}
			verb := "changed"
			if dryRun {
				verb = "would change"
			}
			fmt.Fprintf(w, "Checked %d expenses, %s %d, skipped %d manual\n", res.Checked, verb, res.Changed, res.SkippedManual)
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&year, "year", 0, "only expenses of this year")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing")
	return cmd
}
