package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/service/importer"
)

func (a *app) importCmd() *cobra.Command {
	var (
		file, format string
		dryRun       bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import expenses and income from CSV or JSON lines",
		Long: `Each row needs a type (expense/income or Ausgabe/Einnahme), a payment or
invoice date, an amount and a vendor or source. German column headers are
accepted. If any row lacks a required field nothing is imported; otherwise
all rows are written in one transaction and existing bookings are skipped.`,
		Example: "  euer import --file bank.csv --dry-run\n  cat rows.jsonl | euer import --file - --format jsonl",
		Args:    cobra.NoArgs,
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(file), ".")
			}
			f, err := importer.ParseFormat(format)
			if err != nil {
				return err
			}
			var raw []map[string]any
			if file == "-" {
				raw, err = importer.Read(cmd.InOrStdin(), f)
			} else {
				raw, err = importer.ReadFile(file, f)
			}
			if err != nil {
				return err
			}
			res, err := importer.New(a.svc).Import(cmd.Context(), raw, dryRun)
			if err != nil {
				return err
			}
			for _, w := range res.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
			}
			if a.jsonOut {
				return writeJSON(a.out(cmd), map[string]any{
					"total":             res.Total,
					"inserted_expenses": res.InsertedExpenses,
					"inserted_income":   res.InsertedIncome,
					"duplicates":        res.Duplicates,
					"warnings":          res.Warnings,
					"dry_run":           dryRun,
				})
			}
			prefix := "Imported"
			if dryRun {
				prefix = "Dry run: would import"
			}
			fmt.Fprintf(a.out(cmd), "%s %d expenses and %d income records (%d rows, %d duplicates skipped)\n",
				prefix, res.InsertedExpenses, res.InsertedIncome, res.Total, res.Duplicates)
			return nil
		}),
	}
	f := cmd.Flags()
	f.StringVarP(&file, "file", "f", "", `input file, "-" for stdin`)
	f.StringVar(&format, "format", "", "csv or jsonl (default from the file extension)")
	f.BoolVar(&dryRun, "dry-run", false, "validate and count without writing")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
