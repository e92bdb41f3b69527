package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/audit"
	"github.com/tinoosan/euer/internal/ledger"
)

func (a *app) auditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit [table id]",
		Short: "Show the audit trail of one record, or the latest entries",
		Example: `  euer audit expenses 12
  euer audit --limit 20`,
		Args: cobra.MatchAll(cobra.RangeArgs(0, 2), func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				return fmt.Errorf("audit needs both a table and an id")
			}
			return nil
		}),
		RunE: a.run(func(cmd *cobra.Command, args []string) error {
			var (
				entries []ledger.AuditEntry
				err     error
			)
			if len(args) == 2 {
				id, perr := parseID(args[1])
				if perr != nil {
					return perr
				}
				entries, err = a.svc.AuditTrail(cmd.Context(), args[0], id)
			} else {
				entries, err = a.svc.RecentAudit(cmd.Context(), limit)
			}
			if err != nil {
				return err
			}
			if a.jsonOut {
				type view struct {
					ID       int64           `json:"id"`
					Time     string          `json:"timestamp"`
					Table    string          `json:"table"`
					RecordID int64           `json:"record_id"`
					UUID     string          `json:"record_uuid"`
					Action   string          `json:"action"`
					Old      json.RawMessage `json:"old_state,omitempty"`
					New      json.RawMessage `json:"new_state,omitempty"`
					User     string          `json:"user,omitempty"`
				}
				views := make([]view, 0, len(entries))
				for _, e := range entries {
					views = append(views, view{e.ID, e.Timestamp.UTC().Format(time.RFC3339), e.Table, e.RecordID,
						e.RecordUUID, string(e.Action), e.OldState, e.NewState, e.User})
				}
				return writeJSON(a.out(cmd), views)
			}
			w := table(a.out(cmd))
			fmt.Fprintln(w, "ID\tTIME\tTABLE\tRECORD\tACTION\tUSER\tCHANGED")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\t%s\t%s\n", e.ID, e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					e.Table, e.RecordID, e.Action, orDash(e.User), changedFields(e))
			}
			return w.Flush()
		}),
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of recent entries")
	return cmd
}

// changedFields summarizes an update entry by the fields that differ.
func changedFields(e ledger.AuditEntry) string {
	if e.Action != ledger.AuditUpdate && e.Action != ledger.AuditMigrate {
		return "-"
	}
	before, err := audit.Decode(e.OldState)
	if err != nil {
		return "-"
	}
	after, err := audit.Decode(e.NewState)
	if err != nil {
		return "-"
	}
	diff := before.Diff(after)
	if len(diff) == 0 {
		return "-"
	}
	return strings.Join(diff, ",")
}
