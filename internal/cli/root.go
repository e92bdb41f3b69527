// Package cli provides the euer command tree.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/tinoosan/euer/internal/config"
	"github.com/tinoosan/euer/internal/metrics"
	"github.com/tinoosan/euer/internal/service/mutation"
	"github.com/tinoosan/euer/internal/storage"
	pgstore "github.com/tinoosan/euer/internal/storage/postgres"
	"github.com/tinoosan/euer/internal/storage/sqlite"
)

// app is the state shared by every command of one invocation.
type app struct {
	log   *slog.Logger
	level *slog.LevelVar

	configPath  string
	dbPath      string
	debug       bool
	metricsFile string
	jsonOut     bool

	cfg     *config.Config
	store   storage.Store
	closeFn func()
	reg     *prometheus.Registry
	svc     *mutation.Service
}

// NewRootCmd builds the command tree. level may be nil; when set, --debug
// lowers it to debug.
func NewRootCmd(log *slog.Logger, level *slog.LevelVar) *cobra.Command {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	a := &app{log: log, level: level}
	root := &cobra.Command{
		Use:   "euer",
		Short: "Bookkeeping ledger for the annual profit statement (EÜR)",
		Long: `euer records business expenses, income and private transfers,
derives VAT for small-business or standard taxation, classifies expenses
paid from private funds and keeps an append-only audit trail.

Example:
  euer init
  euer add expense --date 2026-01-15 --vendor Acme --amount -39.99 --category Arbeitsmittel
  euer import --file bank.csv --format csv --dry-run
  euer reconcile --year 2026`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $EUER_CONFIG or ~/.config/euer/config.yaml)")
	pf.StringVar(&a.dbPath, "db", "", "SQLite database path (overrides config)")
	pf.BoolVar(&a.debug, "debug", false, "enable debug logging")
	pf.StringVar(&a.metricsFile, "metrics-file", "", "write Prometheus metrics to this textfile on exit")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		a.initCmd(),
		a.addCmd(),
		a.updateCmd(),
		a.deleteCmd(),
		a.listCmd(),
		a.importCmd(),
		a.reconcileCmd(),
		a.auditCmd(),
		a.summaryCmd(),
		a.privateSummaryCmd(),
		a.incompleteCmd(),
	)
	return root
}

// Execute runs the command tree with os.Args.
func Execute(ctx context.Context, log *slog.Logger, level *slog.LevelVar) error {
	return NewRootCmd(log, level).ExecuteContext(ctx)
}

func (a *app) setup(cmd *cobra.Command) error {
	if a.debug && a.level != nil {
		a.level.Set(slog.LevelDebug)
	}
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
		cfg.Database.URL = ""
	}
	a.cfg = cfg

	ctx := cmd.Context()
	if cfg.Database.URL != "" {
		pg, err := pgstore.Open(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to postgres: %w", err)
		}
		a.store, a.closeFn = pg, pg.Close
		a.log.Debug("storage backend: postgres")
	} else {
		s, err := sqlite.Open(ctx, cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.store, a.closeFn = s, func() { _ = s.Close() }
		a.log.Debug("storage backend: sqlite", "path", s.Path())
	}

	a.reg = prometheus.NewRegistry()
	a.svc, err = mutation.New(a.store, cfg.Settings(),
		mutation.WithLogger(a.log),
		mutation.WithMetrics(metrics.New(a.reg)))
	if err != nil {
		a.closeFn()
		return err
	}
	return nil
}

func (a *app) teardown() error {
	if a.closeFn != nil {
		a.closeFn()
		a.closeFn = nil
	}
	if a.metricsFile != "" && a.reg != nil {
		if err := metrics.WriteTextfile(a.metricsFile, a.reg); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}
	return nil
}

// run wraps a command body: it opens the store first, then closes it and
// writes metrics even when the body fails.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		if err := a.setup(cmd); err != nil {
			return err
		}
		err := fn(cmd, args)
		if terr := a.teardown(); err == nil {
			err = terr
		}
		return err
	}
}

func (a *app) out(cmd *cobra.Command) io.Writer { return cmd.OutOrStdout() }
