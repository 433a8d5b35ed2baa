// Command crimemap scores districts from the NCRB crimes-against-women
// dataset and shows the score for the user's current location on a map.
//
// Usage:
//
//	crimemap aggregate --input District-wise_Crimes_committed_against_Women_2015_1.csv
//	crimemap locate --open
//	crimemap locate --lat 28.68 --lon 77.22 --json
//	crimemap validate --scored district_crime_scores.csv
//	crimemap genmock --out sample.csv
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crime-score-map/internal/config"
	"github.com/couchcryptid/crime-score-map/internal/observability"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// app carries what PersistentPreRunE prepares for every subcommand.
type app struct {
	cfg     *config.Config
	tables  config.Tables
	logger  *slog.Logger
	metrics *observability.Metrics

	tablesFile string
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "crimemap",
		Short:        "District crime scores and a location map",
		Long:         "Aggregates district-wise crime statistics into per-state probabilities and severity scores, then resolves a location to its district and renders the score on an HTML map.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}
	root.PersistentFlags().StringVar(&a.tablesFile, "tables", "", "YAML file with weight and reference point tables (overrides TABLES_FILE)")

	root.AddCommand(
		newAggregateCmd(a),
		newLocateCmd(a),
		newValidateCmd(a),
		newGenmockCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if a.tablesFile != "" {
		cfg.TablesFile = a.tablesFile
	}
	a.cfg = cfg

	a.logger = observability.WithRun(observability.NewLogger(cfg, cmd.ErrOrStderr()), cmd.Name())
	a.metrics = observability.NewMetrics()

	tables, err := config.LoadTables(cfg.TablesFile)
	if err != nil {
		a.logger.Error("failed to load tables", "error", err)
		return err
	}
	a.tables = tables
	return nil
}

// run wraps a subcommand body so the metrics textfile is written and failures
// are logged whether or not the body succeeds.
func (a *app) run(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		err := fn(cmd, args)
		if err != nil {
			a.logger.Error("command failed", "error", err)
		}
		if werr := a.metrics.WriteTextfile(a.cfg.MetricsTextfile); werr != nil {
			a.logger.Warn("metrics not written", "error", werr)
		}
		return err
	}
}

// printf writes user-facing output; write errors to a terminal are not actionable.
func printf(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}
