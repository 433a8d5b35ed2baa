package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crime-score-map/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-score-map/internal/pipeline"
)

func newAggregateCmd(a *app) *cobra.Command {
	var input, output string

	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Score every district and write the scored CSV",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&input, "input", "i", "", "raw district-wise CSV (overrides INPUT_CSV)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "scored CSV to write (overrides SCORED_CSV)")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if input != "" {
			a.cfg.InputCSV = input
		}
		if output != "" {
			a.cfg.ScoredCSV = output
		}

		columns := csvfile.Columns{
			State:    a.cfg.StateColumn,
			District: a.cfg.DistrictColumn,
			Total:    a.cfg.TotalColumn,
		}
		reader := csvfile.NewRecordReader(a.cfg.InputCSV, columns, a.tables.Weights.Categories(), a.logger)
		writer := csvfile.NewScoreFile(a.cfg.ScoredCSV)

		summary, err := pipeline.NewAggregation(reader, writer, a.tables.Weights, a.logger, a.metrics).Run(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printf(out, "Scored %d districts into %s\n", summary.Records, writer.Path())
		if len(summary.NonComputableStates) > 0 {
			printf(out, "Shares not computable (zero state total): %s\n", strings.Join(summary.NonComputableStates, ", "))
		}
		return nil
	})
	return cmd
}
