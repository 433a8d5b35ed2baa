package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/crime-score-map/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-score-map/internal/domain"
)

func newValidateCmd(a *app) *cobra.Command {
	var (
		scored    string
		tolerance float64
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check a scored CSV: shares in range, per-state sums of 1, NA only for zero totals",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVar(&scored, "scored", "", "scored CSV to check (overrides SCORED_CSV)")
	cmd.Flags().Float64Var(&tolerance, "tolerance", 1e-9, "allowed deviation of a per-state sum from 1")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if scored != "" {
			a.cfg.ScoredCSV = scored
		}

		rows, err := csvfile.NewScoreFile(a.cfg.ScoredCSV).ReadScores(cmd.Context())
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		violations := domain.CheckInvariants(rows, tolerance)
		for _, v := range violations {
			printf(out, "FAIL %s\n", v)
		}
		if len(violations) > 0 {
			return fmt.Errorf("%d invariant violations in %s", len(violations), a.cfg.ScoredCSV)
		}

		printf(out, "PASS %d rows in %s\n", len(rows), a.cfg.ScoredCSV)
		return nil
	})
	return cmd
}
