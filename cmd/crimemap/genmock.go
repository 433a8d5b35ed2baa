package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

type mockState struct {
	name      string
	districts []string
	zero      bool // every count is zero, so shares are not computable
}

// mockStates lists the generated states. Delhi uses the reference point names
// so locate finds a score for every resolved district.
func mockStates(delhi []string) []mockState {
	return []mockState{
		{name: "Delhi", districts: delhi},
		{name: "Karnataka", districts: []string{"Bengaluru City", "Mysuru", "Belagavi", "Kalaburagi"}},
		{name: "Goa", districts: []string{"North Goa", "South Goa"}},
		{name: "Lakshadweep", districts: []string{"Lakshadweep"}, zero: true},
	}
}

func newGenmockCmd(a *app) *cobra.Command {
	var (
		out  string
		seed uint64
		year int
	)

	cmd := &cobra.Command{
		Use:   "genmock",
		Short: "Write a deterministic sample input CSV for local runs and tests",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output path (defaults to INPUT_CSV)")
	cmd.Flags().Uint64Var(&seed, "seed", 2015, "random seed")
	cmd.Flags().IntVar(&year, "year", 2015, "value of the Year column")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if out == "" {
			out = a.cfg.InputCSV
		}

		var delhi []string
		for _, ref := range a.tables.References {
			delhi = append(delhi, ref.Name)
		}
		categories := a.tables.Weights.Categories()

		header := []string{a.cfg.StateColumn, a.cfg.DistrictColumn, "Year"}
		header = append(header, categories...)
		header = append(header, a.cfg.TotalColumn)

		rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)) //nolint:gosec // sample data only
		rows := [][]string{header}
		for _, state := range mockStates(delhi) {
			for _, district := range state.districts {
				row := []string{state.name, district, strconv.Itoa(year)}
				var total int
				for range categories {
					n := 0
					if !state.zero {
						n = rng.IntN(60)
					}
					total += n
					row = append(row, strconv.Itoa(n))
				}
				row = append(row, strconv.Itoa(total))
				rows = append(rows, row)
			}
		}

		if err := writeCSV(out, rows); err != nil {
			return fmt.Errorf("write sample csv: %w", err)
		}
		a.logger.Info("sample input written", "path", out, "rows", len(rows)-1, "seed", seed)
		printf(cmd.OutOrStdout(), "Wrote %d sample rows to %s\n", len(rows)-1, out)
		return nil
	})
	return cmd
}

func writeCSV(path string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
