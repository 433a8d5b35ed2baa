package domain

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// Aggregate scores every record and normalizes the results within each state.
// The output has one entry per record, in input order. Shares whose state total
// is zero are returned as invalid Ratios.
func Aggregate(records []CrimeRecord, weights WeightTable) []ScoredDistrict {
	scores := make([]float64, len(records))
	crimes := make(map[string][]float64)
	scored := make(map[string][]float64)

	for i, rec := range records {
		scores[i] = weights.Score(rec.Counts)
		crimes[rec.State] = append(crimes[rec.State], rec.TotalCrimes)
		scored[rec.State] = append(scored[rec.State], scores[i])
	}

	crimeTotals := sumByState(crimes)
	scoreTotals := sumByState(scored)

	out := make([]ScoredDistrict, len(records))
	for i, rec := range records {
		out[i] = ScoredDistrict{
			State:            rec.State,
			District:         rec.District,
			TotalCrimes:      rec.TotalCrimes,
			CrimeProbability: Share(rec.TotalCrimes, crimeTotals[rec.State]),
			DistrictScore:    scores[i],
			NormalizedScore:  Share(scores[i], scoreTotals[rec.State]),
		}
	}
	return out
}

func sumByState(values map[string][]float64) map[string]float64 {
	totals := make(map[string]float64, len(values))
	for state, vs := range values {
		totals[state] = floats.Sum(vs)
	}
	return totals
}

// NonComputableStates returns, in sorted order, the states for which at least
// one share could not be computed.
func NonComputableStates(scored []ScoredDistrict) []string {
	seen := make(map[string]struct{})
	var states []string
	for _, s := range scored {
		if s.CrimeProbability.Valid && s.NormalizedScore.Valid {
			continue
		}
		if _, ok := seen[s.State]; ok {
			continue
		}
		seen[s.State] = struct{}{}
		states = append(states, s.State)
	}
	slices.Sort(states)
	return states
}
