package domain

import (
	"fmt"
	"math"
	"slices"
)

// Violation describes one broken invariant in a scored dataset.
type Violation struct {
	State    string
	District string
	Message  string
}

func (v Violation) String() string {
	if v.District == "" {
		return fmt.Sprintf("%s: %s", v.State, v.Message)
	}
	return fmt.Sprintf("%s / %s: %s", v.State, v.District, v.Message)
}

type stateCheck struct {
	crimes, scores           float64
	probSum, normSum         float64
	validProb, validNorm     int
	invalidProb, invalidNorm int
}

// CheckInvariants verifies a scored dataset: shares lie in [0, 1], shares of a
// state sum to 1 within tolerance, and NA appears exactly where a state's total
// is zero. Violations are returned per row first, then per state in sorted order.
func CheckInvariants(rows []ScoredDistrict, tolerance float64) []Violation {
	var out []Violation
	states := make(map[string]*stateCheck)

	for _, row := range rows {
		sc, ok := states[row.State]
		if !ok {
			sc = &stateCheck{}
			states[row.State] = sc
		}
		sc.crimes += row.TotalCrimes
		sc.scores += row.DistrictScore

		if row.CrimeProbability.Valid {
			sc.validProb++
			sc.probSum += row.CrimeProbability.Value
			if !inUnitRange(row.CrimeProbability.Value) {
				out = append(out, Violation{row.State, row.District, fmt.Sprintf("crime_probability %g outside [0,1]", row.CrimeProbability.Value)})
			}
		} else {
			sc.invalidProb++
		}

		if row.NormalizedScore.Valid {
			sc.validNorm++
			sc.normSum += row.NormalizedScore.Value
			if !inUnitRange(row.NormalizedScore.Value) {
				out = append(out, Violation{row.State, row.District, fmt.Sprintf("normalized_score %g outside [0,1]", row.NormalizedScore.Value)})
			}
		} else {
			sc.invalidNorm++
		}

		if !(row.DistrictScore >= 0) || math.IsInf(row.DistrictScore, 0) {
			out = append(out, Violation{row.State, row.District, fmt.Sprintf("district_score %g is not a finite non-negative number", row.DistrictScore)})
		}
	}

	names := make([]string, 0, len(states))
	for name := range states {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		sc := states[name]
		out = append(out, checkShares(name, "crime_probability", sc.crimes, sc.probSum, sc.validProb, sc.invalidProb, tolerance)...)
		out = append(out, checkShares(name, "normalized_score", sc.scores, sc.normSum, sc.validNorm, sc.invalidNorm, tolerance)...)
	}
	return out
}

func checkShares(state, field string, total, sum float64, valid, invalid int, tolerance float64) []Violation {
	switch {
	case total == 0 && valid > 0:
		return []Violation{{State: state, Message: fmt.Sprintf("%s must be %s when the state total is zero", field, NotComputable)}}
	case total != 0 && invalid > 0:
		return []Violation{{State: state, Message: fmt.Sprintf("%s is %s for %d rows but the state total is %g", field, NotComputable, invalid, total)}}
	case valid > 0 && !(math.Abs(sum-1) <= tolerance):
		return []Violation{{State: state, Message: fmt.Sprintf("%s sums to %.12f, want 1", field, sum)}}
	}
	return nil
}

// inUnitRange is false for NaN.
func inUnitRange(v float64) bool {
	return v >= 0 && v <= 1
}
