package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// NotComputable is the serialized form of a share whose denominator was zero.
const NotComputable = "NA"

// CrimeRecord is one district row of the source dataset.
type CrimeRecord struct {
	State       string
	District    string
	Counts      map[string]float64 // category name -> reported count
	TotalCrimes float64
}

// Ratio is a share of a state-level total. Valid is false when the total was
// zero and the share is undefined.
type Ratio struct {
	Value float64
	Valid bool
}

// Share returns part/total, or an invalid Ratio when total is zero.
func Share(part, total float64) Ratio {
	if total == 0 {
		return Ratio{}
	}
	return Ratio{Value: part / total, Valid: true}
}

func (r Ratio) String() string {
	if !r.Valid {
		return NotComputable
	}
	return strconv.FormatFloat(r.Value, 'g', -1, 64)
}

func (r Ratio) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Ratio) UnmarshalText(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "" || strings.EqualFold(s, NotComputable) {
		*r = Ratio{}
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse ratio %q: %w", s, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("parse ratio %q: not a finite number", s)
	}
	*r = Ratio{Value: v, Valid: true}
	return nil
}

// MarshalJSON encodes an invalid Ratio as null.
func (r Ratio) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.Value)
}

// UnmarshalJSON accepts a number or null.
func (r *Ratio) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*r = Ratio{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("parse ratio %s: %w", b, err)
	}
	*r = Ratio{Value: v, Valid: true}
	return nil
}

// ScoredDistrict is the aggregation output for one source row.
type ScoredDistrict struct {
	State            string  `csv:"state" json:"state"`
	District         string  `csv:"district" json:"district"`
	TotalCrimes      float64 `csv:"total_crimes" json:"total_crimes"`
	CrimeProbability Ratio   `csv:"crime_probability" json:"crime_probability"`
	DistrictScore    float64 `csv:"district_score" json:"district_score"`
	NormalizedScore  Ratio   `csv:"normalized_score" json:"normalized_score"`
}
