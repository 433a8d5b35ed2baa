package domain

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/paulmach/orb"
)

// WeightTable maps a crime category name to its severity weight.
type WeightTable map[string]float64

// DefaultWeights returns the severity weights for the NCRB crimes-against-women
// categories. Weights range from 0 (not scored) to 20.
func DefaultWeights() WeightTable {
	return WeightTable{
		"Rape":                                20,
		"Attempt to commit Rape":              15,
		"Dowry Deaths":                        0,
		"Abetment of Suicides of Women":       16,
		"Kidnapping & Abduction_Total":        18,
		"Cruelty by Husband or his Relatives": 10,
		"Assault on Women with intent to outrage her Modesty_Total": 14,
		"Insult to the Modesty of Women_Total":                      10,
		"Protection of Children from Sexual Offences Act":           20,
		"Importation of Girls from Foreign Country":                 17,
		"Immoral Traffic Prevention Act":                            0,
		"Dowry Prohibition Act, 1961":                               0,
		"Protection of Women from Domestic Violence Act, 2005":      10,
		"Indecent Representation of Women (P) Act, 1986":            0,
	}
}

// Validate rejects empty tables and negative weights.
func (w WeightTable) Validate() error {
	if len(w) == 0 {
		return errors.New("weight table is empty")
	}
	for _, name := range w.Categories() {
		if w[name] < 0 {
			return fmt.Errorf("weight for %q is negative: %g", name, w[name])
		}
	}
	return nil
}

// Categories returns the category names in sorted order.
func (w WeightTable) Categories() []string {
	return slices.Sorted(maps.Keys(w))
}

// Score returns Σ counts[c] * w[c] over the weighted categories. Counts for
// unweighted categories are ignored.
func (w WeightTable) Score(counts map[string]float64) float64 {
	var score float64
	for _, name := range w.Categories() {
		score += counts[name] * w[name]
	}
	return score
}

// NewPoint builds an orb.Point from latitude and longitude. orb stores [lon, lat].
func NewPoint(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// ValidCoordinate reports whether lat is in [-90, 90] and lon in [-180, 180].
func ValidCoordinate(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// ReferencePoint anchors a named district at a coordinate.
type ReferencePoint struct {
	Name  string
	Point orb.Point
}

// ReferenceTable is an ordered set of reference points. Order is significant:
// it decides ties in nearest-point resolution.
type ReferenceTable []ReferencePoint

// DefaultReferenceTable returns approximate centers of the eleven Delhi districts.
func DefaultReferenceTable() ReferenceTable {
	return ReferenceTable{
		{Name: "Central", Point: NewPoint(28.68, 77.22)},
		{Name: "East", Point: NewPoint(28.63, 77.30)},
		{Name: "New Delhi", Point: NewPoint(28.61, 77.21)},
		{Name: "North", Point: NewPoint(28.75, 77.14)},
		{Name: "North-East", Point: NewPoint(28.72, 77.26)},
		{Name: "North-West", Point: NewPoint(28.75, 77.06)},
		{Name: "Outer", Point: NewPoint(28.7041, 77.1025)},
		{Name: "South", Point: NewPoint(28.49, 77.18)},
		{Name: "South-East", Point: NewPoint(28.55, 77.27)},
		{Name: "South-West", Point: NewPoint(28.61, 76.98)},
		{Name: "West", Point: NewPoint(28.66, 77.06)},
	}
}

// Validate rejects blank or duplicate names and out-of-range coordinates.
// An empty table is valid here; resolution on it fails with ErrEmptyReferenceSet.
func (t ReferenceTable) Validate() error {
	seen := make(map[string]struct{}, len(t))
	for i, ref := range t {
		if ref.Name == "" {
			return fmt.Errorf("reference point %d has no name", i)
		}
		if _, dup := seen[ref.Name]; dup {
			return fmt.Errorf("duplicate reference point %q", ref.Name)
		}
		seen[ref.Name] = struct{}{}
		if !ValidCoordinate(ref.Point.Lat(), ref.Point.Lon()) {
			return fmt.Errorf("reference point %q has invalid coordinate %v", ref.Name, ref.Point)
		}
	}
	return nil
}

// Bound returns the bounding box of all points. The zero Bound is returned for
// an empty table.
func (t ReferenceTable) Bound() orb.Bound {
	if len(t) == 0 {
		return orb.Bound{}
	}
	b := t[0].Point.Bound()
	for _, ref := range t[1:] {
		b = b.Extend(ref.Point)
	}
	return b
}
