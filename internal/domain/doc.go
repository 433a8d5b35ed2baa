// Package domain scores districts by reported crime and resolves a
// coordinate to the district whose score should be shown for it.
//
// # Data Source
//
// The aggregation stage reads a district-wise crime table in the shape of the
// NCRB "Crimes committed against Women" CSV: one row per district, a state
// column, a district column, a total-crimes column, and one numeric column per
// crime category. Blank numeric cells are read as zero.
//
// # Scoring
//
// Each category carries an integer severity weight between 0 and 20 (see
// [DefaultWeights]). A district's score is the weighted sum of its category
// counts. Categories without a weight contribute nothing; weighted categories
// missing from a row count as zero.
//
// Two shares are derived per district, both relative to the district's state:
//
//	crime_probability = total_crimes   / Σ total_crimes   (same state)
//	normalized_score  = district_score / Σ district_score (same state)
//
// When a state's total is zero the share is not computable. It is carried as
// an invalid [Ratio] and written as "NA", never as 0 or NaN.
//
// # Resolution
//
// A coordinate is mapped to a district either by the nearest reference point
// (squared Euclidean distance in degrees, first entry wins ties) or by a
// reverse geocoding provider. The nearest-point heuristic does not check
// administrative boundaries: a point far outside the reference set still
// resolves to its closest anchor. [Resolver.Covers] reports whether the point
// lies inside the padded bounding box of the set so callers can flag this.
//
// # Severity
//
// Crime probability maps to a display class:
//
//	> 0.05  high
//	> 0.02  medium
//	else    low
//
// Locations without a score are classed unknown.
package domain
