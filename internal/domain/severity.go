package domain

// Severity is the display class derived from a district's crime probability.
type Severity string

const (
	SeverityHigh    Severity = "high"
	SeverityMedium  Severity = "medium"
	SeverityLow     Severity = "low"
	SeverityUnknown Severity = "unknown"
)

const (
	highProbability   = 0.05
	mediumProbability = 0.02
)

// ClassifyProbability maps a crime probability to a Severity. An invalid
// ratio is unknown.
func ClassifyProbability(p Ratio) Severity {
	switch {
	case !p.Valid:
		return SeverityUnknown
	case p.Value > highProbability:
		return SeverityHigh
	case p.Value > mediumProbability:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
