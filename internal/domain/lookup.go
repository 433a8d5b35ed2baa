package domain

import (
	"strings"

	"golang.org/x/text/cases"
)

// Lookup returns the first row whose state contains stateFilter and whose
// district equals district, both compared case-insensitively. A miss is
// reported through the boolean and is not an error.
func Lookup(scored []ScoredDistrict, stateFilter, district string) (ScoredDistrict, bool) {
	fold := cases.Fold()
	state := fold.String(stateFilter)
	name := fold.String(district)

	for _, row := range scored {
		if !strings.Contains(fold.String(row.State), state) {
			continue
		}
		if fold.String(row.District) == name {
			return row, true
		}
	}
	return ScoredDistrict{}, false
}
