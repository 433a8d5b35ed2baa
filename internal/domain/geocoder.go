package domain

import "context"

// ReverseGeocoder maps a coordinate to a district name from a geocoding
// provider's address components.
type ReverseGeocoder interface {
	// ReverseDistrict returns the district containing the coordinate, or ""
	// with a nil error when the provider has no district for it.
	ReverseDistrict(ctx context.Context, lat, lon float64) (string, error)
}
