package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// Strategy selects how a coordinate becomes a district name.
type Strategy string

const (
	// StrategyNearest matches the closest entry of the reference table.
	StrategyNearest Strategy = "nearest"
	// StrategyReverse asks a reverse geocoding provider.
	StrategyReverse Strategy = "reverse"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyNearest, StrategyReverse:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown resolve strategy %q (want %q or %q)", s, StrategyNearest, StrategyReverse)
	}
}

// Location sources.
const (
	SourceFlag   = "flag"
	SourceIP     = "ip"
	SourceManual = "manual"
)

// ResolvedLocation is the result of one locate query.
type ResolvedLocation struct {
	Point    orb.Point `json:"-"`
	Source   string    `json:"source"`
	Strategy Strategy  `json:"strategy"`

	// District is empty when resolution missed.
	District string `json:"district,omitempty"`

	// Anchor and AnchorDistanceKm are set by the nearest strategy only.
	Anchor           *ReferencePoint `json:"-"`
	AnchorDistanceKm float64         `json:"anchor_distance_km,omitempty"`
	Covered          bool            `json:"covered"`

	Score      *ScoredDistrict `json:"score,omitempty"`
	ResolvedAt time.Time       `json:"resolved_at"`
}

// Matched reports whether a district was resolved.
func (l ResolvedLocation) Matched() bool { return l.District != "" }

// Severity classifies the location by its district's crime probability.
func (l ResolvedLocation) Severity() Severity {
	if l.Score == nil {
		return SeverityUnknown
	}
	return ClassifyProbability(l.Score.CrimeProbability)
}

// Label is the human-readable summary shown in the map popup.
func (l ResolvedLocation) Label() string {
	switch {
	case !l.Matched():
		return "Unknown location"
	case l.Score == nil:
		return fmt.Sprintf("%s: data not available", l.District)
	case !l.Score.CrimeProbability.Valid:
		return fmt.Sprintf("%s: crime probability not computable", l.District)
	default:
		return fmt.Sprintf("%s: %.2f%% crime probability", l.District, l.Score.CrimeProbability.Value*100)
	}
}

// LocationResolver turns coordinates into districts using one strategy.
type LocationResolver struct {
	strategy Strategy
	nearest  Resolver
	geocoder ReverseGeocoder
	logger   *slog.Logger
}

// NewLocationResolver checks that the collaborator required by strategy is present.
func NewLocationResolver(strategy Strategy, nearest Resolver, geocoder ReverseGeocoder, logger *slog.Logger) (*LocationResolver, error) {
	switch strategy {
	case StrategyNearest:
		if nearest == nil {
			return nil, errors.New("nearest strategy requires a reference resolver")
		}
	case StrategyReverse:
		if geocoder == nil {
			return nil, errors.New("reverse strategy requires a reverse geocoder")
		}
	default:
		return nil, fmt.Errorf("unknown resolve strategy %q", strategy)
	}
	return &LocationResolver{
		strategy: strategy,
		nearest:  nearest,
		geocoder: geocoder,
		logger:   logger,
	}, nil
}

// Resolve maps p to a district. On failure the returned location still carries
// the point and metadata, and the error wraps ErrResolutionMiss.
func (r *LocationResolver) Resolve(ctx context.Context, p orb.Point, source string) (ResolvedLocation, error) {
	loc := ResolvedLocation{
		Point:      p,
		Source:     source,
		Strategy:   r.strategy,
		ResolvedAt: clock.Now(),
	}

	if r.strategy == StrategyReverse {
		return r.resolveReverse(ctx, loc)
	}
	return r.resolveNearest(loc)
}

func (r *LocationResolver) resolveNearest(loc ResolvedLocation) (ResolvedLocation, error) {
	ref, err := r.nearest.Nearest(loc.Point)
	if err != nil {
		return loc, fmt.Errorf("%w: %w", ErrResolutionMiss, err)
	}

	loc.District = ref.Name
	loc.Anchor = &ref
	loc.AnchorDistanceKm = geo.DistanceHaversine(loc.Point, ref.Point) / 1000
	loc.Covered = r.nearest.Covers(loc.Point)
	if !loc.Covered {
		r.logger.Warn("location is outside the reference area, nearest district is approximate",
			"lat", loc.Point.Lat(),
			"lon", loc.Point.Lon(),
			"district", ref.Name,
			"distance_km", loc.AnchorDistanceKm,
		)
	}
	return loc, nil
}

func (r *LocationResolver) resolveReverse(ctx context.Context, loc ResolvedLocation) (ResolvedLocation, error) {
	name, err := r.geocoder.ReverseDistrict(ctx, loc.Point.Lat(), loc.Point.Lon())
	if err != nil {
		r.logger.Warn("reverse geocoding failed",
			"lat", loc.Point.Lat(),
			"lon", loc.Point.Lon(),
			"error", err,
		)
		return loc, fmt.Errorf("%w: %w", ErrResolutionMiss, err)
	}
	if name == "" {
		return loc, fmt.Errorf("%w: no district at %.4f,%.4f", ErrResolutionMiss, loc.Point.Lat(), loc.Point.Lon())
	}
	loc.District = name
	loc.Covered = true
	return loc, nil
}
