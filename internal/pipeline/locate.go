package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/crime-score-map/internal/domain"
	"github.com/couchcryptid/crime-score-map/internal/observability"
)

// IPLocator estimates the device location from its network address.
type IPLocator interface {
	Locate(ctx context.Context) (orb.Point, error)
}

// ManualInput asks the user for a location.
type ManualInput interface {
	Confirm(ctx context.Context, question string) (bool, error)
	Coordinates(ctx context.Context) (orb.Point, error)
}

// DistrictResolver maps a coordinate to a district.
type DistrictResolver interface {
	Resolve(ctx context.Context, p orb.Point, source string) (domain.ResolvedLocation, error)
}

// ScoreReader loads the scored dataset.
type ScoreReader interface {
	ReadScores(ctx context.Context) ([]domain.ScoredDistrict, error)
}

// MapRenderer writes a map for a location and returns where it went.
type MapRenderer interface {
	Render(loc domain.ResolvedLocation) (string, error)
}

// LocatorStages bundles the collaborators of a Locator. IP and Manual may be
// nil to disable that acquisition source.
type LocatorStages struct {
	IP       IPLocator
	Manual   ManualInput
	Resolver DistrictResolver
	Scores   ScoreReader
	Renderer MapRenderer
}

// LocateResult is the outcome of a locate run.
type LocateResult struct {
	Location domain.ResolvedLocation
	MapPath  string
}

// Locator runs the interactive stage: acquire, resolve, look up, render.
type Locator struct {
	stages      LocatorStages
	stateFilter string
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewLocator creates a Locator. stateFilter restricts score lookups to
// matching states.
func NewLocator(stages LocatorStages, stateFilter string, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		stages:      stages,
		stateFilter: stateFilter,
		logger:      logger,
		metrics:     metrics,
	}
}

const manualQuestion = "Could not determine your location automatically. Enter coordinates manually?"

// Run acquires a location (fixed, when non-nil, skips acquisition), resolves
// it and renders the map. Resolution misses and missing scores are logged and
// still produce a map; data load, acquisition and render failures are returned.
func (l *Locator) Run(ctx context.Context, fixed *orb.Point) (LocateResult, error) {
	scored, err := l.stages.Scores.ReadScores(ctx)
	if err != nil {
		return LocateResult{}, fmt.Errorf("read scores: %w", err)
	}

	point, source, err := l.acquire(ctx, fixed)
	if err != nil {
		return LocateResult{}, err
	}
	l.logger.Info("using coordinates", "lat", point.Lat(), "lon", point.Lon(), "source", source)

	loc, err := l.stages.Resolver.Resolve(ctx, point, source)
	if err != nil {
		if ctx.Err() != nil {
			return LocateResult{}, ctx.Err()
		}
		if !errors.Is(err, domain.ErrResolutionMiss) {
			return LocateResult{}, fmt.Errorf("resolve location: %w", err)
		}
		l.metrics.Resolutions.WithLabelValues(string(loc.Strategy), "miss").Inc()
		l.logger.Warn("no district for location, rendering without score", "error", err)
	} else {
		l.metrics.Resolutions.WithLabelValues(string(loc.Strategy), "matched").Inc()
		l.attachScore(&loc, scored)
	}

	path, err := l.stages.Renderer.Render(loc)
	if err != nil {
		return LocateResult{}, fmt.Errorf("render map: %w", err)
	}
	l.metrics.MapsRendered.Inc()

	return LocateResult{Location: loc, MapPath: path}, nil
}

func (l *Locator) attachScore(loc *domain.ResolvedLocation, scored []domain.ScoredDistrict) {
	row, ok := domain.Lookup(scored, l.stateFilter, loc.District)
	if !ok {
		l.metrics.ScoreLookups.WithLabelValues("not_found").Inc()
		l.logger.Warn("district resolved but not scored",
			"error", fmt.Errorf("%w: %q in state %q", domain.ErrScoreNotFound, loc.District, l.stateFilter),
		)
		return
	}
	l.metrics.ScoreLookups.WithLabelValues("found").Inc()
	loc.Score = &row
	l.logger.Info("district resolved",
		"district", loc.District,
		"state", row.State,
		"crime_probability", row.CrimeProbability.String(),
		"severity", loc.Severity(),
	)
}

// acquire picks the location source: the fixed point, then IP geolocation,
// then manual entry after the user agrees to it.
func (l *Locator) acquire(ctx context.Context, fixed *orb.Point) (orb.Point, string, error) {
	if fixed != nil {
		l.metrics.LocationAcquisitions.WithLabelValues(domain.SourceFlag, "success").Inc()
		return *fixed, domain.SourceFlag, nil
	}

	if l.stages.IP != nil {
		l.logger.Info("looking up location from ip address")
		p, err := l.stages.IP.Locate(ctx)
		if err == nil {
			l.metrics.LocationAcquisitions.WithLabelValues(domain.SourceIP, "success").Inc()
			return p, domain.SourceIP, nil
		}
		l.metrics.LocationAcquisitions.WithLabelValues(domain.SourceIP, "error").Inc()
		if ctx.Err() != nil {
			return orb.Point{}, "", ctx.Err()
		}
		l.logger.Warn("ip geolocation failed", "error", err)

		if l.stages.Manual == nil {
			return orb.Point{}, "", err
		}
		ok, err := l.stages.Manual.Confirm(ctx, manualQuestion)
		if err != nil {
			return orb.Point{}, "", fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
		}
		if !ok {
			return orb.Point{}, "", fmt.Errorf("%w: manual entry declined", domain.ErrLocationUnavailable)
		}
	}

	if l.stages.Manual == nil {
		return orb.Point{}, "", fmt.Errorf("%w: no location source configured", domain.ErrLocationUnavailable)
	}
	p, err := l.stages.Manual.Coordinates(ctx)
	if err != nil {
		l.metrics.LocationAcquisitions.WithLabelValues(domain.SourceManual, "error").Inc()
		return orb.Point{}, "", fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	l.metrics.LocationAcquisitions.WithLabelValues(domain.SourceManual, "success").Inc()
	return p, domain.SourceManual, nil
}
