package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/crime-score-map/internal/domain"
	"github.com/couchcryptid/crime-score-map/internal/observability"
)

// RecordExtractor reads the raw district rows.
type RecordExtractor interface {
	ExtractRecords(ctx context.Context) ([]domain.CrimeRecord, error)
}

// ScoreLoader persists the scored rows.
type ScoreLoader interface {
	LoadScores(ctx context.Context, rows []domain.ScoredDistrict) error
}

// AggregateSummary describes a finished aggregation run.
type AggregateSummary struct {
	Records             int
	NonComputableStates []string
	Duration            time.Duration
}

// Aggregation runs the offline stage: extract, score, load.
type Aggregation struct {
	extractor RecordExtractor
	loader    ScoreLoader
	weights   domain.WeightTable
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewAggregation creates an Aggregation with the given stages and observability.
func NewAggregation(e RecordExtractor, l ScoreLoader, weights domain.WeightTable, logger *slog.Logger, metrics *observability.Metrics) *Aggregation {
	return &Aggregation{
		extractor: e,
		loader:    l,
		weights:   weights,
		logger:    logger,
		metrics:   metrics,
	}
}

// Run executes one aggregation. Nothing is written if extraction fails.
func (a *Aggregation) Run(ctx context.Context) (AggregateSummary, error) {
	start := time.Now()
	a.logger.Info("aggregation started", "categories", len(a.weights))

	records, err := a.extractor.ExtractRecords(ctx)
	if err != nil {
		return AggregateSummary{}, fmt.Errorf("extract records: %w", err)
	}
	a.metrics.RecordsRead.Add(float64(len(records)))

	scored := domain.Aggregate(records, a.weights)
	nonComputable := domain.NonComputableStates(scored)
	for _, state := range nonComputable {
		a.logger.Warn("state total is zero, shares written as NA", "state", state)
	}
	a.metrics.NonComputableStates.Add(float64(len(nonComputable)))

	if err := a.loader.LoadScores(ctx, scored); err != nil {
		return AggregateSummary{}, fmt.Errorf("load scores: %w", err)
	}
	a.metrics.DistrictsScored.Add(float64(len(scored)))

	elapsed := time.Since(start)
	a.metrics.AggregateDuration.Observe(elapsed.Seconds())
	a.logger.Info("aggregation complete",
		"districts", len(scored),
		"non_computable_states", len(nonComputable),
		"duration", elapsed,
	)
	return AggregateSummary{
		Records:             len(scored),
		NonComputableStates: nonComputable,
		Duration:            elapsed,
	}, nil
}
