package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/crime-score-map/internal/domain"
	"github.com/couchcryptid/crime-score-map/internal/observability"
	"github.com/couchcryptid/crime-score-map/internal/pipeline"
)

// --- mocks ---

type mockExtractor struct {
	records []domain.CrimeRecord
	err     error
}

func (m *mockExtractor) ExtractRecords(context.Context) ([]domain.CrimeRecord, error) {
	return m.records, m.err
}

type mockLoader struct {
	loaded []domain.ScoredDistrict
	calls  int
	err    error
}

func (m *mockLoader) LoadScores(_ context.Context, rows []domain.ScoredDistrict) error {
	m.calls++
	m.loaded = rows
	return m.err
}

type mockIP struct {
	point orb.Point
	err   error
	calls int
}

func (m *mockIP) Locate(context.Context) (orb.Point, error) {
	m.calls++
	return m.point, m.err
}

type mockManual struct {
	confirm    bool
	confirmErr error
	point      orb.Point
	err        error
	asked      []string
}

func (m *mockManual) Confirm(_ context.Context, q string) (bool, error) {
	m.asked = append(m.asked, q)
	return m.confirm, m.confirmErr
}

func (m *mockManual) Coordinates(context.Context) (orb.Point, error) {
	return m.point, m.err
}

type mockScores struct {
	rows []domain.ScoredDistrict
	err  error
}

func (m *mockScores) ReadScores(context.Context) ([]domain.ScoredDistrict, error) {
	return m.rows, m.err
}

type mockRenderer struct {
	rendered []domain.ResolvedLocation
	err      error
}

func (m *mockRenderer) Render(loc domain.ResolvedLocation) (string, error) {
	m.rendered = append(m.rendered, loc)
	return "/tmp/map.html", m.err
}

type mockGeocoder struct {
	name string
	err  error
}

func (m mockGeocoder) ReverseDistrict(context.Context, float64, float64) (string, error) {
	return m.name, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

// --- aggregation ---

func delhiRecords() []domain.CrimeRecord {
	return []domain.CrimeRecord{
		{State: "Delhi", District: "Central", Counts: map[string]float64{"Rape": 1}, TotalCrimes: 7},
		{State: "Delhi", District: "East", Counts: map[string]float64{"Rape": 2}, TotalCrimes: 5},
		{State: "Lakshadweep", District: "Lakshadweep", Counts: map[string]float64{}, TotalCrimes: 0},
	}
}

func TestAggregation_Run(t *testing.T) {
	ext := &mockExtractor{records: delhiRecords()}
	ldr := &mockLoader{}
	metrics := newTestMetrics()

	a := pipeline.NewAggregation(ext, ldr, domain.WeightTable{"Rape": 20}, discardLogger(), metrics)
	summary, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Records)
	assert.Equal(t, []string{"Lakshadweep"}, summary.NonComputableStates)

	want := []domain.ScoredDistrict{
		{State: "Delhi", District: "Central", TotalCrimes: 7, CrimeProbability: domain.Share(7, 12), DistrictScore: 20, NormalizedScore: domain.Share(20, 60)},
		{State: "Delhi", District: "East", TotalCrimes: 5, CrimeProbability: domain.Share(5, 12), DistrictScore: 40, NormalizedScore: domain.Share(40, 60)},
		{State: "Lakshadweep", District: "Lakshadweep"},
	}
	if diff := cmp.Diff(want, ldr.loaded); diff != "" {
		t.Errorf("loaded rows mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.RecordsRead))
	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.DistrictsScored))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.NonComputableStates))
}

func TestAggregation_Run_ExtractError(t *testing.T) {
	ext := &mockExtractor{err: domain.ErrDataLoad}
	ldr := &mockLoader{}

	a := pipeline.NewAggregation(ext, ldr, domain.DefaultWeights(), discardLogger(), newTestMetrics())
	_, err := a.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrDataLoad)
	assert.Zero(t, ldr.calls, "nothing is written when extraction fails")
}

func TestAggregation_Run_LoadError(t *testing.T) {
	ext := &mockExtractor{records: delhiRecords()}
	ldr := &mockLoader{err: errors.New("disk full")}
	metrics := newTestMetrics()

	a := pipeline.NewAggregation(ext, ldr, domain.DefaultWeights(), discardLogger(), metrics)
	_, err := a.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Zero(t, testutil.ToFloat64(metrics.DistrictsScored))
}

// --- locate ---

func delhiScores() []domain.ScoredDistrict {
	return []domain.ScoredDistrict{
		{State: "Delhi", District: "Central", TotalCrimes: 7, CrimeProbability: domain.Share(7, 12)},
		{State: "Delhi", District: "East", TotalCrimes: 5, CrimeProbability: domain.Share(5, 12)},
		{State: "Karnataka", District: "Central", TotalCrimes: 1, CrimeProbability: domain.Share(1, 10)},
	}
}

func nearestResolver(t *testing.T) *domain.LocationResolver {
	t.Helper()
	r, err := domain.NewLocationResolver(domain.StrategyNearest,
		domain.NewResolver(domain.DefaultReferenceTable()), nil, discardLogger())
	require.NoError(t, err)
	return r
}

func newLocator(t *testing.T, stages pipeline.LocatorStages, metrics *observability.Metrics) *pipeline.Locator {
	t.Helper()
	if stages.Resolver == nil {
		stages.Resolver = nearestResolver(t)
	}
	if stages.Scores == nil {
		stages.Scores = &mockScores{rows: delhiScores()}
	}
	return pipeline.NewLocator(stages, "Delhi", discardLogger(), metrics)
}

func TestLocator_Run_FixedPoint(t *testing.T) {
	ip := &mockIP{}
	renderer := &mockRenderer{}
	metrics := newTestMetrics()
	fixed := domain.NewPoint(28.68, 77.22)

	l := newLocator(t, pipeline.LocatorStages{IP: ip, Renderer: renderer}, metrics)
	res, err := l.Run(context.Background(), &fixed)
	require.NoError(t, err)

	assert.Zero(t, ip.calls, "fixed point skips ip lookup")
	assert.Equal(t, "/tmp/map.html", res.MapPath)
	assert.Equal(t, "Central", res.Location.District)
	assert.Equal(t, domain.SourceFlag, res.Location.Source)
	require.NotNil(t, res.Location.Score)
	assert.Equal(t, "Delhi", res.Location.Score.State, "state filter picks the Delhi row")
	assert.Equal(t, domain.SeverityHigh, res.Location.Severity())
	require.Len(t, renderer.rendered, 1)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("nearest", "matched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScoreLookups.WithLabelValues("found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.MapsRendered))
}

func TestLocator_Run_IPLocation(t *testing.T) {
	ip := &mockIP{point: domain.NewPoint(28.63, 77.30)}
	manual := &mockManual{}

	l := newLocator(t, pipeline.LocatorStages{IP: ip, Manual: manual, Renderer: &mockRenderer{}}, newTestMetrics())
	res, err := l.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, domain.SourceIP, res.Location.Source)
	assert.Equal(t, "East", res.Location.District)
	assert.Empty(t, manual.asked)
}

func TestLocator_Run_ManualFallback(t *testing.T) {
	ip := &mockIP{err: domain.ErrLocationUnavailable}
	manual := &mockManual{confirm: true, point: domain.NewPoint(28.61, 77.21)}
	metrics := newTestMetrics()

	l := newLocator(t, pipeline.LocatorStages{IP: ip, Manual: manual, Renderer: &mockRenderer{}}, metrics)
	res, err := l.Run(context.Background(), nil)
	require.NoError(t, err)

	assert.Len(t, manual.asked, 1)
	assert.Equal(t, domain.SourceManual, res.Location.Source)
	assert.Equal(t, "New Delhi", res.Location.District)
	assert.Nil(t, res.Location.Score, "New Delhi has no scored row here")
	assert.Equal(t, "New Delhi: data not available", res.Location.Label())

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LocationAcquisitions.WithLabelValues("ip", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LocationAcquisitions.WithLabelValues("manual", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.ScoreLookups.WithLabelValues("not_found")))
}

func TestLocator_Run_ManualDeclined(t *testing.T) {
	ip := &mockIP{err: domain.ErrLocationUnavailable}
	manual := &mockManual{confirm: false}
	renderer := &mockRenderer{}

	l := newLocator(t, pipeline.LocatorStages{IP: ip, Manual: manual, Renderer: renderer}, newTestMetrics())
	_, err := l.Run(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrLocationUnavailable)
	assert.Empty(t, renderer.rendered)
}

func TestLocator_Run_ManualInputClosed(t *testing.T) {
	manual := &mockManual{err: domain.ErrInputClosed}

	l := newLocator(t, pipeline.LocatorStages{Manual: manual, Renderer: &mockRenderer{}}, newTestMetrics())
	_, err := l.Run(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrLocationUnavailable)
	assert.ErrorIs(t, err, domain.ErrInputClosed)
	assert.Empty(t, manual.asked, "no confirmation when ip lookup is disabled")
}

func TestLocator_Run_NoSources(t *testing.T) {
	l := newLocator(t, pipeline.LocatorStages{Renderer: &mockRenderer{}}, newTestMetrics())
	_, err := l.Run(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrLocationUnavailable)
}

func TestLocator_Run_ResolutionMissStillRenders(t *testing.T) {
	resolver, err := domain.NewLocationResolver(domain.StrategyReverse, nil,
		mockGeocoder{err: errors.New("service down")}, discardLogger())
	require.NoError(t, err)

	renderer := &mockRenderer{}
	metrics := newTestMetrics()
	fixed := domain.NewPoint(12.9716, 77.5946)

	l := newLocator(t, pipeline.LocatorStages{Resolver: resolver, Renderer: renderer}, metrics)
	res, err := l.Run(context.Background(), &fixed)
	require.NoError(t, err)

	assert.False(t, res.Location.Matched())
	assert.Equal(t, "Unknown location", res.Location.Label())
	assert.Equal(t, domain.SeverityUnknown, res.Location.Severity())
	require.Len(t, renderer.rendered, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Resolutions.WithLabelValues("reverse", "miss")))
}

func TestLocator_Run_ScoresMissing(t *testing.T) {
	ip := &mockIP{}
	l := newLocator(t, pipeline.LocatorStages{
		IP:       ip,
		Scores:   &mockScores{err: domain.ErrDataLoad},
		Renderer: &mockRenderer{},
	}, newTestMetrics())

	_, err := l.Run(context.Background(), nil)
	require.ErrorIs(t, err, domain.ErrDataLoad)
	assert.Zero(t, ip.calls, "scores are loaded before acquisition")
}

func TestLocator_Run_RenderError(t *testing.T) {
	fixed := domain.NewPoint(28.68, 77.22)
	l := newLocator(t, pipeline.LocatorStages{Renderer: &mockRenderer{err: errors.New("read-only")}}, newTestMetrics())

	_, err := l.Run(context.Background(), &fixed)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render map")
}

func TestLocator_Run_CanceledDuringIP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	manual := &mockManual{confirm: true}
	l := newLocator(t, pipeline.LocatorStages{
		IP:       &mockIP{err: context.Canceled},
		Manual:   manual,
		Renderer: &mockRenderer{},
	}, newTestMetrics())

	_, err := l.Run(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, manual.asked)
}
