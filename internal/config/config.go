package config

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

// Reverse geocoding providers.
const (
	GeocoderNominatim = "nominatim"
	GeocoderMapbox    = "mapbox"
)

// Config holds all settings for the aggregate and locate stages, populated
// from environment variables. Command-line flags override individual fields.
type Config struct {
	LogLevel  string
	LogFormat string

	// Aggregation stage.
	InputCSV       string
	ScoredCSV      string
	StateColumn    string
	DistrictColumn string
	TotalColumn    string
	TablesFile     string

	// Locate stage.
	MapFile        string
	StateFilter    string
	Strategy       domain.Strategy
	DefaultLat     float64
	DefaultLon     float64
	IPAPIURL       string
	IPAPITimeout   time.Duration
	GeocodeTimeout time.Duration

	// Reverse geocoding, used only with the reverse strategy.
	ReverseGeocoder    string
	NominatimURL       string
	NominatimUserAgent string
	MapboxToken        string

	// MetricsTextfile, when set, receives a Prometheus text dump at exit.
	MetricsTextfile string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	strategy, err := domain.ParseStrategy(sharedcfg.EnvOrDefault("RESOLVE_STRATEGY", string(domain.StrategyNearest)))
	if err != nil {
		return nil, fmt.Errorf("invalid RESOLVE_STRATEGY: %w", err)
	}

	ipTimeout, err := parseDuration("IPAPI_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}
	geocodeTimeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	defaultLat, err := parseFloat("DEFAULT_LAT", "12.9716")
	if err != nil {
		return nil, err
	}
	defaultLon, err := parseFloat("DEFAULT_LON", "77.5946")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		LogLevel:  sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),

		InputCSV:       sharedcfg.EnvOrDefault("INPUT_CSV", "District-wise_Crimes_committed_against_Women_2015_1.csv"),
		ScoredCSV:      sharedcfg.EnvOrDefault("SCORED_CSV", "district_crime_scores.csv"),
		StateColumn:    sharedcfg.EnvOrDefault("STATE_COLUMN", "State/ UT"),
		DistrictColumn: sharedcfg.EnvOrDefault("DISTRICT_COLUMN", "District/ Area"),
		TotalColumn:    sharedcfg.EnvOrDefault("TOTAL_COLUMN", "Total Crimes against Women"),
		TablesFile:     sharedcfg.EnvOrDefault("TABLES_FILE", ""),

		MapFile:        sharedcfg.EnvOrDefault("MAP_FILE", "offline_location_map.html"),
		StateFilter:    sharedcfg.EnvOrDefault("STATE_FILTER", "Delhi"),
		Strategy:       strategy,
		DefaultLat:     defaultLat,
		DefaultLon:     defaultLon,
		IPAPIURL:       sharedcfg.EnvOrDefault("IPAPI_URL", "http://ip-api.com/json/"),
		IPAPITimeout:   ipTimeout,
		GeocodeTimeout: geocodeTimeout,

		ReverseGeocoder:    sharedcfg.EnvOrDefault("REVERSE_GEOCODER", GeocoderNominatim),
		NominatimURL:       sharedcfg.EnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
		NominatimUserAgent: sharedcfg.EnvOrDefault("NOMINATIM_USER_AGENT", "crime-score-map/1.0"),
		MapboxToken:        sharedcfg.EnvOrDefault("MAPBOX_TOKEN", ""),

		MetricsTextfile: sharedcfg.EnvOrDefault("METRICS_TEXTFILE", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints. Commands call it again after
// applying flag overrides.
func (c *Config) Validate() error {
	if c.StateColumn == "" || c.DistrictColumn == "" || c.TotalColumn == "" {
		return errors.New("STATE_COLUMN, DISTRICT_COLUMN and TOTAL_COLUMN must not be empty")
	}
	if !domain.ValidCoordinate(c.DefaultLat, c.DefaultLon) {
		return fmt.Errorf("DEFAULT_LAT/DEFAULT_LON out of range: %g, %g", c.DefaultLat, c.DefaultLon)
	}
	switch c.ReverseGeocoder {
	case GeocoderNominatim:
		if c.Strategy == domain.StrategyReverse && c.NominatimUserAgent == "" {
			return errors.New("NOMINATIM_USER_AGENT is required by the Nominatim usage policy")
		}
	case GeocoderMapbox:
		if c.Strategy == domain.StrategyReverse && c.MapboxToken == "" {
			return errors.New("REVERSE_GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return fmt.Errorf("invalid REVERSE_GEOCODER %q", c.ReverseGeocoder)
	}
	return nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	v, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}
