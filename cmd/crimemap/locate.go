package main

import (
	"encoding/json"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/couchcryptid/crime-score-map/internal/adapter/console"
	"github.com/couchcryptid/crime-score-map/internal/adapter/csvfile"
	"github.com/couchcryptid/crime-score-map/internal/adapter/ipapi"
	"github.com/couchcryptid/crime-score-map/internal/adapter/leaflet"
	"github.com/couchcryptid/crime-score-map/internal/adapter/mapbox"
	"github.com/couchcryptid/crime-score-map/internal/adapter/nominatim"
	"github.com/couchcryptid/crime-score-map/internal/config"
	"github.com/couchcryptid/crime-score-map/internal/domain"
	"github.com/couchcryptid/crime-score-map/internal/pipeline"
)

type locateFlags struct {
	lat, lon float64
	strategy string
	scored   string
	mapFile  string
	state    string
	noIP     bool
	open     bool
	asJSON   bool
}

func newLocateCmd(a *app) *cobra.Command {
	var f locateFlags

	cmd := &cobra.Command{
		Use:   "locate",
		Short: "Resolve the current location to a district and render its score on a map",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "latitude; skips automatic location")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "longitude; skips automatic location")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.Flags().StringVar(&f.strategy, "strategy", "", "district resolution: nearest or reverse (overrides RESOLVE_STRATEGY)")
	cmd.Flags().StringVar(&f.scored, "scored", "", "scored CSV to read (overrides SCORED_CSV)")
	cmd.Flags().StringVar(&f.mapFile, "map", "", "HTML map to write (overrides MAP_FILE)")
	cmd.Flags().StringVar(&f.state, "state", "", "state filter for score lookup (overrides STATE_FILTER)")
	cmd.Flags().BoolVar(&f.noIP, "no-ip", false, "skip IP geolocation and prompt for coordinates")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the map in the default browser")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the result as JSON")

	cmd.RunE = a.run(func(cmd *cobra.Command, _ []string) error {
		if err := f.apply(a.cfg); err != nil {
			return err
		}

		resolver, err := a.locationResolver()
		if err != nil {
			return err
		}

		stages := pipeline.LocatorStages{
			Manual: console.NewPrompter(cmd.InOrStdin(), cmd.OutOrStdout(),
				domain.NewPoint(a.cfg.DefaultLat, a.cfg.DefaultLon)),
			Resolver: resolver,
			Scores:   csvfile.NewScoreFile(a.cfg.ScoredCSV),
			Renderer: leaflet.NewRenderer(a.cfg.MapFile, clockwork.NewRealClock(), a.logger),
		}
		if !f.noIP {
			stages.IP = ipapi.NewClient(a.cfg.IPAPIURL, a.cfg.IPAPITimeout, a.logger, a.metrics)
		}

		var fixed *orb.Point
		if cmd.Flags().Changed("lat") {
			if !domain.ValidCoordinate(f.lat, f.lon) {
				return fmt.Errorf("coordinate out of range: %g, %g", f.lat, f.lon)
			}
			p := domain.NewPoint(f.lat, f.lon)
			fixed = &p
		}

		res, err := pipeline.NewLocator(stages, a.cfg.StateFilter, a.logger, a.metrics).Run(cmd.Context(), fixed)
		if err != nil {
			return err
		}

		if err := printResult(cmd, res, f.asJSON); err != nil {
			return err
		}
		if f.open {
			if err := browser.OpenFile(res.MapPath); err != nil {
				a.logger.Warn("could not open browser, open the map manually", "path", res.MapPath, "error", err)
			}
		}
		return nil
	})
	return cmd
}

func (f *locateFlags) apply(cfg *config.Config) error {
	if f.strategy != "" {
		s, err := domain.ParseStrategy(f.strategy)
		if err != nil {
			return err
		}
		cfg.Strategy = s
	}
	if f.scored != "" {
		cfg.ScoredCSV = f.scored
	}
	if f.mapFile != "" {
		cfg.MapFile = f.mapFile
	}
	if f.state != "" {
		cfg.StateFilter = f.state
	}
	return cfg.Validate()
}

func (a *app) locationResolver() (*domain.LocationResolver, error) {
	var geocoder domain.ReverseGeocoder
	if a.cfg.Strategy == domain.StrategyReverse {
		switch a.cfg.ReverseGeocoder {
		case config.GeocoderMapbox:
			geocoder = mapbox.NewClient(a.cfg.MapboxToken, a.cfg.GeocodeTimeout, a.logger, a.metrics)
		default:
			geocoder = nominatim.NewClient(a.cfg.NominatimURL, a.cfg.NominatimUserAgent, a.cfg.GeocodeTimeout, a.logger, a.metrics)
		}
		a.logger.Info("reverse geocoding enabled", "provider", a.cfg.ReverseGeocoder, "timeout", a.cfg.GeocodeTimeout)
	}
	return domain.NewLocationResolver(a.cfg.Strategy, domain.NewResolver(a.tables.References), geocoder, a.logger)
}

type locateOutput struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Label    string  `json:"label"`
	Severity string  `json:"severity"`
	MapPath  string  `json:"map_path"`
	domain.ResolvedLocation
}

func printResult(cmd *cobra.Command, res pipeline.LocateResult, asJSON bool) error {
	loc := res.Location
	out := cmd.OutOrStdout()
	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(locateOutput{
			Lat:              loc.Point.Lat(),
			Lon:              loc.Point.Lon(),
			Label:            loc.Label(),
			Severity:         string(loc.Severity()),
			MapPath:          res.MapPath,
			ResolvedLocation: loc,
		})
	}

	printf(out, "Location: %.5f, %.5f (%s)\n", loc.Point.Lat(), loc.Point.Lon(), loc.Source)
	printf(out, "%s [%s]\n", loc.Label(), loc.Severity())
	printf(out, "Map written to %s\n", res.MapPath)
	return nil
}
