package leaflet

import (
	"bytes"
	_ "embed"
	"fmt"
	"html"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/couchcryptid/crime-score-map/internal/domain"
)

const (
	// Zoom is the initial map zoom level, roughly street scale.
	Zoom = 16
	// RadiusMeters is the radius of the circle drawn around the location.
	RadiusMeters = 100

	// fillBlend is how far the circle fill moves from the class color toward white.
	fillBlend = 0.6
)

//go:embed map.html.tmpl
var mapTemplate string

var tmpl = template.Must(template.New("map").Parse(mapTemplate))

// severityColors maps each class to its stroke color.
var severityColors = map[domain.Severity]string{
	domain.SeverityHigh:    "#d62728",
	domain.SeverityMedium:  "#ff7f0e",
	domain.SeverityLow:     "#2ca02c",
	domain.SeverityUnknown: "#7f7f7f",
}

// Renderer writes a self-contained Leaflet map for a resolved location.
type Renderer struct {
	path   string
	clock  clockwork.Clock
	logger *slog.Logger
}

// NewRenderer creates a Renderer writing to path. A nil clock uses wall time.
func NewRenderer(path string, clock clockwork.Clock, logger *slog.Logger) *Renderer {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Renderer{path: path, clock: clock, logger: logger}
}

type mapData struct {
	Title      string
	Lat        float64
	Lon        float64
	Zoom       int
	Radius     int
	Color      string
	FillColor  string
	Tooltip    string
	PopupHTML  string
	LegendHTML string
}

// Render writes the map and returns its absolute path.
func (r *Renderer) Render(loc domain.ResolvedLocation) (string, error) {
	data, err := r.buildData(loc)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render map: %w", err)
	}

	abs, err := filepath.Abs(r.path)
	if err != nil {
		return "", fmt.Errorf("resolve map path: %w", err)
	}
	if err := os.WriteFile(abs, buf.Bytes(), 0o644); err != nil { //nolint:gosec // map is meant to be opened by a browser
		return "", fmt.Errorf("write map: %w", err)
	}

	r.logger.Info("map written",
		"path", abs,
		"district", loc.District,
		"severity", loc.Severity(),
	)
	return abs, nil
}

func (r *Renderer) buildData(loc domain.ResolvedLocation) (mapData, error) {
	severity := loc.Severity()
	color := severityColors[severity]
	fill, err := blendWhite(color, fillBlend)
	if err != nil {
		return mapData{}, err
	}

	return mapData{
		Title:      "Crime score map",
		Lat:        loc.Point.Lat(),
		Lon:        loc.Point.Lon(),
		Zoom:       Zoom,
		Radius:     RadiusMeters,
		Color:      color,
		FillColor:  fill,
		Tooltip:    "Click me!",
		PopupHTML:  popupHTML(loc, r.clock.Now()),
		LegendHTML: legendHTML(),
	}, nil
}

func blendWhite(hex string, t float64) (string, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return "", fmt.Errorf("parse color %q: %w", hex, err)
	}
	white := colorful.Color{R: 1, G: 1, B: 1}
	return c.BlendRgb(white, t).Clamped().Hex(), nil
}

// popupHTML is handed to Leaflet as HTML, so every dynamic part is escaped here.
func popupHTML(loc domain.ResolvedLocation, generated time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", html.EscapeString(loc.Label()))
	fmt.Fprintf(&b, "<br>Location: %.5f, %.5f (%s)", loc.Point.Lat(), loc.Point.Lon(), html.EscapeString(loc.Source))
	if loc.Anchor != nil {
		fmt.Fprintf(&b, "<br>Nearest reference: %s, %.1f km", html.EscapeString(loc.Anchor.Name), loc.AnchorDistanceKm)
	}
	if loc.Matched() && !loc.Covered {
		b.WriteString("<br><i>Outside the reference area; district is approximate.</i>")
	}
	fmt.Fprintf(&b, "<br>Severity: %s", loc.Severity())
	fmt.Fprintf(&b, "<br><small>Generated %s</small>", generated.UTC().Format(time.RFC3339))
	return b.String()
}

func legendHTML() string {
	var b strings.Builder
	for _, s := range []domain.Severity{domain.SeverityHigh, domain.SeverityMedium, domain.SeverityLow, domain.SeverityUnknown} {
		fmt.Fprintf(&b, `<div><i style="background:%s"></i>%s</div>`, severityColors[s], s)
	}
	return b.String()
}
