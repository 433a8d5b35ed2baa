package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/couchcryptid/crime-score-map/internal/observability"
)

const (
	service = "nominatim"

	// zoom 10 asks for city/district level detail.
	reverseZoom = "10"
)

// districtKeys lists the address components that can name a district, most
// specific first.
var districtKeys = []string{"state_district", "county", "city_district", "district"}

// Client implements domain.ReverseGeocoder using the Nominatim reverse API.
// Requests are limited to one per second as the public usage policy requires.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a Nominatim client. userAgent must identify the application.
func NewClient(baseURL, userAgent string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 1),
		logger:     logger,
		metrics:    metrics,
	}
}

// ReverseDistrict returns the district address component for the coordinate,
// or "" when Nominatim has none.
func (c *Client) ReverseDistrict(ctx context.Context, lat, lon float64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("nominatim rate limit: %w", err)
	}

	start := time.Now()
	addr, err := c.reverse(ctx, lat, lon)
	c.metrics.ExternalDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(service, "error").Inc()
		return "", err
	}

	for _, key := range districtKeys {
		if name := strings.TrimSpace(addr[key]); name != "" {
			c.metrics.ExternalRequests.WithLabelValues(service, "success").Inc()
			c.logger.Debug("nominatim reverse geocode", "district", name, "component", key)
			return name, nil
		}
	}

	c.metrics.ExternalRequests.WithLabelValues(service, "empty").Inc()
	c.logger.Debug("nominatim returned no district", "lat", lat, "lon", lon)
	return "", nil
}

func (c *Client) reverse(ctx context.Context, lat, lon float64) (map[string]string, error) {
	params := url.Values{
		"format":         {"jsonv2"},
		"lat":            {strconv.FormatFloat(lat, 'f', -1, 64)},
		"lon":            {strconv.FormatFloat(lon, 'f', -1, 64)},
		"zoom":           {reverseZoom},
		"addressdetails": {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim reverse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("nominatim API error: status %d: %s", resp.StatusCode, body)
	}

	var r response
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	// Points with no address (open sea) come back as {"error": "Unable to geocode"}.
	if r.Error != "" {
		return nil, nil
	}
	return r.Address, nil
}

type response struct {
	DisplayName string            `json:"display_name"`
	Address     map[string]string `json:"address"`
	Error       string            `json:"error"`
}
