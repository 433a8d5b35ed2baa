package ipapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulmach/orb"

	"github.com/couchcryptid/crime-score-map/internal/domain"
	"github.com/couchcryptid/crime-score-map/internal/observability"
)

const service = "ipapi"

// Client estimates the device location from its public IP address.
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates an ip-api client. The timeout bounds the whole request.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
}

// Locate returns the approximate coordinate of the public IP. Every failure,
// including a "fail" status from the service, wraps domain.ErrLocationUnavailable.
func (c *Client) Locate(ctx context.Context) (orb.Point, error) {
	start := time.Now()
	res, err := c.fetch(ctx)
	c.metrics.ExternalDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.ExternalRequests.WithLabelValues(service, "error").Inc()
		return orb.Point{}, fmt.Errorf("%w: %w", domain.ErrLocationUnavailable, err)
	}
	c.metrics.ExternalRequests.WithLabelValues(service, "success").Inc()

	c.logger.Info("location found from ip address",
		"city", res.City,
		"region", res.RegionName,
		"country", res.Country,
		"lat", res.Lat,
		"lon", res.Lon,
	)
	return domain.NewPoint(res.Lat, res.Lon), nil
}

func (c *Client) fetch(ctx context.Context) (response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return response{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return response{}, fmt.Errorf("ip lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return response{}, fmt.Errorf("ip-api status %d", resp.StatusCode)
	}

	var res response
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return response{}, fmt.Errorf("decode response: %w", err)
	}
	if res.Status != "success" {
		return response{}, fmt.Errorf("ip-api lookup failed: %s", res.Message)
	}
	if !domain.ValidCoordinate(res.Lat, res.Lon) {
		return response{}, fmt.Errorf("ip-api returned invalid coordinate %g,%g", res.Lat, res.Lon)
	}
	return res, nil
}

// response is the subset of the ip-api JSON body we use.
type response struct {
	Status     string  `json:"status"`
	Message    string  `json:"message"`
	Country    string  `json:"country"`
	RegionName string  `json:"regionName"`
	City       string  `json:"city"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Query      string  `json:"query"`
}
