// Package geocode fills missing store coordinates from an external
// forward-geocoding HTTP provider.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/smartcart/optimizer-service/internal/scoring"
)

// ErrUnavailable covers every way a lookup can fail to produce coordinates:
// provider returned no match, a non-2xx status, or a transport error. The
// caller treats all of them the same way and leaves the store without
// coordinates, never a placeholder.
var ErrUnavailable = errors.New("geocoding unavailable")

// ClientConfig configures the geocoding HTTP client. The provider has no
// documented concurrency allowance, so the rate limit is a courtesy
// throttle, not an optimization.
type ClientConfig struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
}

// DefaultClientConfig returns the default client configuration.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           "https://api-adresse.data.gouv.fr",
		RequestsPerSecond: 1,
		Timeout:           30 * time.Second,
		UserAgent:         "smartcart-optimizer/1.0",
	}
}

// Client is a rate-limited client for the geocoding provider.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient creates a geocoding client.
func NewClient(cfg ClientConfig) *Client {
	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = 1
	}
	return &Client{
		baseURL:    cfg.BaseURL,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		logger:     log.With().Str("component", "geocode_client").Logger(),
	}
}

// featureCollection is the slice of the provider's GeoJSON response we
// actually read. Coordinates come back as [longitude, latitude].
type featureCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Lookup resolves a free-text address to coordinates. It returns
// ErrUnavailable (possibly wrapped) for no-match, non-2xx, and transport
// failures alike.
func (c *Client) Lookup(ctx context.Context, query string) (scoring.Coordinate, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return scoring.Coordinate{}, err
	}

	u := fmt.Sprintf("%s/api/?q=%s&limit=1", c.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return scoring.Coordinate{}, fmt.Errorf("%w: building request: %v", ErrUnavailable, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return scoring.Coordinate{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return scoring.Coordinate{}, fmt.Errorf("%w: provider returned status %d", ErrUnavailable, resp.StatusCode)
	}

	var fc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return scoring.Coordinate{}, fmt.Errorf("%w: decoding response: %v", ErrUnavailable, err)
	}

	if len(fc.Features) == 0 || len(fc.Features[0].Geometry.Coordinates) < 2 {
		return scoring.Coordinate{}, fmt.Errorf("%w: no match for %q", ErrUnavailable, query)
	}

	coords := fc.Features[0].Geometry.Coordinates
	// GeoJSON order is [longitude, latitude].
	return scoring.Coordinate{Latitude: coords[1], Longitude: coords[0]}, nil
}
