// Package geocode resolves free-text place names to coordinates.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultUserAgent    = "TravelEase/1.0"
)

var (
	// ErrEmptyQuery is returned for a blank search string.
	ErrEmptyQuery = errors.New("city name is required")
	// ErrNotFound is returned when the service has no match.
	ErrNotFound = errors.New("city not found")
	// ErrLookupFailed wraps transport, status and decoding failures.
	ErrLookupFailed = errors.New("city lookup failed")
)

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, city string) (geo.Coordinates, error)
}

type nominatimResult struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Nominatim is a Geocoder backed by the OpenStreetMap Nominatim search API.
type Nominatim struct {
	baseURL   string
	userAgent string
	client    *http.Client
	logger    *zap.Logger
}

// Option configures a Nominatim client.
type Option func(*Nominatim)

func WithHTTPClient(c *http.Client) Option {
	return func(n *Nominatim) { n.client = c }
}

func WithUserAgent(ua string) Option {
	return func(n *Nominatim) { n.userAgent = ua }
}

func WithLogger(l *zap.Logger) Option {
	return func(n *Nominatim) { n.logger = l }
}

// NewNominatim creates a client for the given base URL. An empty base URL
// selects the public OpenStreetMap instance.
func NewNominatim(baseURL string, opts ...Option) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	n := &Nominatim{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: DefaultUserAgent,
		client:    &http.Client{Timeout: 15 * time.Second},
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Geocode takes the first search result for city. It never retries.
func (n *Nominatim) Geocode(ctx context.Context, city string) (geo.Coordinates, error) {
	city = strings.TrimSpace(city)
	if city == "" {
		return geo.Coordinates{}, ErrEmptyQuery
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("limit", "1")
	q.Set("q", city)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/search?"+q.Encode(), nil)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("%w: build request: %v", ErrLookupFailed, err)
	}
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Geocoding request failed", zap.String("city", city), zap.Error(err))
		return geo.Coordinates{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		n.logger.Warn("Geocoding returned non-OK status",
			zap.String("city", city),
			zap.Int("status", resp.StatusCode))
		return geo.Coordinates{}, fmt.Errorf("%w: HTTP %d", ErrLookupFailed, resp.StatusCode)
	}

	var results []nominatimResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geo.Coordinates{}, fmt.Errorf("%w: decode response: %v", ErrLookupFailed, err)
	}
	if len(results) == 0 {
		return geo.Coordinates{}, ErrNotFound
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("%w: bad latitude %q", ErrLookupFailed, results[0].Lat)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geo.Coordinates{}, fmt.Errorf("%w: bad longitude %q", ErrLookupFailed, results[0].Lon)
	}

	n.logger.Debug("Geocoded city",
		zap.String("city", city),
		zap.String("display_name", results[0].DisplayName),
		zap.Float64("lat", lat),
		zap.Float64("lon", lon))

	return geo.Coordinates{Lat: lat, Lon: lon}, nil
}
