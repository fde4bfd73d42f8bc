// Package tripmap is the client side of the trip map: a typed API client, the
// places-fetch controller, proximity alerting, saved-place management and the
// view state that ties them together.
package tripmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

// Place is a point of interest as served by the backend.
type Place struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Type       string  `json:"type"`
	DistanceKm float64 `json:"distance_km"`

	// Kind is the server side classification, absent on saved places.
	Kind geo.Category `json:"category,omitempty"`
}

func (p Place) Coordinates() geo.Coordinates {
	return geo.Coordinates{Lat: p.Lat, Lon: p.Lon}
}

func (p Place) Category() geo.Category {
	if p.Kind != "" {
		return p.Kind
	}
	return geo.NormalizeCategory(p.Type)
}

// NearbyParams are the query parameters of GET /discover/nearby. Exactly one
// of Center and TripID is sent, Center taking precedence.
type NearbyParams struct {
	Center     *geo.Coordinates
	TripID     string
	RadiusKm   float64
	Categories []geo.Category
}

func (p NearbyParams) Values() url.Values {
	v := url.Values{}
	if p.Center != nil {
		v.Set("lat", strconv.FormatFloat(p.Center.Lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(p.Center.Lon, 'f', -1, 64))
	} else if p.TripID != "" {
		v.Set("trip_id", p.TripID)
	}
	v.Set("radius", strconv.FormatFloat(p.RadiusKm, 'f', -1, 64))
	v.Set("category", geo.JoinCategories(p.Categories))
	return v
}

type NearbyResult struct {
	TripID string           `json:"trip_id,omitempty"`
	Center *geo.Coordinates `json:"center,omitempty"`
	Count  int              `json:"count"`
	Places []Place          `json:"places"`
}

type TripSummary struct {
	ID          string           `json:"id"`
	Source      string           `json:"source"`
	Destination string           `json:"destination"`
	Days        int              `json:"days"`
	People      int              `json:"people"`
	Budget      int              `json:"budget"`
	Status      string           `json:"status"`
	Center      *geo.Coordinates `json:"center,omitempty"`
	SavedCount  int              `json:"saved_count"`
}

// APIError is a non-2xx backend response. Detail is the server's message and
// is meant to be shown to the user as is.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Detail
}

// Client talks to the trip backend with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *zap.Logger
}

type ClientOption func(*Client)

func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) { cl.http = c }
}

func WithClientLogger(l *zap.Logger) ClientOption {
	return func(cl *Client) { cl.logger = l }
}

func NewClient(baseURL, token string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Nearby(ctx context.Context, p NearbyParams) (*NearbyResult, error) {
	var out NearbyResult
	if err := c.do(ctx, http.MethodGet, "/discover/nearby", p.Values(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SavedPlaces(ctx context.Context, tripID string) ([]Place, error) {
	var out []Place
	if err := c.do(ctx, http.MethodGet, "/trips/"+url.PathEscape(tripID)+"/places", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SavePlace returns the server acknowledgement, which differs for a first
// save and a repeated one.
func (c *Client) SavePlace(ctx context.Context, tripID string, p Place) (string, error) {
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/trips/"+url.PathEscape(tripID)+"/places", nil, p, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) RemovePlace(ctx context.Context, tripID, name string) error {
	q := url.Values{"name": {name}}
	return c.do(ctx, http.MethodDelete, "/trips/"+url.PathEscape(tripID)+"/places", q, nil, nil)
}

func (c *Client) SaveExplorePlace(ctx context.Context, p Place) (string, error) {
	body := struct {
		Name string  `json:"name"`
		Lat  float64 `json:"lat"`
		Lon  float64 `json:"lon"`
		Type string  `json:"type"`
	}{p.Name, p.Lat, p.Lon, p.Type}
	var out struct {
		Message string `json:"message"`
	}
	if err := c.do(ctx, http.MethodPost, "/explore/save", nil, body, &out); err != nil {
		return "", err
	}
	return out.Message, nil
}

func (c *Client) AddToItinerary(ctx context.Context, tripID string, day int, p Place) error {
	body := struct {
		Day   int   `json:"day"`
		Place Place `json:"place"`
	}{day, p}
	return c.do(ctx, http.MethodPost, "/trips/"+url.PathEscape(tripID)+"/itinerary/add-place", nil, body, nil)
}

func (c *Client) TripSummary(ctx context.Context, tripID string) (*TripSummary, error) {
	var out TripSummary
	if err := c.do(ctx, http.MethodGet, "/trips/summary/"+url.PathEscape(tripID), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("Request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeAPIError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	var payload struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Detail = payload.Detail
		if apiErr.Detail == "" {
			apiErr.Detail = payload.Error
		}
	}
	return apiErr
}
