package discover

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/serjvanilla/go-overpass"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

const DefaultOverpassURL = "https://overpass-api.de/api/interpreter"

// Provider returns named points of interest around a center, sorted by
// distance.
type Provider interface {
	Nearby(ctx context.Context, center geo.Coordinates, radiusKm float64) ([]models.Place, error)
}

// OverpassProvider queries OpenStreetMap through the Overpass API.
type OverpassProvider struct {
	client  *overpass.Client
	timeout time.Duration
	logger  *zap.Logger
}

func NewOverpassProvider(endpoint, userAgent string, timeout time.Duration, logger *zap.Logger) *OverpassProvider {
	if endpoint == "" {
		endpoint = DefaultOverpassURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{
		Timeout:   timeout,
		Transport: &userAgentTransport{base: http.DefaultTransport, userAgent: userAgent},
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassProvider{
		client:  &client,
		timeout: timeout,
		logger:  logger,
	}
}

func nearbyQuery(center geo.Coordinates, radiusKm float64) string {
	around := fmt.Sprintf("(around:%.0f,%f,%f)", radiusKm*1000, center.Lat, center.Lon)
	return fmt.Sprintf(`
		[out:json][timeout:25];
		(
			node["tourism"]%[1]s;
			node["amenity"="restaurant"]%[1]s;
			node["amenity"="cafe"]%[1]s;
			node["historic"]%[1]s;
			way["tourism"]%[1]s;
		);
		out body;
		>;
		out skel qt;
	`, around)
}

func (p *OverpassProvider) Nearby(ctx context.Context, center geo.Coordinates, radiusKm float64) ([]models.Place, error) {
	m := metrics.Get()
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	query := nearbyQuery(center, radiusKm)
	go func() {
		res, err := p.client.Query(query)
		done <- outcome{result: res, err: err}
	}()

	var out outcome
	select {
	case <-ctx.Done():
		out.err = ctx.Err()
	case out = <-done:
	}

	m.OverpassQueryDuration.Record(ctx, time.Since(start).Seconds(),
		metric.WithAttributes(attribute.Bool("success", out.err == nil)))
	if out.err != nil {
		m.OverpassQueryErrors.Add(ctx, 1)
		p.logger.Warn("Overpass query failed",
			zap.Stringer("center", center),
			zap.Float64("radius_km", radiusKm),
			zap.Error(out.err))
		return nil, fmt.Errorf("overpass query failed: %w", out.err)
	}

	places := placesFromResult(center, &out.result)
	p.logger.Debug("Overpass query succeeded",
		zap.Stringer("center", center),
		zap.Int("places", len(places)),
		zap.Duration("took", time.Since(start)))
	return places, nil
}

// placesFromResult converts named nodes and ways into places. Ways are placed
// at the centroid of their nodes. When two elements share a name the nearer
// one wins.
func placesFromResult(center geo.Coordinates, result *overpass.Result) []models.Place {
	byName := make(map[string]models.Place)
	add := func(tags map[string]string, lat, lon float64) {
		name := tags["name"]
		if name == "" || !geo.ValidCoordinates(lat, lon) {
			return
		}
		pos := geo.Coordinates{Lat: lat, Lon: lon}
		place := models.Place{
			Name:       name,
			Lat:        lat,
			Lon:        lon,
			Type:       placeType(tags),
			Kind:       placeCategory(tags),
			DistanceKm: geo.RoundKm(geo.HaversineKm(center, pos)),
		}
		if prev, ok := byName[name]; ok && prev.DistanceKm <= place.DistanceKm {
			return
		}
		byName[name] = place
	}

	for _, node := range result.Nodes {
		if node == nil || len(node.Tags) == 0 {
			continue
		}
		add(node.Tags, node.Lat, node.Lon)
	}

	for _, way := range result.Ways {
		if way == nil || len(way.Nodes) == 0 {
			continue
		}
		var lat, lon float64
		var count int
		for _, node := range way.Nodes {
			if node == nil {
				continue
			}
			lat += node.Lat
			lon += node.Lon
			count++
		}
		if count == 0 {
			continue
		}
		add(way.Tags, lat/float64(count), lon/float64(count))
	}

	places := make([]models.Place, 0, len(byName))
	for _, p := range byName {
		places = append(places, p)
	}
	sort.Slice(places, func(i, j int) bool {
		if places[i].DistanceKm != places[j].DistanceKm {
			return places[i].DistanceKm < places[j].DistanceKm
		}
		return places[i].Name < places[j].Name
	})
	return places
}

func placeType(tags map[string]string) string {
	for _, key := range []string{"tourism", "amenity", "historic"} {
		if v := tags[key]; v != "" {
			return v
		}
	}
	return "place"
}

// placeCategory classifies by tag key. Tag values such as castle or viewpoint
// say nothing about the category on their own.
func placeCategory(tags map[string]string) geo.Category {
	switch {
	case tags["amenity"] == "restaurant":
		return geo.CategoryRestaurant
	case tags["amenity"] == "cafe":
		return geo.CategoryCafe
	case tags["historic"] != "":
		return geo.CategoryHistoric
	case tags["tourism"] != "":
		return geo.CategoryAttraction
	}
	return geo.NormalizeCategory(placeType(tags))
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.userAgent == "" {
		return t.base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	req.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(req)
}
