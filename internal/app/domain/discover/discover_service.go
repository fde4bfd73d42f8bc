package discover

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/internal/app/observability/metrics"
	"github.com/FACorreiaa/go-tripmap/internal/pkg/cache"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
)

const (
	DefaultRadiusKm = 5.0
	MinRadiusKm     = 1.0
	MaxRadiusKm     = 50.0
)

// TripLookup resolves the stored center of a trip owned by userID.
type TripLookup interface {
	TripCenter(ctx context.Context, tripID uuid.UUID, userID string) (geo.Coordinates, error)
}

type Service struct {
	logger      *zap.Logger
	provider    Provider
	trips       TripLookup
	cache       *cache.UnifiedCache[[]models.Place]
	group       singleflight.Group
	maxRadiusKm float64
}

func NewService(provider Provider, trips TripLookup, nearbyCache *cache.UnifiedCache[[]models.Place], maxRadiusKm float64, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRadiusKm < MinRadiusKm || maxRadiusKm > MaxRadiusKm {
		maxRadiusKm = MaxRadiusKm
	}
	return &Service{
		logger:      logger,
		provider:    provider,
		trips:       trips,
		cache:       nearbyCache,
		maxRadiusKm: maxRadiusKm,
	}
}

// ClampRadius applies the default and keeps r within [MinRadiusKm, max].
func (s *Service) ClampRadius(r float64) float64 {
	switch {
	case r == 0, math.IsNaN(r):
		return DefaultRadiusKm
	case r < MinRadiusKm:
		return MinRadiusKm
	case r > s.maxRadiusKm:
		return s.maxRadiusKm
	}
	return r
}

// Nearby resolves the query center, fetches places around it and filters
// them to the requested categories.
func (s *Service) Nearby(ctx context.Context, userID string, q models.NearbyQuery) (*models.NearbyResponse, error) {
	ctx, span := otel.Tracer("DiscoverService").Start(ctx, "Nearby", trace.WithAttributes(
		attribute.Float64("radius_km", q.RadiusKm),
	))
	defer span.End()

	metrics.Get().NearbyRequestsTotal.Add(ctx, 1)

	resp := &models.NearbyResponse{}
	var center geo.Coordinates
	switch {
	case q.TripID != nil:
		if s.trips == nil {
			return nil, fmt.Errorf("%w: trip lookups are not available", models.ErrBadRequest)
		}
		c, err := s.trips.TripCenter(ctx, *q.TripID, userID)
		if err != nil {
			return nil, err
		}
		center = c
		resp.TripID = q.TripID.String()
		span.SetAttributes(attribute.String("trip.id", resp.TripID))
	case q.Center != nil:
		center = *q.Center
	default:
		return nil, fmt.Errorf("%w: lat and lon or trip_id are required", models.ErrValidation)
	}
	if !geo.ValidCoordinates(center.Lat, center.Lon) {
		return nil, fmt.Errorf("%w: coordinates out of range", models.ErrValidation)
	}

	radius := s.ClampRadius(q.RadiusKm)
	all, err := s.fetch(ctx, center, radius)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "places provider failed")
		return nil, err
	}

	places := filterByCategory(all, q.Categories)
	resp.Center = center
	resp.Count = len(places)
	resp.Places = places
	span.SetAttributes(attribute.Int("places.count", len(places)))
	return resp, nil
}

// fetch returns the unfiltered places for (center, radius) from the cache or
// the provider. Concurrent misses for the same key share one provider call.
func (s *Service) fetch(ctx context.Context, center geo.Coordinates, radius float64) ([]models.Place, error) {
	m := metrics.Get()
	key := cache.NewCacheKeyBuilder(s.logger).AddCenter(center).AddRadius(radius).BuildOrDefault()

	if s.cache != nil && key != "" {
		if places, ok := s.cache.Get(key); ok {
			m.NearbyCacheHitsTotal.Add(ctx, 1)
			return places, nil
		}
	}
	m.NearbyCacheMissesTotal.Add(ctx, 1)

	// An unkeyed lookup must not be coalesced with unrelated requests.
	if key == "" {
		places, err := s.provider.Nearby(ctx, center, radius)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
		}
		return places, nil
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		places, err := s.provider.Nearby(context.WithoutCancel(ctx), center, radius)
		if err != nil {
			return nil, err
		}
		if s.cache != nil && key != "" {
			s.cache.Set(key, places)
		}
		return places, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUpstream, err)
	}
	if shared {
		s.logger.Debug("Nearby lookup coalesced", zap.String("key", key))
	}
	return v.([]models.Place), nil
}

func filterByCategory(places []models.Place, categories []geo.Category) []models.Place {
	out := make([]models.Place, 0, len(places))
	want := make(map[geo.Category]bool, len(categories))
	for _, c := range categories {
		want[c] = true
	}
	// Every category selected means no filter, so places classified as
	// other are kept too.
	if len(categories) == 0 || len(want) == len(geo.AllCategories) {
		return append(out, places...)
	}
	for _, p := range places {
		if want[p.Category()] {
			out = append(out, p)
		}
	}
	return out
}
