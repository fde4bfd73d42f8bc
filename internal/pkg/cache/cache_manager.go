package cache

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/models"
	"github.com/FACorreiaa/go-tripmap/pkg/geo"
	"github.com/FACorreiaa/go-tripmap/pkg/geocode"
)

const geocodeTTL = 24 * time.Hour

// CacheManager holds all application caches
type CacheManager struct {
	// Unfiltered provider results keyed by center and radius.
	Nearby *UnifiedCache[[]models.Place]

	// Destination name to coordinates.
	Geocode *UnifiedCache[geo.Coordinates]
}

func NewCacheManager(nearbyTTL time.Duration, logger *zap.Logger) *CacheManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if nearbyTTL <= 0 {
		nearbyTTL = 5 * time.Minute
	}
	return &CacheManager{
		Nearby:  NewUnifiedCache[[]models.Place](nearbyTTL, "nearby", logger),
		Geocode: NewUnifiedCache[geo.Coordinates](geocodeTTL, "geocode", logger),
	}
}

// GetAllMetrics returns metrics for all caches
func (cm *CacheManager) GetAllMetrics() map[string]CacheMetrics {
	return map[string]CacheMetrics{
		"nearby":  cm.Nearby.GetMetrics(),
		"geocode": cm.Geocode.GetMetrics(),
	}
}

func (cm *CacheManager) ClearAll() {
	cm.Nearby.Clear()
	cm.Geocode.Clear()
}

// CachingGeocoder remembers successful lookups. Failures are not cached.
type CachingGeocoder struct {
	next  geocode.Geocoder
	cache *UnifiedCache[geo.Coordinates]
}

func NewCachingGeocoder(next geocode.Geocoder, cache *UnifiedCache[geo.Coordinates]) *CachingGeocoder {
	return &CachingGeocoder{next: next, cache: cache}
}

func (g *CachingGeocoder) Geocode(ctx context.Context, city string) (geo.Coordinates, error) {
	key := strings.ToLower(strings.TrimSpace(city))
	if c, ok := g.cache.Get(key); ok {
		return c, nil
	}
	c, err := g.next.Geocode(ctx, city)
	if err != nil {
		return geo.Coordinates{}, err
	}
	g.cache.Set(key, c)
	return c, nil
}
