package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/FACorreiaa/go-tripmap/internal/app/domain/discover"
	"github.com/FACorreiaa/go-tripmap/internal/app/domain/explore"
	"github.com/FACorreiaa/go-tripmap/internal/app/domain/travel"
	"github.com/FACorreiaa/go-tripmap/internal/app/domain/trips"
	"github.com/FACorreiaa/go-tripmap/internal/app/middleware"
	"github.com/FACorreiaa/go-tripmap/internal/pkg/cache"
	"github.com/FACorreiaa/go-tripmap/internal/pkg/config"
	"github.com/FACorreiaa/go-tripmap/pkg/geocode"
)

type AppHandlers struct {
	Trips    *trips.Handler
	Explore  *explore.Handler
	Discover *discover.Handler
	Travel   *travel.Handler

	Caches *cache.CacheManager
}

// Setup builds every domain and mounts it on r. Everything except /health
// requires a bearer token.
func Setup(r *gin.Engine, dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	handlers := setupDependencies(dbPool, cfg, log)
	setupRouter(r, dbPool, handlers, cfg, log)
	return handlers
}

func setupDependencies(dbPool *pgxpool.Pool, cfg *config.Config, log *zap.Logger) *AppHandlers {
	caches := cache.NewCacheManager(cfg.Places.CacheTTL, log)

	geocoder := cache.NewCachingGeocoder(
		geocode.NewNominatim(cfg.Places.NominatimURL,
			geocode.WithUserAgent(cfg.Places.UserAgent),
			geocode.WithLogger(log),
		),
		caches.Geocode,
	)
	provider := discover.NewOverpassProvider(cfg.Places.OverpassURL, cfg.Places.UserAgent, cfg.Places.OverpassTimeout, log)

	// Create repositories
	tripsRepo := trips.NewRepository(dbPool, log)
	exploreRepo := explore.NewRepository(dbPool, log)

	// Create services
	tripsService := trips.NewService(tripsRepo, geocoder, log)
	exploreService := explore.NewService(exploreRepo, log)
	discoverService := discover.NewService(provider, tripsService, caches.Nearby, cfg.Places.MaxRadiusKm, log)

	return &AppHandlers{
		Trips:    trips.NewHandler(tripsService, log),
		Explore:  explore.NewHandler(exploreService, log),
		Discover: discover.NewHandler(discoverService, log),
		Travel:   travel.NewHandler(discoverService, tripsService, cfg.Travel.AlertThresholdKm, log),
		Caches:   caches,
	}
}

func setupRouter(r *gin.Engine, dbPool *pgxpool.Pool, h *AppHandlers, cfg *config.Config, log *zap.Logger) {
	r.GET("/health", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := dbPool.Ping(ctx); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	protected := r.Group("/")
	protected.Use(middleware.JWTAuthMiddleware(middleware.JWTConfig{
		SecretKey: cfg.Auth.JWTSecret,
		Logger:    log,
	}))
	{
		h.Trips.RegisterRoutes(protected)
		h.Explore.RegisterRoutes(protected)
		h.Discover.RegisterRoutes(protected)
		h.Travel.RegisterRoutes(protected)

		protected.GET("/cache/stats", func(c *gin.Context) {
			c.JSON(http.StatusOK, h.Caches.GetAllMetrics())
		})
	}
}
