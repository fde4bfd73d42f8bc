package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "tripmap"

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	HTTPRequestsTotal       metric.Int64Counter
	HTTPRequestDuration     metric.Float64Histogram
	NearbyRequestsTotal     metric.Int64Counter
	NearbyCacheHitsTotal    metric.Int64Counter
	NearbyCacheMissesTotal  metric.Int64Counter
	OverpassQueryDuration   metric.Float64Histogram
	OverpassQueryErrors     metric.Int64Counter
	DBQueryErrorsTotal      metric.Int64Counter
	TravelConnectionsActive metric.Int64UpDownCounter
	ProximityAlertsTotal    metric.Int64Counter
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments once, from the global MeterProvider.
// Call it after the provider is installed; before that the global provider is
// a no-op and so are the instruments.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter(meterName)
		m := &AppMetrics{}
		var err error

		m.HTTPRequestsTotal, err = meter.Int64Counter(
			"http_requests_total",
			metric.WithDescription("Total number of HTTP requests completed"),
			metric.WithUnit("{request}"),
		)
		must("http_requests_total", err)

		m.HTTPRequestDuration, err = meter.Float64Histogram(
			"http_request_duration_seconds",
			metric.WithDescription("Duration of HTTP requests in seconds"),
			metric.WithUnit("s"),
		)
		must("http_request_duration_seconds", err)

		m.NearbyRequestsTotal, err = meter.Int64Counter(
			"nearby_requests_total",
			metric.WithDescription("Total number of nearby place queries"),
			metric.WithUnit("{request}"),
		)
		must("nearby_requests_total", err)

		m.NearbyCacheHitsTotal, err = meter.Int64Counter(
			"nearby_cache_hits_total",
			metric.WithDescription("Nearby queries answered from cache"),
		)
		must("nearby_cache_hits_total", err)

		m.NearbyCacheMissesTotal, err = meter.Int64Counter(
			"nearby_cache_misses_total",
			metric.WithDescription("Nearby queries that reached the places provider"),
		)
		must("nearby_cache_misses_total", err)

		m.OverpassQueryDuration, err = meter.Float64Histogram(
			"overpass_query_duration_seconds",
			metric.WithDescription("Duration of Overpass queries in seconds"),
			metric.WithUnit("s"),
		)
		must("overpass_query_duration_seconds", err)

		m.OverpassQueryErrors, err = meter.Int64Counter(
			"overpass_query_errors_total",
			metric.WithDescription("Failed Overpass queries"),
			metric.WithUnit("{error}"),
		)
		must("overpass_query_errors_total", err)

		m.DBQueryErrorsTotal, err = meter.Int64Counter(
			"db_query_errors_total",
			metric.WithDescription("Total number of database query errors"),
			metric.WithUnit("{error}"),
		)
		must("db_query_errors_total", err)

		m.TravelConnectionsActive, err = meter.Int64UpDownCounter(
			"travel_connections_active",
			metric.WithDescription("Open live travel-mode sockets"),
		)
		must("travel_connections_active", err)

		m.ProximityAlertsTotal, err = meter.Int64Counter(
			"proximity_alerts_total",
			metric.WithDescription("Proximity alerts pushed to travel-mode clients"),
			metric.WithUnit("{alert}"),
		)
		must("proximity_alerts_total", err)

		appMetrics = m
	})
}

// Get returns the instruments, initializing them on first use.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}

func must(name string, err error) {
	if err != nil {
		log.Fatalf("Metrics: Failed to create %s: %v", name, err)
	}
}
