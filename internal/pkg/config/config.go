package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// PlacesConfig configures the upstream providers used by the discover domain.
type PlacesConfig struct {
	OverpassURL     string
	OverpassTimeout time.Duration
	NominatimURL    string
	UserAgent       string
	CacheTTL        time.Duration
	MaxRadiusKm     float64
}

type AuthConfig struct {
	JWTSecret string
}

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
}

// TravelConfig configures live travel mode.
type TravelConfig struct {
	AlertThresholdKm float64
}

type Config struct {
	Repositories  RepositoriesConfig
	Places        PlacesConfig
	Auth          AuthConfig
	Observability ObservabilityConfig
	Travel        TravelConfig
	ServerPort    string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "tripmap"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: int32(getIntOrDefault("POSTGRES_MAX_CONNS", 30)),
				MinConns: int32(getIntOrDefault("POSTGRES_MIN_CONNS", 5)),
			},
		},
		Places: PlacesConfig{
			OverpassURL:     getEnvOrDefault("OVERPASS_URL", "https://overpass-api.de/api/interpreter"),
			OverpassTimeout: getDurationOrDefault("OVERPASS_TIMEOUT", 30*time.Second),
			NominatimURL:    getEnvOrDefault("NOMINATIM_URL", "https://nominatim.openstreetmap.org"),
			UserAgent:       getEnvOrDefault("PLACES_USER_AGENT", "TravelEase/1.0"),
			CacheTTL:        getDurationOrDefault("NEARBY_CACHE_TTL", 5*time.Minute),
			MaxRadiusKm:     getFloatOrDefault("NEARBY_MAX_RADIUS_KM", 50),
		},
		Auth: AuthConfig{
			JWTSecret: getEnvOrDefault("JWT_SECRET", ""),
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "tripmap"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "otel-collector:4318"),
		},
		Travel: TravelConfig{
			AlertThresholdKm: getFloatOrDefault("PROXIMITY_THRESHOLD_KM", 0.5),
		},
		ServerPort: getEnvOrDefault("SERVER_PORT", "8080"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET environment variable is required")
	}
	if cfg.Travel.AlertThresholdKm <= 0 {
		return nil, fmt.Errorf("PROXIMITY_THRESHOLD_KM must be positive, got %v", cfg.Travel.AlertThresholdKm)
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
