package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
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

type ObservabilityConfig struct {
	ServiceName  string
	MetricsAddr  string
	PprofAddr    string
	OTLPEndpoint string
}

type PlacesConfig struct {
	APIKey    string
	BaseURL   string
	Countries []string
	CacheTTL  time.Duration
	IPAPIURL  string
}

type DiscoveryConfig struct {
	Debounce    time.Duration
	ScrollDelay time.Duration
	PageLimit   int
	OriginLat   float64
	OriginLng   float64
}

type Config struct {
	Repositories  RepositoriesConfig
	Observability ObservabilityConfig
	Places        PlacesConfig
	Discovery     DiscoveryConfig
	ServerPort     string
	LogLevel       string
	AllowedOrigins []string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5454"),
				DB:       getEnvOrDefault("POSTGRES_DB", "loci_discovery"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Observability: ObservabilityConfig{
			ServiceName:  getEnvOrDefault("OTEL_SERVICE_NAME", "loci-discovery"),
			MetricsAddr:  getEnvOrDefault("METRICS_ADDR", ":9092"),
			PprofAddr:    getEnvOrDefault("PPROF_ADDR", ":6060"),
			OTLPEndpoint: getEnvOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		},
		Places: PlacesConfig{
			APIKey:    getEnvOrDefault("PLACES_API_KEY", ""),
			BaseURL:   getEnvOrDefault("PLACES_BASE_URL", "https://places.googleapis.com/v1"),
			Countries: splitList(getEnvOrDefault("PLACES_COUNTRIES", "gb,ua,ie,fr,de,pl")),
			IPAPIURL:  getEnvOrDefault("IP_API_URL", "http://ip-api.com/json"),
		},
		ServerPort:     getEnvOrDefault("SERVER_PORT", "8091"),
		LogLevel:       getEnvOrDefault("LOG_LEVEL", "info"),
		AllowedOrigins: splitList(getEnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000")),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}

	var err error
	if cfg.Places.CacheTTL, err = getDuration("PLACES_CACHE_TTL", 10*time.Minute); err != nil {
		return nil, err
	}
	if cfg.Discovery.Debounce, err = getDuration("AUTOCOMPLETE_DEBOUNCE", 400*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Discovery.ScrollDelay, err = getDuration("SCROLL_DELAY", 200*time.Millisecond); err != nil {
		return nil, err
	}
	if cfg.Discovery.PageLimit, err = getInt("MAP_PAGE_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.Discovery.OriginLat, err = getFloat("DEFAULT_ORIGIN_LAT", 51.509865); err != nil {
		return nil, err
	}
	if cfg.Discovery.OriginLng, err = getFloat("DEFAULT_ORIGIN_LNG", -0.118092); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, v)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(strings.ToLower(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}
