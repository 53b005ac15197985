package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/i474232898/event-finder/internal/events"
	"github.com/i474232898/event-finder/internal/events/providers"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

type AppConfig struct {
	Environment string
	Port        string

	StoreDriver     string
	MongoURI        string
	MongoDatabase   string
	MongoCollection string

	WeatherAPIBaseURL  string
	WeatherAPICode     string
	DistanceAPIBaseURL string
	DistanceAPICode    string

	// HTTPTimeout bounds every outbound API call.
	HTTPTimeout time.Duration
	// EnrichTimeout bounds the enrichment phase of one search.
	EnrichTimeout time.Duration

	ProviderMaxRetries    int
	ProviderRetryInterval time.Duration

	// LocalOffset is the UTC offset search dates are expressed in.
	LocalOffset events.Offset

	StorePingInterval time.Duration
}

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("INFO: No .env file found or error loading it: %v", err)
	}
	cfg := &AppConfig{}

	cfg.Environment = getenvDefault("SERVICE_ENVIRONMENT", "development")
	cfg.Port = getenvDefault("PORT", "8080")

	cfg.StoreDriver = strings.ToLower(getenvDefault("STORE_DRIVER", DriverMongo))
	cfg.MongoURI = os.Getenv("MONGO_URI")
	cfg.MongoDatabase = getenvDefault("MONGO_DATABASE", "events")
	cfg.MongoCollection = getenvDefault("MONGO_COLLECTION", "events")

	switch cfg.StoreDriver {
	case DriverMongo:
		if cfg.MongoURI == "" {
			return nil, fmt.Errorf("MONGO_URI is required when STORE_DRIVER is %q", DriverMongo)
		}
	case DriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.WeatherAPIBaseURL = getenvDefault("WEATHER_API_BASE_URL", providers.DefaultBaseURL)
	cfg.WeatherAPICode = os.Getenv("WEATHER_API_CODE")
	cfg.DistanceAPIBaseURL = getenvDefault("DISTANCE_API_BASE_URL", providers.DefaultBaseURL)
	cfg.DistanceAPICode = os.Getenv("DISTANCE_API_CODE")

	var err error
	if cfg.HTTPTimeout, err = getenvDuration("HTTP_TIMEOUT", "5s"); err != nil {
		return nil, err
	}
	if cfg.EnrichTimeout, err = getenvDuration("ENRICH_TIMEOUT", "15s"); err != nil {
		return nil, err
	}
	if cfg.ProviderRetryInterval, err = getenvDuration("PROVIDER_RETRY_INTERVAL", "200ms"); err != nil {
		return nil, err
	}
	if cfg.StorePingInterval, err = getenvDuration("STORE_PING_INTERVAL", "30s"); err != nil {
		return nil, err
	}
	cfg.ProviderMaxRetries = getenvInt("PROVIDER_MAX_RETRIES", 1)

	offset, err := events.ParseOffset(getenvDefault("LOCAL_UTC_OFFSET", "+05:30"))
	if err != nil {
		return nil, fmt.Errorf("invalid LOCAL_UTC_OFFSET: %w", err)
	}
	cfg.LocalOffset = offset

	return cfg, nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(getenvDefault(key, def))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
