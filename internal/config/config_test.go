package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i474232898/event-finder/internal/events"
	"github.com/i474232898/event-finder/internal/events/providers"
)

var envKeys = []string{
	"SERVICE_ENVIRONMENT", "PORT", "STORE_DRIVER",
	"MONGO_URI", "MONGO_DATABASE", "MONGO_COLLECTION",
	"WEATHER_API_BASE_URL", "WEATHER_API_CODE",
	"DISTANCE_API_BASE_URL", "DISTANCE_API_CODE",
	"HTTP_TIMEOUT", "ENRICH_TIMEOUT",
	"PROVIDER_MAX_RETRIES", "PROVIDER_RETRY_INTERVAL",
	"LOCAL_UTC_OFFSET", "STORE_PING_INTERVAL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range envKeys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, "events", cfg.MongoDatabase)
	assert.Equal(t, "events", cfg.MongoCollection)
	assert.Equal(t, providers.DefaultBaseURL, cfg.WeatherAPIBaseURL)
	assert.Equal(t, providers.DefaultBaseURL, cfg.DistanceAPIBaseURL)
	assert.Equal(t, 5*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 15*time.Second, cfg.EnrichTimeout)
	assert.Equal(t, 1, cfg.ProviderMaxRetries)
	assert.Equal(t, 200*time.Millisecond, cfg.ProviderRetryInterval)
	assert.Equal(t, 30*time.Second, cfg.StorePingInterval)
	assert.Equal(t, events.Offset{Hours: 5, Minutes: 30}, cfg.LocalOffset)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "MEMORY")
	t.Setenv("PORT", "3000")
	t.Setenv("WEATHER_API_CODE", "w-code")
	t.Setenv("DISTANCE_API_CODE", "d-code")
	t.Setenv("HTTP_TIMEOUT", "2s")
	t.Setenv("PROVIDER_MAX_RETRIES", "3")
	t.Setenv("LOCAL_UTC_OFFSET", "-03:30")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, "3000", cfg.Port)
	assert.Equal(t, "w-code", cfg.WeatherAPICode)
	assert.Equal(t, "d-code", cfg.DistanceAPICode)
	assert.Equal(t, 2*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 3, cfg.ProviderMaxRetries)
	assert.Equal(t, events.Offset{Hours: -3, Minutes: -30}, cfg.LocalOffset)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "mongo without uri", env: map[string]string{"STORE_DRIVER": "mongo"}},
		{name: "unknown driver", env: map[string]string{"STORE_DRIVER": "sqlite"}},
		{name: "bad duration", env: map[string]string{"STORE_DRIVER": "memory", "ENRICH_TIMEOUT": "soon"}},
		{name: "bad offset", env: map[string]string{"STORE_DRIVER": "memory", "LOCAL_UTC_OFFSET": "IST"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}

func TestGetenvInt_FallsBackOnGarbage(t *testing.T) {
	t.Setenv("PROVIDER_MAX_RETRIES", "many")
	assert.Equal(t, 1, getenvInt("PROVIDER_MAX_RETRIES", 1))
}
