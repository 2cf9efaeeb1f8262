package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climadash/weather-pipeline/internal/domain"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)

	assert.Equal(t, "Medellín", cfg.Location.Name)
	assert.Equal(t, 6.244, cfg.Location.Latitude)
	assert.Equal(t, -75.581, cfg.Location.Longitude)
	assert.Equal(t, "America/Bogota", cfg.Location.Timezone)

	assert.Equal(t, filepath.Join("data", "weather_data.csv"), cfg.OutputPath)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout)
	assert.Equal(t, "https://api.open-meteo.com/v1/forecast", cfg.OpenMeteoBaseURL)

	assert.Equal(t, 15*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 64, cfg.CacheMaxEntries)

	assert.False(t, cfg.SchedulerEnabled)
	assert.Equal(t, time.Hour, cfg.FetchInterval)

	assert.False(t, cfg.KafkaEnabled)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "weather-records", cfg.KafkaTopic)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("LOCATION_NAME", "Bogotá")
	t.Setenv("LOCATION_LATITUDE", "4.711")
	t.Setenv("LOCATION_LONGITUDE", "-74.0721")
	t.Setenv("LOCATION_TIMEZONE", "America/Bogota")
	t.Setenv("OUTPUT_DIR", "/var/lib/weather")
	t.Setenv("OUTPUT_FILENAME", "bogota.csv")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("CACHE_TTL", "1m")
	t.Setenv("CACHE_MAX_ENTRIES", "8")
	t.Setenv("SCHEDULER_ENABLED", "true")
	t.Setenv("FETCH_INTERVAL", "30m")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "hourly-weather")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "Bogotá", cfg.Location.Name)
	assert.Equal(t, 4.711, cfg.Location.Latitude)
	assert.Equal(t, -74.0721, cfg.Location.Longitude)
	assert.Equal(t, filepath.Join("/var/lib/weather", "bogota.csv"), cfg.OutputPath)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, time.Minute, cfg.CacheTTL)
	assert.Equal(t, 8, cfg.CacheMaxEntries)
	assert.True(t, cfg.SchedulerEnabled)
	assert.Equal(t, 30*time.Minute, cfg.FetchInterval)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "hourly-weather", cfg.KafkaTopic)
}

func TestLoad_SettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"location": {"name": "Cali", "latitude": 3.4516, "longitude": -76.532, "timezone": "America/Bogota"},
		"data": {"output_directory": "exports", "default_filename": "cali.csv"}
	}`), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "Cali", cfg.Location.Name)
	assert.Equal(t, 3.4516, cfg.Location.Latitude)
	assert.Equal(t, filepath.Join("exports", "cali.csv"), cfg.OutputPath)
}

func TestLoad_EnvOverridesSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"location": {"latitude": 3.4516, "longitude": -76.532}
	}`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("LOCATION_LATITUDE", "10.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 10.5, cfg.Location.Latitude)
	assert.Equal(t, -76.532, cfg.Location.Longitude)
}

func TestLoad_MalformedSettingsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestLoad_InvalidCoordinates(t *testing.T) {
	t.Setenv("LOCATION_LATITUDE", "123.4")

	_, err := Load()
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "latitude", verr.Field)
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}

func TestLoad_KafkaDisabledExplicitly(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092")
	t.Setenv("KAFKA_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.KafkaEnabled)
}
