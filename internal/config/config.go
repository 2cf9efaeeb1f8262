package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/climadash/weather-pipeline/internal/domain"
)

// Config holds all service settings. It is populated once at startup from an
// optional JSON settings file plus environment variables (env wins), and then
// handed to the entry points. Never re-read mid-pipeline.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Pipeline target and output.
	Location         domain.Location
	OutputPath       string
	FetchTimeout     time.Duration
	OpenMeteoBaseURL string

	// Dataset cache for the HTTP API.
	CacheTTL        time.Duration
	CacheMaxEntries int

	// Scheduled append-mode runs.
	SchedulerEnabled bool
	FetchInterval    time.Duration

	// Kafka sink configuration.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string
}

// settingsFile mirrors the JSON settings format shared with the dashboard
// tooling (config/settings.json).
type settingsFile struct {
	Location struct {
		Name      string   `json:"name"`
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
		Timezone  string   `json:"timezone"`
	} `json:"location"`
	Data struct {
		OutputDirectory string `json:"output_directory"`
		DefaultFilename string `json:"default_filename"`
	} `json:"data"`
}

// Load reads configuration from the optional settings file and environment
// variables, applying defaults where unset.
func Load() (*Config, error) {
	// .env is a development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:  envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:  envOrDefault("LOG_LEVEL", "info"),
		LogFormat: envOrDefault("LOG_FORMAT", "json"),
		Location: domain.Location{
			Name:      "Medellín",
			Latitude:  6.244,
			Longitude: -75.581,
			Timezone:  "America/Bogota",
		},
		OpenMeteoBaseURL: envOrDefault("OPEN_METEO_BASE_URL", "https://api.open-meteo.com/v1/forecast"),
		CacheMaxEntries:  64,
		KafkaTopic:       envOrDefault("KAFKA_TOPIC", "weather-records"),
	}

	outputDir := "data"
	outputFile := "weather_data.csv"

	if path := settingsPath(); path != "" {
		fileDir, fileName, err := cfg.applySettingsFile(path)
		if err != nil {
			return nil, err
		}
		if fileDir != "" {
			outputDir = fileDir
		}
		if fileName != "" {
			outputFile = fileName
		}
	}

	var err error
	if cfg.ShutdownTimeout, err = envDuration("SHUTDOWN_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.FetchTimeout, err = envDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = envDuration("CACHE_TTL", 15*time.Minute); err != nil {
		return nil, err
	}
	if cfg.FetchInterval, err = envDuration("FETCH_INTERVAL", time.Hour); err != nil {
		return nil, err
	}

	if err := cfg.applyLocationEnv(); err != nil {
		return nil, err
	}

	outputDir = envOrDefault("OUTPUT_DIR", outputDir)
	outputFile = envOrDefault("OUTPUT_FILENAME", outputFile)
	cfg.OutputPath = filepath.Join(outputDir, outputFile)

	if n := os.Getenv("CACHE_MAX_ENTRIES"); n != "" {
		v, convErr := strconv.Atoi(n)
		if convErr != nil || v <= 0 {
			return nil, errors.New("invalid CACHE_MAX_ENTRIES")
		}
		cfg.CacheMaxEntries = v
	}

	cfg.SchedulerEnabled = os.Getenv("SCHEDULER_ENABLED") == "true"

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitBrokers(brokers)
		cfg.KafkaEnabled = true
	}
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		cfg.KafkaEnabled = v == "true"
	}

	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if err := c.Location.Validate(); err != nil {
		return err
	}
	if c.SchedulerEnabled && c.FetchInterval < time.Minute {
		return errors.New("FETCH_INTERVAL must be at least one minute")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if c.KafkaEnabled && c.KafkaTopic == "" {
		return errors.New("KAFKA_ENABLED is true but KAFKA_TOPIC is empty")
	}
	return nil
}

// settingsPath returns the settings file to read: CONFIG_FILE when set, the
// conventional config/settings.json when it exists, otherwise nothing.
func settingsPath() string {
	if p := os.Getenv("CONFIG_FILE"); p != "" {
		return p
	}
	const conventional = "config/settings.json"
	if _, err := os.Stat(conventional); err == nil {
		return conventional
	}
	return ""
}

func (c *Config) applySettingsFile(path string) (outputDir, outputFile string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read settings file %s: %w", path, err)
	}
	var sf settingsFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return "", "", &domain.ValidationError{
			Field:  "settings file",
			Reason: fmt.Sprintf("%s is not valid JSON: %v", path, err),
		}
	}

	if sf.Location.Name != "" {
		c.Location.Name = sf.Location.Name
	}
	if sf.Location.Latitude != nil {
		c.Location.Latitude = *sf.Location.Latitude
	}
	if sf.Location.Longitude != nil {
		c.Location.Longitude = *sf.Location.Longitude
	}
	if sf.Location.Timezone != "" {
		c.Location.Timezone = sf.Location.Timezone
	}
	return sf.Data.OutputDirectory, sf.Data.DefaultFilename, nil
}

func (c *Config) applyLocationEnv() error {
	if v := os.Getenv("LOCATION_NAME"); v != "" {
		c.Location.Name = v
	}
	if v := os.Getenv("LOCATION_LATITUDE"); v != "" {
		lat, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &domain.ValidationError{Field: "latitude", Reason: fmt.Sprintf("%q is not a number", v)}
		}
		c.Location.Latitude = lat
	}
	if v := os.Getenv("LOCATION_LONGITUDE"); v != "" {
		lon, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return &domain.ValidationError{Field: "longitude", Reason: fmt.Sprintf("%q is not a number", v)}
		}
		c.Location.Longitude = lon
	}
	if v := os.Getenv("LOCATION_TIMEZONE"); v != "" {
		c.Location.Timezone = v
	}
	return nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func splitBrokers(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
