package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ConfigurationError indicates the process environment is unusable for a run.
// It is fatal: the run must not reach the network or the storage client.
type ConfigurationError struct {
	Err error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: %v", e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Config is the single configuration value object for one run. It is built
// once at startup and passed to each stage; no stage reads the process
// environment directly.
type Config struct {
	// Weatherstack access key, required.
	APIKey string `validate:"required"`

	// Target S3 bucket, required.
	Bucket string `validate:"required"`

	// Free-text location query sent to the provider.
	Query string `validate:"required"`

	// Provider endpoint for current conditions. Overridable for tests.
	BaseURL string `validate:"required,url"`

	// Key prefix for stored objects.
	Prefix string

	// AWS region for the S3 session.
	Region string

	// Timeout applied to the outbound provider call.
	HTTPTimeout time.Duration

	// Destination file for run logs (stderr is always written as well).
	LogFile string

	// RunInterval > 0 switches the process into daemon mode: the extraction
	// re-runs on this interval and the status API is served. Zero means one
	// run and exit.
	RunInterval time.Duration

	// Status API listen port (daemon mode only).
	StatusPort string

	// Retention for the in-memory run history backing the status API.
	StatusMaxHistory int
	StatusMaxAge     time.Duration
}

// Load reads configuration from environment with sensible defaults.
// Missing secrets are a ConfigurationError.
func Load() (*Config, error) {
	cfg := &Config{
		APIKey:  os.Getenv("WEATHERSTACK_API_KEY"),
		Bucket:  os.Getenv("S3_BUCKET_NAME"),
		Query:   getenvDefault("WEATHER_QUERY", "New Delhi, India"),
		BaseURL: getenvDefault("WEATHERSTACK_BASE_URL", "https://api.weatherstack.com/current"),
		Prefix:  getenvDefault("S3_PREFIX", "weather_data_raw/"),
		Region:  getenvDefault("AWS_REGION", "us-east-1"),
		LogFile: getenvDefault("LOG_FILE", "logs/weather_extractor.log"),

		StatusPort:       getenvDefault("STATUS_PORT", "8080"),
		StatusMaxHistory: getenvInt("STATUS_MAX_HISTORY", 96),
	}

	timeout, err := getenvDuration("HTTP_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	cfg.HTTPTimeout = timeout

	maxAge, err := getenvDuration("STATUS_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	cfg.StatusMaxAge = maxAge

	// RUN_INTERVAL is optional; absence means single-shot mode.
	if v := os.Getenv("RUN_INTERVAL"); v != "" {
		interval, err := time.ParseDuration(v)
		if err != nil {
			return nil, &ConfigurationError{Err: fmt.Errorf("invalid RUN_INTERVAL: %w", err)}
		}
		cfg.RunInterval = interval
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, &ConfigurationError{Err: fmt.Errorf("WEATHERSTACK_API_KEY and S3_BUCKET_NAME must be set: %w", err)}
	}

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

func getenvDuration(key string, def time.Duration) (time.Duration, error) {
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
