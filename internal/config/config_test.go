package config

import (
	"errors"
	"testing"
	"time"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("WEATHERSTACK_API_KEY", "test-key")
	t.Setenv("S3_BUCKET_NAME", "test-bucket")
}

// TestLoadDefaults verifies that optional settings fall back to the
// documented defaults when only the two secrets are present.
func TestLoadDefaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Query != "New Delhi, India" {
		t.Errorf("expected default query, got %q", cfg.Query)
	}
	if cfg.Prefix != "weather_data_raw/" {
		t.Errorf("expected default prefix, got %q", cfg.Prefix)
	}
	if cfg.HTTPTimeout != 10*time.Second {
		t.Errorf("expected default timeout, got %v", cfg.HTTPTimeout)
	}
	if cfg.RunInterval != 0 {
		t.Errorf("expected single-shot mode by default, got interval %v", cfg.RunInterval)
	}
}

// TestLoadMissingSecret verifies that an absent secret is a fatal
// ConfigurationError.
func TestLoadMissingSecret(t *testing.T) {
	t.Setenv("WEATHERSTACK_API_KEY", "")
	t.Setenv("S3_BUCKET_NAME", "test-bucket")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing API key")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}

// TestLoadInvalidInterval verifies that an unparseable RUN_INTERVAL is
// rejected at load time.
func TestLoadInvalidInterval(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("RUN_INTERVAL", "often")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for invalid RUN_INTERVAL")
	}
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
}
