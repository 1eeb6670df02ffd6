package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Feed.PageSize != 20 {
		t.Errorf("Feed.PageSize = %d, want 20", cfg.Feed.PageSize)
	}
	if cfg.Scoring.Breaker.FailureRate != 0.6 {
		t.Errorf("Breaker.FailureRate = %v, want 0.6", cfg.Scoring.Breaker.FailureRate)
	}
}

func TestLoadLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "topcare.yaml")
	yaml := `
server:
  addr: ":9000"
catalog:
  dsn: ":memory:"
  cache_ttl: 30s
scoring:
  endpoint: "http://scorer:8080/api/outfit/score"
  breaker:
    timeout: 1m
feed:
  page_size: 30
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TOPCARE_FEED_PAGE_SIZE", "40")
	t.Setenv("TOPCARE_SERVER_READ_TIMEOUT", "3s")
	t.Setenv("TOPCARE_SCORING_BREAKER_MIN_REQUESTS", "25")
	t.Setenv("TOPCARE_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"file overrides default", cfg.Server.Addr, ":9000"},
		{"duration from file", cfg.Catalog.CacheTTL, 30 * time.Second},
		{"nested from file", cfg.Scoring.Breaker.Timeout, time.Minute},
		{"env overrides file", cfg.Feed.PageSize, 40},
		{"env duration", cfg.Server.ReadTimeout, 3 * time.Second},
		{"env nested section", cfg.Scoring.Breaker.MinRequests, uint32(25)},
		{"default kept", cfg.Server.WriteTimeout, 30 * time.Second},
		{"kafka brokers split", len(cfg.Kafka.Brokers), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
	if cfg.Kafka.Brokers[1] != "k2:9092" {
		t.Errorf("brokers = %v", cfg.Kafka.Brokers)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"page size too large", map[string]string{"TOPCARE_FEED_PAGE_SIZE": "500"}},
		{"bad scoring url", map[string]string{"TOPCARE_SCORING_ENDPOINT": "not a url"}},
		{"bad log level", map[string]string{"TOPCARE_LOGGING_LEVEL": "loud"}},
		{"bad compression", map[string]string{"TOPCARE_KAFKA_COMPRESSION": "brotli"}},
		{"failure rate above one", map[string]string{"TOPCARE_SCORING_BREAKER_FAILURE_RATE": "1.5"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(""); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"TOPCARE_SERVER_ADDR", "server.addr"},
		{"TOPCARE_CATALOG_CACHE_SIZE", "catalog.cache_size"},
		{"TOPCARE_SCORING_BREAKER_FAILURE_RATE", "scoring.breaker.failure_rate"},
		{"TOPCARE_CONFIG", ""},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
