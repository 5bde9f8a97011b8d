package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

// chdir switches to dir for the duration of the test, restoring the
// previous working directory on cleanup (t.Chdir needs Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}

// clearEnv blanks every env var Load consults so tests see defaults.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{
		"ENV_NAME", "SERVER_PORT",
		"WAQI_API_TOKEN", "WAQI_BASE_URL", "FETCH_TIMEOUT",
		"WASHOUT_COEFF", "CITIES_PATH", "STATIC_DIR",
		"CACHE_TTL", "CACHE_BACKEND", "MEMCACHED_ADDRS",
		"RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
		"WARM_CACHE", "WARM_INTERVAL",
	} {
		t.Setenv(name, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8000" {
		t.Errorf("ServerPort = %q, want 8000", cfg.ServerPort)
	}
	if cfg.WAQIToken != "demo" {
		t.Errorf("WAQIToken = %q, want demo", cfg.WAQIToken)
	}
	if cfg.WAQIBaseURL != "https://api.waqi.info/feed" {
		t.Errorf("WAQIBaseURL = %q", cfg.WAQIBaseURL)
	}
	if cfg.FetchTimeout != 10*time.Second {
		t.Errorf("FetchTimeout = %v, want 10s", cfg.FetchTimeout)
	}
	if cfg.WashoutCoeff != 0.08 {
		t.Errorf("WashoutCoeff = %v, want 0.08", cfg.WashoutCoeff)
	}
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("CacheBackend = %q, want in_memory", cfg.CacheBackend)
	}
	if cfg.CitiesPath != "data/cities.json" {
		t.Errorf("CitiesPath = %q", cfg.CitiesPath)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	t.Setenv("WAQI_API_TOKEN", "real-token")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("WASHOUT_COEFF", "0.12")
	t.Setenv("CACHE_TTL", "3600")
	t.Setenv("FETCH_TIMEOUT", "5s")

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.WAQIToken != "real-token" {
		t.Errorf("WAQIToken = %q", cfg.WAQIToken)
	}
	if cfg.ServerPort != "9090" {
		t.Errorf("ServerPort = %q", cfg.ServerPort)
	}
	if cfg.WashoutCoeff != 0.12 {
		t.Errorf("WashoutCoeff = %v, want 0.12", cfg.WashoutCoeff)
	}
	// Bare seconds and duration syntax both work.
	if cfg.CacheTTL != time.Hour {
		t.Errorf("CacheTTL = %v, want 1h", cfg.CacheTTL)
	}
	if cfg.FetchTimeout != 5*time.Second {
		t.Errorf("FetchTimeout = %v, want 5s", cfg.FetchTimeout)
	}
}

func TestLoad_InvalidWashoutCoeffFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "non-numeric", value: "abc"},
		{name: "negative", value: "-0.5"},
		{name: "zero", value: "0"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			chdir(t, t.TempDir())
			clearEnv(t)
			t.Setenv("WASHOUT_COEFF", tc.value)

			cfg, err := Load(zap.NewNop())
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.WashoutCoeff != 0.08 {
				t.Errorf("WashoutCoeff = %v, want default 0.08", cfg.WashoutCoeff)
			}
		})
	}
}

func TestLoad_YAMLFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "config"), 0o755); err != nil {
		t.Fatal(err)
	}
	content := `
server:
  port: "8081"
waqi:
  timeout: 3s
washout:
  coefficient: 0.1
cache:
  backend: memcached
  ttl: 30m
  memcached:
    addrs: "mc1:11211,mc2:11211"
reliability:
  rate_limit_rps: 50
  degraded_static_pct: 80
`
	if err := os.WriteFile(filepath.Join(dir, "config", "dev.yaml"), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	chdir(t, dir)
	clearEnv(t)

	cfg, err := Load(zap.NewNop())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "8081" {
		t.Errorf("ServerPort = %q, want 8081", cfg.ServerPort)
	}
	if cfg.FetchTimeout != 3*time.Second {
		t.Errorf("FetchTimeout = %v, want 3s", cfg.FetchTimeout)
	}
	if cfg.WashoutCoeff != 0.1 {
		t.Errorf("WashoutCoeff = %v, want 0.1", cfg.WashoutCoeff)
	}
	if cfg.CacheBackend != "memcached" {
		t.Errorf("CacheBackend = %q, want memcached", cfg.CacheBackend)
	}
	if cfg.CacheTTL != 30*time.Minute {
		t.Errorf("CacheTTL = %v, want 30m", cfg.CacheTTL)
	}
	if cfg.MemcachedAddrs != "mc1:11211,mc2:11211" {
		t.Errorf("MemcachedAddrs = %q", cfg.MemcachedAddrs)
	}
	if cfg.RateLimitRPS != 50 {
		t.Errorf("RateLimitRPS = %d, want 50", cfg.RateLimitRPS)
	}
	if cfg.DegradedStaticPct != 80 {
		t.Errorf("DegradedStaticPct = %d, want 80", cfg.DegradedStaticPct)
	}
}

func TestLoad_InvalidBackendRejected(t *testing.T) {
	chdir(t, t.TempDir())
	clearEnv(t)
	t.Setenv("CACHE_BACKEND", "redis")

	if _, err := Load(zap.NewNop()); err == nil {
		t.Fatal("Load() = nil error, want backend validation failure")
	}
}
