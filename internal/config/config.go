package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/skywash/skywash-api/internal/washout"
)

// Config holds service configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WAQIToken    string
	WAQIBaseURL  string
	FetchTimeout time.Duration

	WashoutCoeff float64

	CitiesPath string
	StaticDir  string

	CacheTTL     time.Duration
	CacheBackend string // "in_memory" or "memcached"

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	CircuitBreakerEnabled          bool
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration

	WarmCache    bool
	WarmInterval time.Duration

	DegradedWindow    time.Duration
	DegradedStaticPct int

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WAQI struct {
		BaseURL string `yaml:"base_url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"waqi"`

	Washout struct {
		Coefficient *float64 `yaml:"coefficient"`
	} `yaml:"washout"`

	Dataset struct {
		CitiesPath string `yaml:"cities_path"`
		StaticDir  string `yaml:"static_dir"`
	} `yaml:"dataset"`

	Cache struct {
		Backend   string `yaml:"backend"`
		TTL       string `yaml:"ttl"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Warm         *bool  `yaml:"warm"`
		WarmInterval string `yaml:"warm_interval"`
	} `yaml:"cache"`

	Reliability struct {
		RateLimitRPS      int    `yaml:"rate_limit_rps"`
		RateLimitBurst    int    `yaml:"rate_limit_burst"`
		BreakerEnabled    *bool  `yaml:"breaker_enabled"`
		BreakerFailures   int    `yaml:"breaker_failure_threshold"`
		BreakerSuccesses  int    `yaml:"breaker_success_threshold"`
		BreakerTimeout    string `yaml:"breaker_timeout"`
		DegradedWindow    string `yaml:"degraded_window"`
		DegradedStaticPct int    `yaml:"degraded_static_pct"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

// Load reads configuration in three layers: .env (if present), then
// config/{ENV_NAME}.yaml (default dev, optional), then env overrides.
// The WAQI token defaults to the public rate-limited demo token so the
// service runs without any setup. Call from project root.
func Load(logger *zap.Logger) (*Config, error) {
	// Missing .env is fine; real deployments set env directly.
	_ = godotenv.Load()

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	var fc fileConfig
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(os.Getenv("SERVER_PORT"), fc.Server.Port, "8000")

	cfg.WAQIToken = strings.TrimSpace(os.Getenv("WAQI_API_TOKEN"))
	if cfg.WAQIToken == "" {
		cfg.WAQIToken = "demo"
	}
	cfg.WAQIBaseURL = firstNonEmpty(os.Getenv("WAQI_BASE_URL"), fc.WAQI.BaseURL, "https://api.waqi.info/feed")
	cfg.FetchTimeout = envDuration("FETCH_TIMEOUT", parseDuration(fc.WAQI.Timeout, 10*time.Second))

	cfg.WashoutCoeff = washout.DefaultCoefficient
	if fc.Washout.Coefficient != nil && *fc.Washout.Coefficient > 0 {
		cfg.WashoutCoeff = *fc.Washout.Coefficient
	}
	if raw := strings.TrimSpace(os.Getenv("WASHOUT_COEFF")); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 {
			// An unusable override falls back to the default rather than
			// failing startup.
			if logger != nil {
				logger.Warn("invalid WASHOUT_COEFF, using default",
					zap.String("value", raw),
					zap.Float64("default", washout.DefaultCoefficient))
			}
		} else {
			cfg.WashoutCoeff = v
		}
	}

	cfg.CitiesPath = firstNonEmpty(os.Getenv("CITIES_PATH"), fc.Dataset.CitiesPath, "data/cities.json")
	cfg.StaticDir = firstNonEmpty(os.Getenv("STATIC_DIR"), fc.Dataset.StaticDir, "static")

	cfg.CacheTTL = envDuration("CACHE_TTL", parseDuration(fc.Cache.TTL, time.Hour))
	cfg.CacheBackend = strings.TrimSpace(strings.ToLower(os.Getenv("CACHE_BACKEND")))
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = strings.TrimSpace(strings.ToLower(fc.Cache.Backend))
	}
	if cfg.CacheBackend == "" {
		cfg.CacheBackend = "in_memory"
	}
	cfg.MemcachedAddrs = firstNonEmpty(os.Getenv("MEMCACHED_ADDRS"), fc.Cache.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Cache.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Cache.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = envInt("RATE_LIMIT_RPS", fc.Reliability.RateLimitRPS)
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = envInt("RATE_LIMIT_BURST", fc.Reliability.RateLimitBurst)
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.CircuitBreakerEnabled = true
	if fc.Reliability.BreakerEnabled != nil {
		cfg.CircuitBreakerEnabled = *fc.Reliability.BreakerEnabled
	}
	cfg.CircuitBreakerFailureThreshold = fc.Reliability.BreakerFailures
	if cfg.CircuitBreakerFailureThreshold <= 0 {
		cfg.CircuitBreakerFailureThreshold = 5
	}
	cfg.CircuitBreakerSuccessThreshold = fc.Reliability.BreakerSuccesses
	if cfg.CircuitBreakerSuccessThreshold <= 0 {
		cfg.CircuitBreakerSuccessThreshold = 2
	}
	cfg.CircuitBreakerTimeout = parseDuration(fc.Reliability.BreakerTimeout, 30*time.Second)

	cfg.WarmCache = envBool("WARM_CACHE", fc.Cache.Warm != nil && *fc.Cache.Warm)
	cfg.WarmInterval = envDuration("WARM_INTERVAL", parseDuration(fc.Cache.WarmInterval, 0))

	cfg.DegradedWindow = parseDuration(fc.Reliability.DegradedWindow, 5*time.Minute)
	cfg.DegradedStaticPct = fc.Reliability.DegradedStaticPct
	if cfg.DegradedStaticPct <= 0 {
		cfg.DegradedStaticPct = 50
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if
// parsing fails or the result is not positive.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// envDuration reads a duration env var. Bare integers are seconds, so
// CACHE_TTL=3600 and CACHE_TTL=1h are equivalent.
func envDuration(name string, defaultVal time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultVal
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return parseDuration(raw, defaultVal)
}

func envInt(name string, defaultVal int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultVal
	}
	return v
}

func envBool(name string, defaultVal bool) bool {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return defaultVal
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return defaultVal
	}
	return v
}

// validate performs post-load validation of configuration values.
func validate(cfg *Config) error {
	if cfg.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive")
	}
	if cfg.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive")
	}
	switch cfg.CacheBackend {
	case "in_memory", "memcached":
		// valid
	default:
		return fmt.Errorf("cache.backend must be in_memory or memcached, got %q", cfg.CacheBackend)
	}
	return nil
}
