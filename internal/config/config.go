package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds service configuration loaded from YAML, .env and env.
type Config struct {
	TestingMode bool

	ServerPort string

	RequestTimeout  time.Duration
	UpstreamTimeout time.Duration
	MaxQueryLength  int

	Providers Providers

	StoreBackend      string // "postgres", "memcached" or "in_memory"
	DatabaseURL       string
	StoreMaxOpenConns int
	StoreTimeout      time.Duration // bounds one location insert after a provider fetch

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RateLimitRPS   int
	RateLimitBurst int

	ShutdownTimeout time.Duration

	DegradedWindow   time.Duration
	DegradedErrorPct int

	WarmLocations []string
}

// Provider is one upstream data source.
type Provider struct {
	URL    string
	APIKey string
}

type Providers struct {
	Location Provider
	Weather  Provider
	Reviews  Provider
	Movies   Provider
	Trails   Provider
}

type fileConfig struct {
	TestingMode *bool `yaml:"testing_mode"`

	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	Request struct {
		Timeout        string `yaml:"timeout"`
		MaxQueryLength int    `yaml:"max_query_length"`
	} `yaml:"request"`

	Upstream struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"upstream"`

	Providers struct {
		Location providerFile `yaml:"location"`
		Weather  providerFile `yaml:"weather"`
		Reviews  providerFile `yaml:"reviews"`
		Movies   providerFile `yaml:"movies"`
		Trails   providerFile `yaml:"trails"`
	} `yaml:"providers"`

	Store struct {
		Backend      string `yaml:"backend"`
		DatabaseURL  string `yaml:"database_url"`
		MaxOpenConns int    `yaml:"max_open_conns"`
		Timeout      string `yaml:"timeout"`
		Memcached    struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
	} `yaml:"store"`

	Reliability struct {
		RateLimitRPS   int `yaml:"rate_limit_rps"`
		RateLimitBurst int `yaml:"rate_limit_burst"`
	} `yaml:"reliability"`

	Shutdown struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"shutdown"`

	Lifecycle struct {
		DegradedWindow   string `yaml:"degraded_window"`
		DegradedErrorPct int    `yaml:"degraded_error_pct"`
	} `yaml:"lifecycle"`

	WarmLocations []string `yaml:"warm_locations"`
}

type providerFile struct {
	URL string `yaml:"url"`
}

type secretsFile struct {
	GeocodeAPIKey string `yaml:"geocode_api_key"`
	WeatherAPIKey string `yaml:"weather_api_key"`
	YelpAPIKey    string `yaml:"yelp_api_key"`
	MovieAPIKey   string `yaml:"movie_api_key"`
	TrailAPIKey   string `yaml:"trail_api_key"`
	DatabaseURL   string `yaml:"database_url"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev). A .env
// file in the working directory is loaded first without overriding variables
// already set. Provider keys and DATABASE_URL come from env or
// config/secrets.yaml, env winning. Call from project root.
func Load() (*Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	if err := godotenv.Load(filepath.Join(cwd, ".env")); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	sec, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		TestingMode: false,
	}
	if fc.TestingMode != nil {
		cfg.TestingMode = *fc.TestingMode
	}

	cfg.ServerPort = fc.Server.Port
	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	cfg.Providers = Providers{
		Location: Provider{URL: fc.Providers.Location.URL, APIKey: envOr("GEOCODE_API_KEY", sec.GeocodeAPIKey)},
		Weather:  Provider{URL: fc.Providers.Weather.URL, APIKey: envOr("WEATHER_API_KEY", sec.WeatherAPIKey)},
		Reviews:  Provider{URL: fc.Providers.Reviews.URL, APIKey: envOr("YELP_API_KEY", sec.YelpAPIKey)},
		Movies:   Provider{URL: fc.Providers.Movies.URL, APIKey: envOr("MOVIE_API_KEY", sec.MovieAPIKey)},
		Trails:   Provider{URL: fc.Providers.Trails.URL, APIKey: envOr("TRAIL_API_KEY", sec.TrailAPIKey)},
	}

	cfg.UpstreamTimeout = parseDurationOrZero(fc.Upstream.Timeout, 5*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)
	cfg.MaxQueryLength = fc.Request.MaxQueryLength
	if cfg.MaxQueryLength <= 0 {
		cfg.MaxQueryLength = 200
	}

	cfg.StoreBackend = strings.TrimSpace(strings.ToLower(os.Getenv("STORE_BACKEND")))
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = strings.TrimSpace(strings.ToLower(fc.Store.Backend))
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "postgres"
	}
	cfg.DatabaseURL = envOr("DATABASE_URL", sec.DatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = strings.TrimSpace(fc.Store.DatabaseURL)
	}
	cfg.StoreMaxOpenConns = fc.Store.MaxOpenConns
	if cfg.StoreMaxOpenConns <= 0 {
		cfg.StoreMaxOpenConns = 10
	}
	cfg.StoreTimeout = parseDuration(fc.Store.Timeout, 2*time.Second)
	cfg.MemcachedAddrs = strings.TrimSpace(os.Getenv("MEMCACHED_ADDRS"))
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = strings.TrimSpace(fc.Store.Memcached.Addrs)
	}
	if cfg.MemcachedAddrs == "" {
		cfg.MemcachedAddrs = "localhost:11211"
	}
	cfg.MemcachedTimeout = parseDuration(fc.Store.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Store.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RateLimitRPS = fc.Reliability.RateLimitRPS
	if cfg.RateLimitRPS <= 0 {
		cfg.RateLimitRPS = 100
	}
	cfg.RateLimitBurst = fc.Reliability.RateLimitBurst
	if cfg.RateLimitBurst <= 0 {
		cfg.RateLimitBurst = 250
	}

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 30*time.Second)

	cfg.DegradedWindow = parseDuration(fc.Lifecycle.DegradedWindow, 60*time.Second)
	cfg.DegradedErrorPct = fc.Lifecycle.DegradedErrorPct
	if cfg.DegradedErrorPct <= 0 {
		cfg.DegradedErrorPct = 5
	}

	cfg.WarmLocations = fc.WarmLocations

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

func envOr(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return strings.TrimSpace(fallback)
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// LocationLookupTimeout is the longest a location miss can take: one provider
// call followed by one store insert.
func (c *Config) LocationLookupTimeout() time.Duration {
	return c.UpstreamTimeout + c.StoreTimeout
}

// validate performs post-load validation. Every provider needs a key,
// postgres needs a database URL outside testing mode, and RequestTimeout is
// raised to at least LocationLookupTimeout so a miss (provider call then store
// insert) fits inside the request deadline.
func validate(cfg *Config) error {
	if cfg.UpstreamTimeout <= 0 {
		return fmt.Errorf("upstream.timeout must be positive")
	}
	if lookup := cfg.LocationLookupTimeout(); cfg.RequestTimeout < lookup {
		cfg.RequestTimeout = lookup
	}

	var missing []string
	for _, p := range []struct {
		env string
		key string
	}{
		{"GEOCODE_API_KEY", cfg.Providers.Location.APIKey},
		{"WEATHER_API_KEY", cfg.Providers.Weather.APIKey},
		{"YELP_API_KEY", cfg.Providers.Reviews.APIKey},
		{"MOVIE_API_KEY", cfg.Providers.Movies.APIKey},
		{"TRAIL_API_KEY", cfg.Providers.Trails.APIKey},
	} {
		if p.key == "" {
			missing = append(missing, p.env)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s required (set env, .env or config/secrets.yaml)", strings.Join(missing, ", "))
	}

	switch cfg.StoreBackend {
	case "postgres":
		if cfg.DatabaseURL == "" && !cfg.TestingMode {
			return fmt.Errorf("DATABASE_URL required for store.backend postgres")
		}
	case "memcached", "in_memory":
		// valid
	default:
		return fmt.Errorf("store.backend must be postgres, memcached or in_memory, got %q", cfg.StoreBackend)
	}
	return nil
}
