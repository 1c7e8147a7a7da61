package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"

	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

// Cache backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

type AppConfig struct {
	Port      string
	LogLevel  string
	LogFormat string

	// Outbound HTTP resilience.
	HTTPConnectTimeout      time.Duration
	HTTPResponseTimeout     time.Duration
	RetryMax                int
	RetryInitial            time.Duration
	RetryMaxInterval        time.Duration
	BreakerFailureThreshold int
	BreakerOpenTimeout      time.Duration
	UpstreamRateLimit       float64

	// Exchange rates.
	ExchangeAPIURL      string
	ExchangeAPIKey      string
	ExchangeFallbackURL string
	HomeCurrency        string
	DefaultCurrency     string
	HomeTimezone        *time.Location
	ExchangeRefreshCron string

	// Weather.
	WeatherAPIURL       string
	WeatherForecastURL  string
	WeatherAPIKey       string
	WeatherLat          float64
	WeatherLon          float64
	WeatherCity         string
	WeatherCountry      string
	GeocoderAPIKey      string
	LocalTimezone       *time.Location
	WeatherWarmInterval time.Duration

	// coordsFromEnv is set when WEATHER_LAT or WEATHER_LON was given explicitly.
	coordsFromEnv bool

	// Places.
	PlacesAPIURL string
	PlacesAPIKey string

	// Cache.
	CacheBackend  string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	TTL           cache.Policy
}

// Load reads configuration from the environment, after merging a .env file
// when one exists.
func Load() (*AppConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var errs []error
	dur := func(key string, def time.Duration) time.Duration {
		d, err := getenvDuration(key, def)
		if err != nil {
			errs = append(errs, err)
		}
		return d
	}
	zone := func(key, def string) *time.Location {
		loc, err := time.LoadLocation(getenvDefault(key, def))
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", key, err))
			return time.UTC
		}
		return loc
	}

	cfg := &AppConfig{
		Port:      getenvDefault("PORT", "8080"),
		LogLevel:  getenvDefault("LOG_LEVEL", "info"),
		LogFormat: getenvDefault("LOG_FORMAT", "text"),

		HTTPConnectTimeout:      dur("HTTP_CONNECT_TIMEOUT", 3*time.Second),
		HTTPResponseTimeout:     dur("HTTP_RESPONSE_TIMEOUT", 5*time.Second),
		RetryMax:                getenvInt("RETRY_MAX", 2),
		RetryInitial:            dur("RETRY_INITIAL", 300*time.Millisecond),
		RetryMaxInterval:        dur("RETRY_MAX_INTERVAL", 2*time.Second),
		BreakerFailureThreshold: getenvInt("BREAKER_FAILURE_THRESHOLD", 5),
		BreakerOpenTimeout:      dur("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		UpstreamRateLimit:       getenvFloat("UPSTREAM_RATE_LIMIT", 0),

		ExchangeAPIURL:      getenvDefault("EXCHANGE_API_URL", "https://oapi.koreaexim.go.kr/site/program/financial/exchangeJSON"),
		ExchangeAPIKey:      os.Getenv("EXCHANGE_API_KEY"),
		ExchangeFallbackURL: getenvDefault("EXCHANGE_FALLBACK_URL", "https://open.er-api.com/v6/latest"),
		HomeCurrency:        strings.ToUpper(getenvDefault("HOME_CURRENCY", "KRW")),
		DefaultCurrency:     strings.ToUpper(getenvDefault("DEFAULT_CURRENCY", "TWD")),
		HomeTimezone:        zone("HOME_TIMEZONE", "Asia/Seoul"),
		ExchangeRefreshCron: getenvDefault("EXCHANGE_REFRESH_CRON", "30 11 * * 1-5"),

		WeatherAPIURL:       getenvDefault("WEATHER_API_URL", "https://api.openweathermap.org/data/2.5/weather"),
		WeatherForecastURL:  getenvDefault("WEATHER_FORECAST_URL", "https://api.openweathermap.org/data/2.5/forecast"),
		WeatherAPIKey:       os.Getenv("WEATHER_API_KEY"),
		WeatherLat:          getenvFloat("WEATHER_LAT", 25.0330),
		WeatherLon:          getenvFloat("WEATHER_LON", 121.5654),
		WeatherCity:         getenvDefault("WEATHER_CITY", "Taipei"),
		WeatherCountry:      getenvDefault("WEATHER_COUNTRY", "TW"),
		GeocoderAPIKey:      os.Getenv("GEOCODER_API_KEY"),
		LocalTimezone:       zone("LOCAL_TIMEZONE", "Asia/Taipei"),
		WeatherWarmInterval: dur("WEATHER_WARM_INTERVAL", 0),
		coordsFromEnv:       os.Getenv("WEATHER_LAT") != "" || os.Getenv("WEATHER_LON") != "",

		PlacesAPIURL: getenvDefault("PLACES_API_URL", "https://maps.googleapis.com/maps/api/place"),
		PlacesAPIKey: os.Getenv("PLACES_API_KEY"),

		CacheBackend:  strings.ToLower(getenvDefault("CACHE_BACKEND", BackendMemory)),
		RedisAddress:  os.Getenv("REDIS_ADDRESS"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getenvInt("REDIS_DB", 0),
	}

	defaults := cache.DefaultPolicy()
	ttl := func(d cache.Domain, liveKey, backupKey string) cache.TTL {
		t := cache.TTL{Live: dur(liveKey, defaults[d].Live)}
		if backupKey != "" {
			t.Backup = dur(backupKey, defaults[d].Backup)
		}
		return t
	}
	cfg.TTL = cache.Policy{
		cache.DomainExchange:    ttl(cache.DomainExchange, "EXCHANGE_TTL", "EXCHANGE_BACKUP_TTL"),
		cache.DomainWeather:     ttl(cache.DomainWeather, "WEATHER_TTL", "WEATHER_BACKUP_TTL"),
		cache.DomainForecast:    ttl(cache.DomainForecast, "FORECAST_TTL", "FORECAST_BACKUP_TTL"),
		cache.DomainSpots:       ttl(cache.DomainSpots, "SPOTS_TTL", ""),
		cache.DomainSpotDetails: ttl(cache.DomainSpotDetails, "SPOT_DETAILS_TTL", ""),
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the process cannot run with.
func (c *AppConfig) Validate() error {
	var errs []error
	if c.HTTPConnectTimeout <= 0 || c.HTTPResponseTimeout <= 0 {
		errs = append(errs, errors.New("http timeouts must be positive"))
	}
	if c.RetryMax < 0 {
		errs = append(errs, errors.New("RETRY_MAX cannot be negative"))
	}
	if c.RetryInitial <= 0 {
		errs = append(errs, errors.New("RETRY_INITIAL must be positive"))
	}
	if c.BreakerFailureThreshold < 0 {
		errs = append(errs, errors.New("BREAKER_FAILURE_THRESHOLD cannot be negative"))
	}
	if c.UpstreamRateLimit < 0 {
		errs = append(errs, errors.New("UPSTREAM_RATE_LIMIT cannot be negative"))
	}
	switch c.CacheBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisAddress == "" {
			errs = append(errs, errors.New("REDIS_ADDRESS is required for the redis cache backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend))
	}
	for d, t := range c.TTL {
		if t.Live <= 0 {
			errs = append(errs, fmt.Errorf("%s live ttl must be positive", d))
		}
		if t.Backup < 0 {
			errs = append(errs, fmt.Errorf("%s backup ttl cannot be negative", d))
		}
	}
	if len(c.HomeCurrency) != 3 || len(c.DefaultCurrency) != 3 {
		errs = append(errs, errors.New("currency codes must have three letters"))
	}
	return errors.Join(errs...)
}

// FetchConfig returns the resilience settings shared by all provider clients.
func (c *AppConfig) FetchConfig() fetch.Config {
	policy := fetch.DefaultRetryPolicy()
	policy.MaxRetries = c.RetryMax
	policy.InitialInterval = c.RetryInitial
	policy.MaxInterval = c.RetryMaxInterval

	return fetch.Config{
		Retry: policy,
		Breaker: fetch.BreakerSettings{
			FailureThreshold: uint32(c.BreakerFailureThreshold),
			OpenTimeout:      c.BreakerOpenTimeout,
		},
		RateLimit: c.UpstreamRateLimit,
	}
}

// WeatherLocation is the fixed location tracked by the weather resolvers.
func (c *AppConfig) WeatherLocation() weather.Location {
	return weather.Location{Name: c.WeatherCity, Lat: c.WeatherLat, Lon: c.WeatherLon}
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

func getenvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return f
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
