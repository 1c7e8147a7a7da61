package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	httpapi "github.com/HongRae-Kim/travel-taipei/internal/api/http"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/config"
	"github.com/HongRae-Kim/travel-taipei/internal/exchange"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
	"github.com/HongRae-Kim/travel-taipei/internal/scheduler"
	"github.com/HongRae-Kim/travel-taipei/internal/spot"
	"github.com/HongRae-Kim/travel-taipei/internal/travel"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
	"github.com/HongRae-Kim/travel-taipei/internal/weather/providers"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("failed to load config: %v", err)
	}

	log := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.ShouldGeocode() {
		if err := cfg.GeocodeWeatherLocation(config.GoogleGeocoder(cfg.GeocoderAPIKey)); err != nil {
			log.WithError(err).Warn("geocoding failed; using default coordinates")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Cache backend shared by every domain.
	var backend cache.Backend
	switch cfg.CacheBackend {
	case config.BackendRedis:
		backend, err = cache.NewRedisBackend(ctx, cache.RedisConfig{
			Address:  cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "travel-taipei:",
		})
		if err != nil {
			log.WithError(err).Fatal("failed to connect cache backend")
		}
	default:
		backend = cache.NewMemoryBackend(10 * time.Minute)
	}
	tiered := cache.New(backend, cfg.TTL, cache.WithLogger(log))
	defer func() {
		if err := tiered.Close(); err != nil {
			log.WithError(err).Warn("cache close failed")
		}
	}()

	// One resilient client per upstream so breakers trip independently.
	httpClient := fetch.NewHTTPClient(cfg.HTTPConnectTimeout, cfg.HTTPResponseTimeout)
	fetchCfg := cfg.FetchConfig()
	eximClient := fetch.New("koreaexim", httpClient, fetchCfg, log)
	ratesClient := fetch.New("open-er-api", httpClient, fetchCfg, log)
	owmClient := fetch.New("openweathermap", httpClient, fetchCfg, log)
	placesClient := fetch.New("google-places", httpClient, fetchCfg, log)

	rates := exchange.NewResolver(
		exchange.NewEximProvider(eximClient, cfg.ExchangeAPIURL, cfg.ExchangeAPIKey),
		exchange.NewOpenRatesProvider(ratesClient, cfg.ExchangeFallbackURL),
		tiered,
		exchange.Config{HomeCurrency: cfg.HomeCurrency, Location: cfg.HomeTimezone},
		log,
	)

	owm := providers.NewOpenWeatherProvider(owmClient, cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherForecastURL)
	loc := cfg.WeatherLocation()

	service := travel.NewService(travel.Deps{
		Exchange:        rates,
		Weather:         weather.NewResolver(owm, tiered, loc, log),
		Forecast:        weather.NewForecastAggregator(owm, tiered, loc, cfg.LocalTimezone, log),
		Spots:           spot.NewResolver(spot.NewPlacesClient(placesClient, cfg.PlacesAPIURL, cfg.PlacesAPIKey), tiered, log),
		Cache:           tiered,
		DefaultCurrency: cfg.DefaultCurrency,
	}, log)

	sched := scheduler.New(scheduler.Config{
		Location:     cfg.HomeTimezone,
		ExchangeCron: cfg.ExchangeRefreshCron,
		Currency:     cfg.DefaultCurrency,
		WarmInterval: cfg.WeatherWarmInterval,
	}, service, log)
	if err := sched.Start(); err != nil {
		log.WithError(err).Fatal("failed to start scheduler")
	}
	defer sched.Stop()

	app := fiber.New(fiber.Config{
		AppName:               "travel-taipei",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          20 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(log),
	})

	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New(logger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
		Output: log.Writer(),
	}))
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "travel-taipei",
		})
	})

	httpapi.RegisterRoutes(app, service)

	go func() {
		log.WithField("port", cfg.Port).Info("http server listening")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.WithError(err).Error("fiber server stopped")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.WithError(err).Error("error during shutdown")
	}
}
