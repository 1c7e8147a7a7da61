package weather

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
)

// Resolver serves current conditions for a fixed location through the
// tiered cache.
type Resolver struct {
	provider Provider
	cache    *cache.TieredCache
	loc      Location
	log      logrus.FieldLogger
}

// NewResolver creates a Resolver for loc.
func NewResolver(p Provider, c *cache.TieredCache, loc Location, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logging.Discard()
	}
	return &Resolver{
		provider: p,
		cache:    c,
		loc:      loc,
		log:      log.WithFields(logrus.Fields{"domain": cache.DomainWeather, "key": loc.Key()}),
	}
}

// Location returns the tracked location.
func (r *Resolver) Location() Location { return r.loc }

// Resolve returns the live entry, a fresh snapshot, or, when the provider
// fails, the last known-good backup.
func (r *Resolver) Resolve(ctx context.Context) (WeatherSnapshot, error) {
	key := r.loc.Key()

	var snap WeatherSnapshot
	if r.cache.Get(ctx, cache.DomainWeather, cache.Live, key, &snap) {
		return snap, nil
	}

	reading, err := r.provider.Current(ctx, r.loc)
	if err != nil {
		if r.cache.Get(ctx, cache.DomainWeather, cache.Backup, key, &snap) {
			r.log.WithError(err).Warn("weather provider failed; serving backup")
			return snap, nil
		}
		r.log.WithError(err).Error("weather unavailable")
		return WeatherSnapshot{}, fmt.Errorf("%w: weather %s: %w", apperr.ErrDataUnavailable, key, err)
	}

	snap = r.snapshot(reading)
	if err := r.cache.PutAll(ctx, cache.DomainWeather, key, snap); err != nil {
		r.log.WithError(err).Warn("write-through failed")
	}
	return snap, nil
}

// Refresh evicts the live entry and resolves again.
func (r *Resolver) Refresh(ctx context.Context) (WeatherSnapshot, error) {
	if err := r.cache.Evict(ctx, cache.DomainWeather, cache.Live, r.loc.Key()); err != nil {
		r.log.WithError(err).Warn("evict before refresh failed")
	}
	return r.Resolve(ctx)
}

func (r *Resolver) snapshot(rd Reading) WeatherSnapshot {
	city := rd.City
	if city == "" {
		city = r.loc.Name
	}
	return WeatherSnapshot{
		Location:      city,
		Temperature:   rd.Temperature,
		FeelsLike:     rd.FeelsLike,
		HumidityPct:   rd.HumidityPct,
		ConditionText: Describe(rd.Condition),
		IconRef:       IconURL(rd.Condition),
		WindSpeed:     rd.WindSpeed,
	}
}

// ForecastAggregator turns sub-day forecast samples into per-day summaries
// for a fixed location, cached as one entry.
type ForecastAggregator struct {
	provider ForecastProvider
	cache    *cache.TieredCache
	loc      Location
	zone     *time.Location
	log      logrus.FieldLogger
}

// NewForecastAggregator creates an aggregator bucketing days in zone.
func NewForecastAggregator(p ForecastProvider, c *cache.TieredCache, loc Location, zone *time.Location, log logrus.FieldLogger) *ForecastAggregator {
	if zone == nil {
		zone = time.UTC
	}
	if log == nil {
		log = logging.Discard()
	}
	return &ForecastAggregator{
		provider: p,
		cache:    c,
		loc:      loc,
		zone:     zone,
		log:      log.WithFields(logrus.Fields{"domain": cache.DomainForecast, "key": loc.Key()}),
	}
}

// Resolve returns the cached forecast or aggregates a fresh one. The backup
// tier is consulted on provider failure only when it is configured.
func (a *ForecastAggregator) Resolve(ctx context.Context) ([]ForecastDay, error) {
	key := a.loc.Key()

	var days []ForecastDay
	if a.cache.Get(ctx, cache.DomainForecast, cache.Live, key, &days) {
		return days, nil
	}

	samples, err := a.provider.Forecast(ctx, a.loc)
	if err == nil && len(samples) == 0 {
		err = fmt.Errorf("%w: %s returned no forecast samples", apperr.ErrUpstream, a.provider.Name())
	}
	if err != nil {
		if a.cache.Enabled(cache.DomainForecast, cache.Backup) &&
			a.cache.Get(ctx, cache.DomainForecast, cache.Backup, key, &days) {
			a.log.WithError(err).Warn("forecast provider failed; serving backup")
			return days, nil
		}
		a.log.WithError(err).Error("forecast unavailable")
		return nil, fmt.Errorf("%w: forecast %s: %w", apperr.ErrDataUnavailable, key, err)
	}

	days = AggregateForecast(samples, a.zone)
	if err := a.cache.PutAll(ctx, cache.DomainForecast, key, days); err != nil {
		a.log.WithError(err).Warn("write-through failed")
	}
	return days, nil
}

// Refresh evicts the live entry and resolves again.
func (a *ForecastAggregator) Refresh(ctx context.Context) ([]ForecastDay, error) {
	if err := a.cache.Evict(ctx, cache.DomainForecast, cache.Live, a.loc.Key()); err != nil {
		a.log.WithError(err).Warn("evict before refresh failed")
	}
	return a.Resolve(ctx)
}
