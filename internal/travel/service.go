// Package travel is the single entry point used by transports and
// schedulers. It routes each request to its domain resolver.
package travel

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/exchange"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
	"github.com/HongRae-Kim/travel-taipei/internal/spot"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

// ExchangeRates resolves home-currency rates.
type ExchangeRates interface {
	Resolve(ctx context.Context, currency string) (exchange.ExchangeRate, error)
	Refresh(ctx context.Context, currency string) (exchange.ExchangeRate, error)
}

// CurrentWeather resolves the fixed location's current conditions.
type CurrentWeather interface {
	Resolve(ctx context.Context) (weather.WeatherSnapshot, error)
	Refresh(ctx context.Context) (weather.WeatherSnapshot, error)
}

// Forecasts resolves the fixed location's daily forecast.
type Forecasts interface {
	Resolve(ctx context.Context) ([]weather.ForecastDay, error)
	Refresh(ctx context.Context) ([]weather.ForecastDay, error)
}

// Spots searches and looks up places.
type Spots interface {
	Search(ctx context.Context, category string, criteria spot.Criteria) ([]spot.Spot, error)
	Detail(ctx context.Context, id, category string) (spot.SpotDetail, error)
}

// Deps bundles the resolvers behind the facade.
type Deps struct {
	Exchange        ExchangeRates
	Weather         CurrentWeather
	Forecast        Forecasts
	Spots           Spots
	Cache           *cache.TieredCache
	DefaultCurrency string
}

type Service struct {
	exchange        ExchangeRates
	weather         CurrentWeather
	forecast        Forecasts
	spots           Spots
	cache           *cache.TieredCache
	defaultCurrency string
	log             logrus.FieldLogger
}

func NewService(d Deps, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logging.Discard()
	}
	cur := strings.ToUpper(strings.TrimSpace(d.DefaultCurrency))
	if cur == "" {
		cur = "TWD"
	}
	return &Service{
		exchange:        d.Exchange,
		weather:         d.Weather,
		forecast:        d.Forecast,
		spots:           d.Spots,
		cache:           d.Cache,
		defaultCurrency: cur,
		log:             log,
	}
}

// DefaultCurrency is used when a caller omits the currency.
func (s *Service) DefaultCurrency() string { return s.defaultCurrency }

func (s *Service) currency(code string) string {
	if strings.TrimSpace(code) == "" {
		return s.defaultCurrency
	}
	return code
}

func (s *Service) GetExchangeRate(ctx context.Context, currency string) (exchange.ExchangeRate, error) {
	return s.exchange.Resolve(ctx, s.currency(currency))
}

func (s *Service) GetWeather(ctx context.Context) (weather.WeatherSnapshot, error) {
	return s.weather.Resolve(ctx)
}

func (s *Service) GetForecast(ctx context.Context) ([]weather.ForecastDay, error) {
	return s.forecast.Resolve(ctx)
}

func (s *Service) SearchSpots(ctx context.Context, category string, criteria spot.Criteria) ([]spot.Spot, error) {
	return s.spots.Search(ctx, category, criteria)
}

func (s *Service) GetSpotDetail(ctx context.Context, id, category string) (spot.SpotDetail, error) {
	return s.spots.Detail(ctx, id, category)
}

// EvictAndRefresh drops the live entry for key in domain and, where the
// domain has a single canonical request to replay, fetches it again. Spot
// domains are only evicted.
func (s *Service) EvictAndRefresh(ctx context.Context, domain cache.Domain, key string) error {
	log := s.log.WithFields(logrus.Fields{"domain": domain, "key": key})

	var err error
	switch domain {
	case cache.DomainExchange:
		_, err = s.exchange.Refresh(ctx, s.currency(key))
	case cache.DomainWeather:
		_, err = s.weather.Refresh(ctx)
	case cache.DomainForecast:
		_, err = s.forecast.Refresh(ctx)
	case cache.DomainSpots, cache.DomainSpotDetails:
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("%w: empty cache key for %s", apperr.ErrInvalidInput, domain)
		}
		err = s.cache.Evict(ctx, domain, cache.Live, key)
	default:
		return fmt.Errorf("%w: unknown domain %q", apperr.ErrInvalidInput, domain)
	}

	if err != nil {
		log.WithError(err).Warn("evict and refresh failed")
		return err
	}
	log.Info("evict and refresh done")
	return nil
}

// Warm refreshes current weather and the forecast concurrently.
func (s *Service) Warm(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_, err := s.weather.Refresh(ctx)
		return err
	})
	g.Go(func() error {
		_, err := s.forecast.Refresh(ctx)
		return err
	})
	return g.Wait()
}
