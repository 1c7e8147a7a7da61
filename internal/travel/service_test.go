package travel

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/exchange"
	"github.com/HongRae-Kim/travel-taipei/internal/spot"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) has(call string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.calls {
		if c == call {
			return true
		}
	}
	return false
}

type fakeExchange struct{ rec *recorder }

func (f fakeExchange) Resolve(_ context.Context, cur string) (exchange.ExchangeRate, error) {
	f.rec.add("exchange.resolve:" + cur)
	return exchange.ExchangeRate{Currency: cur, BaseRate: 43.24}, nil
}

func (f fakeExchange) Refresh(_ context.Context, cur string) (exchange.ExchangeRate, error) {
	f.rec.add("exchange.refresh:" + cur)
	return exchange.ExchangeRate{Currency: cur}, nil
}

type fakeWeather struct {
	rec *recorder
	err error
}

func (f fakeWeather) Resolve(context.Context) (weather.WeatherSnapshot, error) {
	f.rec.add("weather.resolve")
	return weather.WeatherSnapshot{Location: "Taipei"}, f.err
}

func (f fakeWeather) Refresh(context.Context) (weather.WeatherSnapshot, error) {
	f.rec.add("weather.refresh")
	return weather.WeatherSnapshot{}, f.err
}

type fakeForecast struct{ rec *recorder }

func (f fakeForecast) Resolve(context.Context) ([]weather.ForecastDay, error) {
	f.rec.add("forecast.resolve")
	return []weather.ForecastDay{{Date: "2026-02-27"}}, nil
}

func (f fakeForecast) Refresh(context.Context) ([]weather.ForecastDay, error) {
	f.rec.add("forecast.refresh")
	return nil, nil
}

type fakeSpots struct{ rec *recorder }

func (f fakeSpots) Search(_ context.Context, category string, _ spot.Criteria) ([]spot.Spot, error) {
	f.rec.add("spots.search:" + category)
	return []spot.Spot{{ID: "a"}}, nil
}

func (f fakeSpots) Detail(_ context.Context, id, category string) (spot.SpotDetail, error) {
	f.rec.add("spots.detail:" + id + ":" + category)
	return spot.SpotDetail{ID: id}, nil
}

func newService(weatherErr error) (*Service, *recorder, *cache.TieredCache) {
	rec := &recorder{}
	c := cache.New(cache.NewMemoryBackend(time.Minute), cache.DefaultPolicy())
	svc := NewService(Deps{
		Exchange:        fakeExchange{rec},
		Weather:         fakeWeather{rec: rec, err: weatherErr},
		Forecast:        fakeForecast{rec},
		Spots:           fakeSpots{rec},
		Cache:           c,
		DefaultCurrency: "twd",
	}, nil)
	return svc, rec, c
}

func TestGetExchangeRateDefaultsCurrency(t *testing.T) {
	svc, rec, _ := newService(nil)

	rate, err := svc.GetExchangeRate(context.Background(), " ")
	require.NoError(t, err)
	assert.Equal(t, "TWD", rate.Currency)
	assert.True(t, rec.has("exchange.resolve:TWD"))

	_, err = svc.GetExchangeRate(context.Background(), "usd")
	require.NoError(t, err)
	assert.True(t, rec.has("exchange.resolve:usd"))
}

func TestFacadeDelegates(t *testing.T) {
	svc, rec, _ := newService(nil)
	ctx := context.Background()

	_, err := svc.GetWeather(ctx)
	require.NoError(t, err)
	_, err = svc.GetForecast(ctx)
	require.NoError(t, err)
	_, err = svc.SearchSpots(ctx, "cafe", spot.Criteria{})
	require.NoError(t, err)
	_, err = svc.GetSpotDetail(ctx, "p1", "cafe")
	require.NoError(t, err)

	for _, call := range []string{"weather.resolve", "forecast.resolve", "spots.search:cafe", "spots.detail:p1:cafe"} {
		assert.True(t, rec.has(call), call)
	}
}

func TestEvictAndRefresh(t *testing.T) {
	svc, rec, _ := newService(nil)
	ctx := context.Background()

	require.NoError(t, svc.EvictAndRefresh(ctx, cache.DomainExchange, ""))
	require.NoError(t, svc.EvictAndRefresh(ctx, cache.DomainWeather, ""))
	require.NoError(t, svc.EvictAndRefresh(ctx, cache.DomainForecast, ""))

	assert.True(t, rec.has("exchange.refresh:TWD"))
	assert.True(t, rec.has("weather.refresh"))
	assert.True(t, rec.has("forecast.refresh"))
}

func TestEvictAndRefreshSpotsOnlyEvicts(t *testing.T) {
	svc, rec, c := newService(nil)
	ctx := context.Background()
	key := "cafe:25.033000:121.565400:5000:false:all"

	require.NoError(t, c.PutAll(ctx, cache.DomainSpots, key, []spot.Spot{{ID: "a"}}))
	require.NoError(t, svc.EvictAndRefresh(ctx, cache.DomainSpots, key))

	var got []spot.Spot
	assert.False(t, c.Get(ctx, cache.DomainSpots, cache.Live, key, &got))
	assert.Empty(t, rec.calls)
}

func TestEvictAndRefreshRejectsUnknownDomain(t *testing.T) {
	svc, _, _ := newService(nil)

	err := svc.EvictAndRefresh(context.Background(), cache.Domain("hotels"), "x")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))

	err = svc.EvictAndRefresh(context.Background(), cache.DomainSpotDetails, "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidInput))
}

func TestEvictAndRefreshPropagatesFailure(t *testing.T) {
	svc, _, _ := newService(apperr.ErrDataUnavailable)

	err := svc.EvictAndRefresh(context.Background(), cache.DomainWeather, "")
	assert.True(t, errors.Is(err, apperr.ErrDataUnavailable))
}

func TestWarm(t *testing.T) {
	svc, rec, _ := newService(nil)
	require.NoError(t, svc.Warm(context.Background()))
	assert.True(t, rec.has("weather.refresh"))
	assert.True(t, rec.has("forecast.refresh"))

	failing, _, _ := newService(apperr.ErrDataUnavailable)
	assert.True(t, errors.Is(failing.Warm(context.Background()), apperr.ErrDataUnavailable))
}
