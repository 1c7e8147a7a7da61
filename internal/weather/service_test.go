package weather

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
)

var taipei = Location{Name: "Taipei", Lat: 25.0330, Lon: 121.5654}

func intPtr(v int) *int { return &v }

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type mockProvider struct {
	mu      sync.Mutex
	reading Reading
	samples []Sample
	err     error
	current int
	fcast   int
}

func (m *mockProvider) Name() string { return "mock" }

func (m *mockProvider) Current(context.Context, Location) (Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current++
	return m.reading, m.err
}

func (m *mockProvider) Forecast(context.Context, Location) ([]Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fcast++
	if m.err != nil {
		return nil, m.err
	}
	return m.samples, nil
}

func (m *mockProvider) fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

func newCache(policy cache.Policy) (*cache.TieredCache, *clock) {
	clk := &clock{now: time.Date(2026, 2, 27, 1, 0, 0, 0, time.UTC)}
	return cache.New(cache.NewMemoryBackend(time.Minute), policy, cache.WithClock(clk.Now)), clk
}

func sampleReading() Reading {
	return Reading{
		City:        "Taipei",
		Temperature: 21.4,
		FeelsLike:   21.0,
		HumidityPct: 78,
		WindSpeed:   3.1,
		Condition:   &Condition{ID: intPtr(803), Description: "온흐림", Icon: "04d"},
	}
}

func TestResolverFetchesAndLocalises(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	p := &mockProvider{reading: sampleReading()}
	r := NewResolver(p, c, taipei, nil)

	snap, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, WeatherSnapshot{
		Location:      "Taipei",
		Temperature:   21.4,
		FeelsLike:     21.0,
		HumidityPct:   78,
		ConditionText: "구름 많음",
		IconRef:       "https://openweathermap.org/img/wn/04d@2x.png",
		WindSpeed:     3.1,
	}, snap)

	_, err = r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, p.current, "second call should hit the live tier")
}

func TestResolverServesBackupOnFailure(t *testing.T) {
	c, clk := newCache(cache.DefaultPolicy())
	p := &mockProvider{reading: sampleReading()}
	r := NewResolver(p, c, taipei, nil)

	first, err := r.Resolve(context.Background())
	require.NoError(t, err)

	clk.Advance(31 * time.Minute)
	p.fail(errors.New("connection refused"))

	got, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, got)
	assert.Equal(t, 2, p.current)
}

func TestResolverUnavailableWithoutBackup(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	p := &mockProvider{err: errors.New("boom")}
	r := NewResolver(p, c, taipei, nil)

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataUnavailable))
}

func TestResolverRefreshBypassesLiveTier(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	p := &mockProvider{reading: sampleReading()}
	r := NewResolver(p, c, taipei, nil)

	_, err := r.Resolve(context.Background())
	require.NoError(t, err)
	_, err = r.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, p.current)
}

func TestResolverMissingConditionYieldsEmptyText(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	rd := sampleReading()
	rd.Condition = nil
	rd.City = ""
	r := NewResolver(&mockProvider{reading: rd}, c, taipei, nil)

	snap, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "", snap.ConditionText)
	assert.Equal(t, "", snap.IconRef)
	assert.Equal(t, "Taipei", snap.Location)
}

func forecastSamples() []Sample {
	utc := func(day, hour int) time.Time { return time.Date(2026, 2, day, hour, 0, 0, 0, time.UTC) }
	return []Sample{
		{Time: utc(27, 0), TempMin: 18, TempMax: 19, Condition: &Condition{ID: intPtr(800), Icon: "01d"}},
		{Time: utc(27, 3), TempMin: 20, TempMax: 23, Condition: &Condition{ID: intPtr(500), Icon: "10d"}},
		{Time: utc(27, 6), TempMin: 19, TempMax: 22, Condition: &Condition{ID: intPtr(804), Icon: "04d"}},
		{Time: utc(28, 3), TempMin: 15, TempMax: 17, Condition: &Condition{ID: intPtr(801), Icon: "02d"}},
	}
}

func TestForecastAggregatorCachesOneEntry(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	p := &mockProvider{samples: forecastSamples()}
	a := NewForecastAggregator(p, c, taipei, time.FixedZone("CST", 8*60*60), nil)

	days, err := a.Resolve(context.Background())
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, "2026-02-27", days[0].Date)

	again, err := a.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, days, again)
	assert.Equal(t, 1, p.fcast)
}

func TestForecastAggregatorWithoutBackupTierFails(t *testing.T) {
	c, clk := newCache(cache.DefaultPolicy())
	p := &mockProvider{samples: forecastSamples()}
	a := NewForecastAggregator(p, c, taipei, time.UTC, nil)

	_, err := a.Resolve(context.Background())
	require.NoError(t, err)

	clk.Advance(61 * time.Minute)
	p.fail(errors.New("timeout"))

	_, err = a.Resolve(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperr.ErrDataUnavailable))
}

func TestForecastAggregatorBackupTierWhenConfigured(t *testing.T) {
	policy := cache.DefaultPolicy()
	policy[cache.DomainForecast] = cache.TTL{Live: time.Hour, Backup: 12 * time.Hour}
	c, clk := newCache(policy)
	p := &mockProvider{samples: forecastSamples()}
	a := NewForecastAggregator(p, c, taipei, time.UTC, nil)

	want, err := a.Resolve(context.Background())
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	p.fail(errors.New("timeout"))

	got, err := a.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestForecastAggregatorEmptySamplesUnavailable(t *testing.T) {
	c, _ := newCache(cache.DefaultPolicy())
	a := NewForecastAggregator(&mockProvider{samples: []Sample{}}, c, taipei, time.UTC, nil)

	_, err := a.Resolve(context.Background())
	assert.True(t, errors.Is(err, apperr.ErrDataUnavailable))
}
