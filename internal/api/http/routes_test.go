package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/exchange"
	"github.com/HongRae-Kim/travel-taipei/internal/spot"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

type fakeService struct {
	err         error
	searchCalls int
	criteria    spot.Criteria
	category    string
}

func (f *fakeService) GetExchangeRate(_ context.Context, currency string) (exchange.ExchangeRate, error) {
	if f.err != nil {
		return exchange.ExchangeRate{}, f.err
	}
	return exchange.ExchangeRate{Currency: currency, BaseRate: 43.24, BuyRate: 42.81, SellRate: 43.68, AsOfDate: "2026-02-27"}, nil
}

func (f *fakeService) GetWeather(context.Context) (weather.WeatherSnapshot, error) {
	return weather.WeatherSnapshot{Location: "Taipei", Temperature: 21.4}, f.err
}

func (f *fakeService) GetForecast(context.Context) ([]weather.ForecastDay, error) {
	return []weather.ForecastDay{{Date: "2026-02-27", MinTemp: 18, MaxTemp: 23}}, f.err
}

func (f *fakeService) SearchSpots(_ context.Context, category string, c spot.Criteria) ([]spot.Spot, error) {
	f.searchCalls++
	f.category = category
	f.criteria = c
	return []spot.Spot{{ID: "a", Name: "Elephant Mountain"}}, f.err
}

func (f *fakeService) GetSpotDetail(_ context.Context, id, category string) (spot.SpotDetail, error) {
	if f.err != nil {
		return spot.SpotDetail{}, f.err
	}
	return spot.SpotDetail{ID: id, Category: spot.Category(category)}, nil
}

func newApp(svc Service) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nil)})
	RegisterRoutes(app, svc)
	return app
}

func do(t *testing.T, app *fiber.App, target string) (int, map[string]interface{}, []byte) {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, target, nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var obj map[string]interface{}
	_ = json.Unmarshal(body, &obj)
	return resp.StatusCode, obj, body
}

func TestExchangeRateRoute(t *testing.T) {
	status, obj, _ := do(t, newApp(&fakeService{}), "/api/exchange-rates?currency=TWD")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "TWD", obj["currency"])
	assert.Equal(t, 43.24, obj["baseRate"])
	assert.Equal(t, "2026-02-27", obj["date"])
}

func TestWeatherRoutes(t *testing.T) {
	app := newApp(&fakeService{})

	status, obj, _ := do(t, app, "/api/weather")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Taipei", obj["city"])

	status, _, body := do(t, app, "/api/weather/forecast")
	assert.Equal(t, http.StatusOK, status)
	var days []weather.ForecastDay
	require.NoError(t, json.Unmarshal(body, &days))
	require.Len(t, days, 1)
	assert.Equal(t, 23.0, days[0].MaxTemp)
}

func TestSpotsRouteParsesCriteria(t *testing.T) {
	svc := &fakeService{}
	status, _, _ := do(t, newApp(svc), "/api/spots?type=cafe&lat=25.04&lng=121.5&radius=800&openNow=true&minRating=4.2")

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "cafe", svc.category)
	assert.Equal(t, 25.04, svc.criteria.Lat)
	assert.Equal(t, 800, svc.criteria.RadiusMeters)
	assert.True(t, svc.criteria.OpenNowOnly)
	require.NotNil(t, svc.criteria.MinRating)
	assert.Equal(t, 4.2, *svc.criteria.MinRating)
}

func TestSpotsRouteRejectsBadInput(t *testing.T) {
	for _, target := range []string{
		"/api/spots",
		"/api/spots?type=cafe&lat=99",
		"/api/spots?type=cafe&lat=north",
		"/api/spots?type=cafe&radius=0",
		"/api/spots?type=cafe&openNow=maybe",
		"/api/spots?type=cafe&minRating=6",
	} {
		t.Run(target, func(t *testing.T) {
			svc := &fakeService{}
			status, obj, _ := do(t, newApp(svc), target)
			assert.Equal(t, http.StatusBadRequest, status)
			assert.Equal(t, true, obj["error"])
			assert.Equal(t, "CM001", obj["code"])
			assert.Zero(t, svc.searchCalls)
		})
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %q", apperr.ErrInvalidCategory, "museum"), http.StatusBadRequest, "SP002"},
		{fmt.Errorf("%w: p1", apperr.ErrSpotNotFound), http.StatusNotFound, "SP001"},
		{fmt.Errorf("%w: weather: %w", apperr.ErrDataUnavailable, apperr.ErrUpstream), http.StatusServiceUnavailable, "EX002"},
		{apperr.ErrUpstream, http.StatusBadGateway, "EX001"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			status, obj, _ := do(t, newApp(&fakeService{err: tt.err}), "/api/spots/p1?type=museum")
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, obj["code"])
			assert.NotEmpty(t, obj["message"])
		})
	}
}

func TestSpotDetailRequiresType(t *testing.T) {
	status, obj, _ := do(t, newApp(&fakeService{}), "/api/spots/p1")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "CM001", obj["code"])
}

func TestUnknownRouteUsesFiberStatus(t *testing.T) {
	status, obj, _ := do(t, newApp(&fakeService{}), "/api/hotels")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, true, obj["error"])
}
