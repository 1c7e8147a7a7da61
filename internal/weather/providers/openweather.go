// Package providers holds upstream weather sources.
package providers

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
	"github.com/HongRae-Kim/travel-taipei/internal/weather"
)

const forecastTimeLayout = "2006-01-02 15:04:05"

// OpenWeatherProvider implements weather.Provider and weather.ForecastProvider
// for OpenWeatherMap.
type OpenWeatherProvider struct {
	client      *fetch.Client
	apiKey      string
	currentURL  string
	forecastURL string
}

// NewOpenWeatherProvider creates a provider over the given endpoints.
func NewOpenWeatherProvider(client *fetch.Client, apiKey, currentURL, forecastURL string) *OpenWeatherProvider {
	return &OpenWeatherProvider{
		client:      client,
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
	}
}

func (p *OpenWeatherProvider) Name() string {
	return "openweathermap"
}

type owmCondition struct {
	ID          *int   `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

func firstCondition(items []owmCondition) *weather.Condition {
	if len(items) == 0 {
		return nil
	}
	return &weather.Condition{
		ID:          items[0].ID,
		Description: items[0].Description,
		Icon:        items[0].Icon,
	}
}

func (p *OpenWeatherProvider) query(loc weather.Location) (url.Values, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: openweather api key is not configured", apperr.ErrUpstream)
	}
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(loc.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(loc.Lon, 'f', -1, 64))
	values.Set("appid", p.apiKey)
	values.Set("units", "metric")
	values.Set("lang", "ko")
	return values, nil
}

// Current fetches the current conditions.
func (p *OpenWeatherProvider) Current(ctx context.Context, loc weather.Location) (weather.Reading, error) {
	values, err := p.query(loc)
	if err != nil {
		return weather.Reading{}, err
	}

	var payload struct {
		Name string `json:"name"`
		Main *struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []owmCondition `json:"weather"`
	}
	if err := p.client.GetJSON(ctx, p.currentURL, values, &payload); err != nil {
		return weather.Reading{}, err
	}
	if payload.Main == nil {
		return weather.Reading{}, fmt.Errorf("%w: openweather response without main block", apperr.ErrUpstream)
	}

	return weather.Reading{
		City:        payload.Name,
		Temperature: payload.Main.Temp,
		FeelsLike:   payload.Main.FeelsLike,
		HumidityPct: payload.Main.Humidity,
		WindSpeed:   payload.Wind.Speed,
		Condition:   firstCondition(payload.Weather),
	}, nil
}

// Forecast fetches the 5-day / 3-hour forecast. Sample times are UTC.
func (p *OpenWeatherProvider) Forecast(ctx context.Context, loc weather.Location) ([]weather.Sample, error) {
	values, err := p.query(loc)
	if err != nil {
		return nil, err
	}

	var payload struct {
		List []struct {
			Dt   int64  `json:"dt"`
			DtTx string `json:"dt_txt"`
			Main struct {
				TempMin float64 `json:"temp_min"`
				TempMax float64 `json:"temp_max"`
			} `json:"main"`
			Weather []owmCondition `json:"weather"`
		} `json:"list"`
	}
	if err := p.client.GetJSON(ctx, p.forecastURL, values, &payload); err != nil {
		return nil, err
	}
	if payload.List == nil {
		return nil, fmt.Errorf("%w: openweather forecast without list", apperr.ErrUpstream)
	}

	samples := make([]weather.Sample, 0, len(payload.List))
	for _, item := range payload.List {
		ts, err := time.ParseInLocation(forecastTimeLayout, item.DtTx, time.UTC)
		if err != nil {
			if item.Dt == 0 {
				continue
			}
			ts = time.Unix(item.Dt, 0).UTC()
		}
		samples = append(samples, weather.Sample{
			Time:      ts,
			TempMin:   item.Main.TempMin,
			TempMax:   item.Main.TempMax,
			Condition: firstCondition(item.Weather),
		})
	}
	return samples, nil
}
