package weather

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format of ForecastDay.Date.
const DateLayout = "2006-01-02"

// Location is the fixed place whose weather is tracked.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Key returns a canonical cache key for the location.
func (l Location) Key() string {
	if name := strings.TrimSpace(l.Name); name != "" {
		return strings.ToLower(name)
	}
	return fmt.Sprintf("%.4f,%.4f", l.Lat, l.Lon)
}

// WeatherSnapshot is the current conditions at the fixed location.
// ConditionText and IconRef are always set, possibly empty.
type WeatherSnapshot struct {
	Location      string  `json:"city"`
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feelsLike"`
	HumidityPct   int     `json:"humidity"`
	ConditionText string  `json:"description"`
	IconRef       string  `json:"icon"`
	WindSpeed     float64 `json:"windSpeed"`
}

// ForecastDay summarises one local calendar day.
type ForecastDay struct {
	Date          string  `json:"date"`
	MinTemp       float64 `json:"minTemp"`
	MaxTemp       float64 `json:"maxTemp"`
	ConditionText string  `json:"description"`
	IconRef       string  `json:"iconUrl"`
}

// Condition is the raw condition block reported by a provider.
type Condition struct {
	ID          *int
	Description string
	Icon        string
}

// Reading is a provider's current-conditions answer.
type Reading struct {
	City        string
	Temperature float64
	FeelsLike   float64
	HumidityPct int
	WindSpeed   float64
	Condition   *Condition
}

// Sample is one sub-day forecast slot. Time is an absolute instant.
type Sample struct {
	Time      time.Time
	TempMin   float64
	TempMax   float64
	Condition *Condition
}
