package config

import (
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"
)

// Geocoder resolves a city to coordinates.
type Geocoder func(city, country string) (lat, lon float64, err error)

// GoogleGeocoder geocodes through the Google Geocoding API.
func GoogleGeocoder(apiKey string) Geocoder {
	return func(city, country string) (float64, float64, error) {
		geocoder.ApiKey = apiKey
		loc, err := geocoder.Geocoding(geocoder.Address{City: city, Country: country})
		if err != nil {
			return 0, 0, err
		}
		return loc.Latitude, loc.Longitude, nil
	}
}

// ShouldGeocode reports whether the weather location still needs coordinates.
func (c *AppConfig) ShouldGeocode() bool {
	return !c.coordsFromEnv && c.GeocoderAPIKey != "" && strings.TrimSpace(c.WeatherCity) != ""
}

// GeocodeWeatherLocation replaces the default coordinates with those of
// WeatherCity. It is a no-op when ShouldGeocode is false.
func (c *AppConfig) GeocodeWeatherLocation(g Geocoder) error {
	if !c.ShouldGeocode() {
		return nil
	}
	lat, lon, err := g(c.WeatherCity, c.WeatherCountry)
	if err != nil {
		return fmt.Errorf("geocode %s,%s: %w", c.WeatherCity, c.WeatherCountry, err)
	}
	c.WeatherLat = lat
	c.WeatherLon = lon
	c.coordsFromEnv = true
	return nil
}
