package spot

import (
	"fmt"
	"strings"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
)

// Category is the closed set of searchable spot kinds.
type Category string

const (
	Restaurant Category = "restaurant"
	Cafe       Category = "cafe"
	Attraction Category = "attraction"
)

var placesType = map[Category]string{
	Restaurant: "restaurant",
	Cafe:       "cafe",
	Attraction: "tourist_attraction",
}

// Categories lists every supported category in display order.
func Categories() []Category {
	return []Category{Restaurant, Cafe, Attraction}
}

// ParseCategory accepts a case-insensitive category name.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := placesType[c]; !ok {
		return "", fmt.Errorf("%w: %q", apperr.ErrInvalidCategory, s)
	}
	return c, nil
}

// PlacesType returns the provider vocabulary for c.
func (c Category) PlacesType() string {
	return placesType[c]
}

func (c Category) String() string { return string(c) }
