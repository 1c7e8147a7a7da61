package spot

import (
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
)

// Search defaults: central Taipei, 5 km.
const (
	DefaultLat    = 25.0330
	DefaultLng    = 121.5654
	DefaultRadius = 5000
)

var validate = validator.New()

// Criteria is a validated nearby-search query.
type Criteria struct {
	Lat          float64  `json:"lat" validate:"gte=-90,lte=90"`
	Lng          float64  `json:"lng" validate:"gte=-180,lte=180"`
	RadiusMeters int      `json:"radius" validate:"gte=1,lte=50000"`
	OpenNowOnly  bool     `json:"openNow"`
	MinRating    *float64 `json:"minRating,omitempty" validate:"omitempty,gte=0,lte=5"`
}

// NewCriteria fills in defaults for absent values and validates the result.
func NewCriteria(lat, lng *float64, radius *int, openNow bool, minRating *float64) (Criteria, error) {
	c := Criteria{
		Lat:          DefaultLat,
		Lng:          DefaultLng,
		RadiusMeters: DefaultRadius,
		OpenNowOnly:  openNow,
		MinRating:    minRating,
	}
	if lat != nil {
		c.Lat = *lat
	}
	if lng != nil {
		c.Lng = *lng
	}
	if radius != nil {
		c.RadiusMeters = *radius
	}
	if err := c.Validate(); err != nil {
		return Criteria{}, err
	}
	return c, nil
}

// Validate reports out-of-range fields as apperr.ErrInvalidInput.
func (c Criteria) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrInvalidInput, err)
	}
	return nil
}

// CacheKey encodes every criterion that changes the result set.
func (c Criteria) CacheKey(cat Category) string {
	minRating := "all"
	if c.MinRating != nil {
		minRating = strconv.FormatFloat(*c.MinRating, 'f', -1, 64)
	}
	return fmt.Sprintf("%s:%.6f:%.6f:%d:%t:%s",
		cat, c.Lat, c.Lng, c.RadiusMeters, c.OpenNowOnly, minRating)
}
