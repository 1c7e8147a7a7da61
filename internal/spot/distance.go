package spot

import (
	"math"

	"github.com/HongRae-Kim/travel-taipei/internal/common"
)

const (
	earthRadiusKm = 6371.0

	highRating   = 4.5
	nearbyWithin = 1.5
)

// Recommendation reasons, highest priority first.
const (
	ReasonCloseAndRated = "close and highly rated"
	ReasonHighlyRated   = "highly rated"
	ReasonNearby        = "nearby"
	ReasonOpenNow       = "currently open"
	ReasonGeneric       = "based on proximity and rating"
)

// DistanceKm is the haversine distance between two points, rounded to 2
// decimals.
func DistanceKm(fromLat, fromLng, toLat, toLng float64) float64 {
	dLat := radians(toLat - fromLat)
	dLng := radians(toLng - fromLng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(fromLat))*math.Cos(radians(toLat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return common.Round2(earthRadiusKm * c)
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// Reason picks the recommendation text for a result.
func Reason(rating *float64, distanceKm float64, openNow bool) string {
	rated := rating != nil && *rating >= highRating
	near := distanceKm <= nearbyWithin

	switch {
	case rated && near:
		return ReasonCloseAndRated
	case rated:
		return ReasonHighlyRated
	case near:
		return ReasonNearby
	case openNow:
		return ReasonOpenNow
	default:
		return ReasonGeneric
	}
}
