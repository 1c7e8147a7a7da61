package spot

import "context"

// Spot is one nearby-search result as served to callers.
type Spot struct {
	ID                   string   `json:"id"`
	Name                 string   `json:"name"`
	Category             Category `json:"type"`
	Rating               *float64 `json:"rating"`
	Address              string   `json:"address"`
	PhotoRef             string   `json:"photoUrl,omitempty"`
	Lat                  float64  `json:"lat"`
	Lng                  float64  `json:"lng"`
	DistanceKm           float64  `json:"distanceKm"`
	RecommendationReason string   `json:"reason"`
}

// SpotDetail is the full record for one place.
type SpotDetail struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Category          Category `json:"type"`
	Rating            *float64 `json:"rating"`
	Address           string   `json:"address"`
	Phone             string   `json:"phone,omitempty"`
	Website           string   `json:"website,omitempty"`
	OpeningHoursLines []string `json:"openingHours"`
	PhotoRefs         []string `json:"photoUrls"`
	Lat               float64  `json:"lat"`
	Lng               float64  `json:"lng"`
}

// Place is a raw nearby-search hit.
type Place struct {
	ID       string
	Name     string
	Rating   *float64
	Vicinity string
	Lat      float64
	Lng      float64
	PhotoRef string
}

// PlaceDetail is a raw detail lookup result.
type PlaceDetail struct {
	ID           string
	Name         string
	Rating       *float64
	Address      string
	Phone        string
	Website      string
	OpeningHours []string
	PhotoRefs    []string
	Lat          float64
	Lng          float64
}

// NearbyQuery is what the resolver asks a provider for.
type NearbyQuery struct {
	Lat          float64
	Lng          float64
	RadiusMeters int
	PlacesType   string
	OpenNowOnly  bool
}

// Provider is a places backend. Details returns apperr.ErrSpotNotFound when
// the provider answers but has no such place.
type Provider interface {
	Nearby(ctx context.Context, q NearbyQuery) ([]Place, error)
	Details(ctx context.Context, id string) (PlaceDetail, error)
}
