package spot

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/fetch"
)

const (
	maxDetailPhotos = 5
	detailFields    = "place_id,name,rating,formatted_address,formatted_phone_number,website,opening_hours,photos,geometry"
)

// PlacesClient talks to the Google Places web service.
type PlacesClient struct {
	client  *fetch.Client
	baseURL string
	apiKey  string
}

// NewPlacesClient creates a client rooted at baseURL (".../maps/api/place").
func NewPlacesClient(client *fetch.Client, baseURL, apiKey string) *PlacesClient {
	return &PlacesClient{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
	}
}

type placesPhoto struct {
	Reference string `json:"photo_reference"`
}

type placesGeometry struct {
	Location struct {
		Lat float64 `json:"lat"`
		Lng float64 `json:"lng"`
	} `json:"location"`
}

// Nearby runs a nearby search.
func (p *PlacesClient) Nearby(ctx context.Context, q NearbyQuery) ([]Place, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: places api key is not configured", apperr.ErrUpstream)
	}

	values := url.Values{}
	values.Set("location", strconv.FormatFloat(q.Lat, 'f', -1, 64)+","+strconv.FormatFloat(q.Lng, 'f', -1, 64))
	values.Set("radius", strconv.Itoa(q.RadiusMeters))
	values.Set("type", q.PlacesType)
	values.Set("key", p.apiKey)
	values.Set("language", "ko")
	if q.OpenNowOnly {
		values.Set("opennow", "true")
	}

	var payload struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Results      []struct {
			PlaceID  string          `json:"place_id"`
			Name     string          `json:"name"`
			Rating   *float64        `json:"rating"`
			Vicinity string          `json:"vicinity"`
			Geometry *placesGeometry `json:"geometry"`
			Photos   []placesPhoto   `json:"photos"`
		} `json:"results"`
	}
	if err := p.client.GetJSON(ctx, p.baseURL+"/nearbysearch/json", values, &payload); err != nil {
		return nil, err
	}

	switch payload.Status {
	case "OK":
	case "ZERO_RESULTS":
		return []Place{}, nil
	default:
		return nil, fmt.Errorf("%w: places nearby search status %s %s", apperr.ErrUpstream, payload.Status, payload.ErrorMessage)
	}

	places := make([]Place, 0, len(payload.Results))
	for _, r := range payload.Results {
		place := Place{
			ID:       r.PlaceID,
			Name:     r.Name,
			Rating:   r.Rating,
			Vicinity: r.Vicinity,
		}
		if r.Geometry != nil {
			place.Lat = r.Geometry.Location.Lat
			place.Lng = r.Geometry.Location.Lng
		}
		if len(r.Photos) > 0 {
			place.PhotoRef = p.photoURL(r.Photos[0].Reference)
		}
		places = append(places, place)
	}
	return places, nil
}

// Details fetches one place by id.
func (p *PlacesClient) Details(ctx context.Context, id string) (PlaceDetail, error) {
	if p.apiKey == "" {
		return PlaceDetail{}, fmt.Errorf("%w: places api key is not configured", apperr.ErrUpstream)
	}

	values := url.Values{}
	values.Set("place_id", id)
	values.Set("key", p.apiKey)
	values.Set("language", "ko")
	values.Set("fields", detailFields)

	var payload struct {
		Status string `json:"status"`
		Result *struct {
			PlaceID      string   `json:"place_id"`
			Name         string   `json:"name"`
			Rating       *float64 `json:"rating"`
			Address      string   `json:"formatted_address"`
			Phone        string   `json:"formatted_phone_number"`
			Website      string   `json:"website"`
			OpeningHours *struct {
				WeekdayText []string `json:"weekday_text"`
			} `json:"opening_hours"`
			Photos   []placesPhoto   `json:"photos"`
			Geometry *placesGeometry `json:"geometry"`
		} `json:"result"`
	}
	if err := p.client.GetJSON(ctx, p.baseURL+"/details/json", values, &payload); err != nil {
		return PlaceDetail{}, err
	}

	if payload.Result == nil || payload.Status == "NOT_FOUND" || payload.Status == "INVALID_REQUEST" {
		return PlaceDetail{}, fmt.Errorf("%w: %s (status %s)", apperr.ErrSpotNotFound, id, payload.Status)
	}

	r := payload.Result
	detail := PlaceDetail{
		ID:           r.PlaceID,
		Name:         r.Name,
		Rating:       r.Rating,
		Address:      r.Address,
		Phone:        r.Phone,
		Website:      r.Website,
		OpeningHours: []string{},
		PhotoRefs:    []string{},
	}
	if r.OpeningHours != nil && r.OpeningHours.WeekdayText != nil {
		detail.OpeningHours = r.OpeningHours.WeekdayText
	}
	for i, photo := range r.Photos {
		if i == maxDetailPhotos {
			break
		}
		detail.PhotoRefs = append(detail.PhotoRefs, p.photoURL(photo.Reference))
	}
	if r.Geometry != nil {
		detail.Lat = r.Geometry.Location.Lat
		detail.Lng = r.Geometry.Location.Lng
	}
	return detail, nil
}

func (p *PlacesClient) photoURL(ref string) string {
	values := url.Values{}
	values.Set("maxwidth", "800")
	values.Set("photo_reference", ref)
	values.Set("key", p.apiKey)
	return p.baseURL + "/photo?" + values.Encode()
}
