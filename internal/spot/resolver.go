// Package spot resolves nearby points of interest and their details.
package spot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/HongRae-Kim/travel-taipei/internal/apperr"
	"github.com/HongRae-Kim/travel-taipei/internal/cache"
	"github.com/HongRae-Kim/travel-taipei/internal/logging"
)

// Resolver implements search and detail lookups with caching.
type Resolver struct {
	provider Provider
	cache    *cache.TieredCache
	log      logrus.FieldLogger
}

// NewResolver creates a Resolver.
func NewResolver(p Provider, c *cache.TieredCache, log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logging.Discard()
	}
	return &Resolver{provider: p, cache: c, log: log}
}

// Search returns spots of category cat around the criteria origin, nearest
// first. Invalid input is rejected before the provider is called.
func (r *Resolver) Search(ctx context.Context, category string, criteria Criteria) ([]Spot, error) {
	cat, err := ParseCategory(category)
	if err != nil {
		return nil, err
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}

	key := criteria.CacheKey(cat)
	log := r.log.WithFields(logrus.Fields{"domain": cache.DomainSpots, "key": key})

	var spots []Spot
	if r.cache.Get(ctx, cache.DomainSpots, cache.Live, key, &spots) {
		return spots, nil
	}

	places, err := r.provider.Nearby(ctx, NearbyQuery{
		Lat:          criteria.Lat,
		Lng:          criteria.Lng,
		RadiusMeters: criteria.RadiusMeters,
		PlacesType:   cat.PlacesType(),
		OpenNowOnly:  criteria.OpenNowOnly,
	})
	if err != nil {
		log.WithError(err).Error("spot search unavailable")
		return nil, fmt.Errorf("%w: spot search %s: %w", apperr.ErrDataUnavailable, cat, err)
	}

	spots = rank(places, cat, criteria)
	if err := r.cache.PutAll(ctx, cache.DomainSpots, key, spots); err != nil {
		log.WithError(err).Warn("write-through failed")
	}
	return spots, nil
}

// Detail returns the full record for one place.
func (r *Resolver) Detail(ctx context.Context, id, category string) (SpotDetail, error) {
	cat, err := ParseCategory(category)
	if err != nil {
		return SpotDetail{}, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return SpotDetail{}, fmt.Errorf("%w: empty place id", apperr.ErrInvalidInput)
	}

	key := DetailCacheKey(id, cat)
	log := r.log.WithFields(logrus.Fields{"domain": cache.DomainSpotDetails, "key": key})

	var detail SpotDetail
	if r.cache.Get(ctx, cache.DomainSpotDetails, cache.Live, key, &detail) {
		return detail, nil
	}

	raw, err := r.provider.Details(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrSpotNotFound) {
			return SpotDetail{}, err
		}
		log.WithError(err).Error("spot detail unavailable")
		return SpotDetail{}, fmt.Errorf("%w: spot detail %s: %w", apperr.ErrDataUnavailable, id, err)
	}

	detail = SpotDetail{
		ID:                raw.ID,
		Name:              raw.Name,
		Category:          cat,
		Rating:            raw.Rating,
		Address:           raw.Address,
		Phone:             raw.Phone,
		Website:           raw.Website,
		OpeningHoursLines: raw.OpeningHours,
		PhotoRefs:         raw.PhotoRefs,
		Lat:               raw.Lat,
		Lng:               raw.Lng,
	}
	if detail.ID == "" {
		detail.ID = id
	}
	if detail.OpeningHoursLines == nil {
		detail.OpeningHoursLines = []string{}
	}
	if detail.PhotoRefs == nil {
		detail.PhotoRefs = []string{}
	}

	if err := r.cache.PutAll(ctx, cache.DomainSpotDetails, key, detail); err != nil {
		log.WithError(err).Warn("write-through failed")
	}
	return detail, nil
}

// DetailCacheKey is the cache key of a detail lookup.
func DetailCacheKey(id string, cat Category) string {
	return id + ":" + string(cat)
}

func rank(places []Place, cat Category, c Criteria) []Spot {
	spots := make([]Spot, 0, len(places))
	for _, p := range places {
		if c.MinRating != nil && (p.Rating == nil || *p.Rating < *c.MinRating) {
			continue
		}
		dist := DistanceKm(c.Lat, c.Lng, p.Lat, p.Lng)
		spots = append(spots, Spot{
			ID:                   p.ID,
			Name:                 p.Name,
			Category:             cat,
			Rating:               p.Rating,
			Address:              p.Vicinity,
			PhotoRef:             p.PhotoRef,
			Lat:                  p.Lat,
			Lng:                  p.Lng,
			DistanceKm:           dist,
			RecommendationReason: Reason(p.Rating, dist, c.OpenNowOnly),
		})
	}

	sort.SliceStable(spots, func(i, j int) bool {
		a, b := spots[i], spots[j]
		if a.DistanceKm != b.DistanceKm {
			return a.DistanceKm < b.DistanceKm
		}
		switch {
		case a.Rating == nil:
			return false
		case b.Rating == nil:
			return true
		default:
			return *a.Rating > *b.Rating
		}
	})
	return spots
}
