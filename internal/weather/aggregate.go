package weather

import (
	"math"
	"sort"
	"time"
)

type dayBucket struct {
	minTemp  float64
	maxTemp  float64
	repr     Sample
	reprDist int
}

// AggregateForecast buckets samples by their calendar date in zone and
// produces one ForecastDay per date, ascending.
//
// Min/max come from the per-sample minimum and maximum fields. The
// representative sample is the one whose local hour is nearest noon; the
// first such sample in input order wins ties.
func AggregateForecast(samples []Sample, zone *time.Location) []ForecastDay {
	if zone == nil {
		zone = time.UTC
	}

	buckets := make(map[string]*dayBucket)
	for _, s := range samples {
		local := s.Time.In(zone)
		key := local.Format(DateLayout)
		dist := absInt(local.Hour() - 12)

		b, ok := buckets[key]
		if !ok {
			buckets[key] = &dayBucket{
				minTemp:  s.TempMin,
				maxTemp:  s.TempMax,
				repr:     s,
				reprDist: dist,
			}
			continue
		}

		b.minTemp = math.Min(b.minTemp, s.TempMin)
		b.maxTemp = math.Max(b.maxTemp, s.TempMax)
		if dist < b.reprDist {
			b.repr = s
			b.reprDist = dist
		}
	}

	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	days := make([]ForecastDay, 0, len(keys))
	for _, k := range keys {
		b := buckets[k]
		days = append(days, ForecastDay{
			Date:          k,
			MinTemp:       b.minTemp,
			MaxTemp:       b.maxTemp,
			ConditionText: Describe(b.repr.Condition),
			IconRef:       IconURL(b.repr.Condition),
		})
	}
	return days
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
