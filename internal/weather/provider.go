package weather

import "context"

// Provider abstracts a current-conditions source.
type Provider interface {
	Name() string
	Current(ctx context.Context, loc Location) (Reading, error)
}

// ForecastProvider abstracts a multi-day, sub-day-resolution forecast source.
type ForecastProvider interface {
	Name() string
	Forecast(ctx context.Context, loc Location) ([]Sample, error)
}
