package api

import (
	"context"

	"github.com/neexbeast/skycast/internal/weather"
)

// WeatherLookup is the lookup surface the handlers call. *weather.Service satisfies it.
type WeatherLookup interface {
	LookupByName(ctx context.Context, name string) (*weather.Report, error)
	LookupByCoordinates(ctx context.Context, lat, lon float64) (*weather.Report, error)
}

// DisplaySink defines the display operations needed by handlers.
type DisplaySink interface {
	Begin(ctx context.Context, id string) (int64, error)
	Publish(ctx context.Context, id string, seq int64, report *weather.Report) (bool, error)
	Get(ctx context.Context, id string) (*weather.Report, error)
	Clear(ctx context.Context, id string) error
}
