package weather

import (
	"context"
	"fmt"
	"log/slog"
)

// Source is the interface satisfied by Client and RateLimitedSource.
type Source interface {
	Current(ctx context.Context, q LocationQuery) (*CurrentConditions, error)
	Forecast(ctx context.Context, q LocationQuery) ([]ForecastSample, error)
}

const forecastUnavailable = "forecast unavailable"

// Service is the lookup surface: current conditions plus a day-by-day forecast.
type Service struct {
	source      Source
	iconBaseURL string
	log         *slog.Logger
}

// NewService constructs a Service. An empty iconBaseURL uses DefaultIconBaseURL.
func NewService(source Source, iconBaseURL string, log *slog.Logger) *Service {
	if iconBaseURL == "" {
		iconBaseURL = DefaultIconBaseURL
	}
	return &Service{source: source, iconBaseURL: iconBaseURL, log: log}
}

// LookupByName looks up weather for a place name.
// A blank name fails with ErrEmptyQuery before any request is made.
func (s *Service) LookupByName(ctx context.Context, name string) (*Report, error) {
	q, err := ByName(name)
	if err != nil {
		return nil, err
	}
	return s.Lookup(ctx, q)
}

// LookupByCoordinates looks up weather for a latitude/longitude pair.
func (s *Service) LookupByCoordinates(ctx context.Context, lat, lon float64) (*Report, error) {
	q, err := ByCoordinates(lat, lon)
	if err != nil {
		return nil, err
	}
	return s.Lookup(ctx, q)
}

// Lookup fetches current conditions and, once they succeed, the forecast.
// A forecast failure does not fail the lookup: the report keeps the current
// conditions and records the failure in ForecastError.
func (s *Service) Lookup(ctx context.Context, q LocationQuery) (*Report, error) {
	cur, err := s.source.Current(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", q, err)
	}
	cur.IconURL = IconURL(s.iconBaseURL, cur.Icon)

	report := &Report{Current: cur, Forecast: []DaySummary{}}

	samples, err := s.source.Forecast(ctx, q)
	if err != nil {
		s.log.Warn("forecast fetch failed", "query", q.String(), "err", err)
		report.ForecastError = forecastUnavailable
		return report, nil
	}

	days := Summarize(samples)
	for i := range days {
		days[i].IconURL = IconURL(s.iconBaseURL, days[i].Icon)
	}
	report.Forecast = days

	return report, nil
}
