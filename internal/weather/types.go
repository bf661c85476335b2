package weather

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// LocationQuery identifies where to fetch weather for: either a place name or
// a coordinate pair. Use ByName or ByCoordinates to build one.
type LocationQuery struct {
	name     string
	lat      float64
	lon      float64
	byCoords bool
}

// ByName returns a query for the trimmed place name.
// A blank name fails with ErrEmptyQuery.
func ByName(name string) (LocationQuery, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return LocationQuery{}, ErrEmptyQuery
	}
	return LocationQuery{name: trimmed}, nil
}

// ByCoordinates returns a query for the given latitude and longitude in degrees.
func ByCoordinates(lat, lon float64) (LocationQuery, error) {
	if math.IsNaN(lat) || math.IsNaN(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return LocationQuery{}, fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinates, lat, lon)
	}
	return LocationQuery{lat: lat, lon: lon, byCoords: true}, nil
}

// IsCoordinates reports whether the query is a coordinate pair.
func (q LocationQuery) IsCoordinates() bool { return q.byCoords }

// Name returns the place name, or "" for a coordinate query.
func (q LocationQuery) Name() string { return q.name }

// Coordinates returns the latitude and longitude of a coordinate query.
func (q LocationQuery) Coordinates() (lat, lon float64) { return q.lat, q.lon }

func (q LocationQuery) String() string {
	if q.byCoords {
		return strconv.FormatFloat(q.lat, 'f', -1, 64) + "," + strconv.FormatFloat(q.lon, 'f', -1, 64)
	}
	return q.name
}

// values returns the provider query parameters selecting this location.
func (q LocationQuery) values() url.Values {
	v := url.Values{}
	if q.byCoords {
		v.Set("lat", strconv.FormatFloat(q.lat, 'f', -1, 64))
		v.Set("lon", strconv.FormatFloat(q.lon, 'f', -1, 64))
		return v
	}
	v.Set("q", q.name)
	return v
}

// CurrentConditions is a snapshot of the weather at a place.
type CurrentConditions struct {
	Place       string  `json:"place"`
	Country     string  `json:"country"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    int     `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Visibility  int     `json:"visibility"`
	Description string  `json:"description"`
	IconCode    string  `json:"icon_code"`
	Icon        string  `json:"icon"`
	IconURL     string  `json:"icon_url,omitempty"`
}

// ForecastSample is one 3-hour forecast step.
type ForecastSample struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	IconCode    string    `json:"icon_code"`
}

// DaySummary is the aggregated forecast for one calendar date.
type DaySummary struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	IconCode string    `json:"icon_code"`
	Icon     string    `json:"icon"`
	IconURL  string    `json:"icon_url,omitempty"`
	MinTemp  int       `json:"min_temp"`
	MaxTemp  int       `json:"max_temp"`
}

// Report is the result of a lookup. ForecastError is set when current
// conditions were fetched but the forecast was not.
type Report struct {
	Current       *CurrentConditions `json:"current"`
	Forecast      []DaySummary       `json:"forecast"`
	ForecastError string             `json:"forecast_error,omitempty"`
}
