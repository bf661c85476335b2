package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	owmCurrentURL  = "https://api.openweathermap.org/data/2.5/weather"
	owmForecastURL = "https://api.openweathermap.org/data/2.5/forecast"

	forecastTimeLayout = "2006-01-02 15:04:05"

	// maxErrorBody caps how much of a non-2xx body is read for its message.
	maxErrorBody = 64 << 10
)

// statusError is a non-2xx upstream response.
type statusError struct {
	code    int
	message string
}

func (e *statusError) Error() string {
	if e.message == "" {
		return fmt.Sprintf("returned status %d", e.code)
	}
	return fmt.Sprintf("returned status %d: %s", e.code, e.message)
}

// doGet performs a GET request and decodes the JSON response into dst.
// The endpoint is logged without its query string so the API key never
// leaks into error messages.
func doGet(ctx context.Context, client *http.Client, endpoint, rawURL string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("creating request for %s: %w", endpoint, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, redactURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(io.LimitReader(resp.Body, maxErrorBody)).Decode(&body)
		return fmt.Errorf("GET %s: %w", endpoint, &statusError{code: resp.StatusCode, message: body.Message})
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decoding response from %s: %w", endpoint, err)
	}

	return nil
}

// redactURLError strips the request URL (which carries appid) from transport errors.
func redactURLError(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

// Client fetches current conditions and forecasts from OpenWeatherMap.
// It sets no timeout of its own; the caller's context bounds each call.
type Client struct {
	apiKey      string
	currentURL  string
	forecastURL string
	client      *http.Client
}

// NewClient constructs a Client with the given API key.
func NewClient(apiKey string) *Client {
	return NewClientWithURLs(owmCurrentURL, owmForecastURL, apiKey)
}

// NewClientWithURLs constructs a Client pointing at custom endpoints (config overrides, tests).
func NewClientWithURLs(currentURL, forecastURL, apiKey string) *Client {
	return &Client{
		apiKey:      apiKey,
		currentURL:  currentURL,
		forecastURL: forecastURL,
		client:      &http.Client{},
	}
}

func (c *Client) buildURL(base string, q LocationQuery) string {
	v := q.values()
	v.Set("appid", c.apiKey)
	v.Set("units", "metric")
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + v.Encode()
}

type owmCurrentResponse struct {
	Name string `json:"name"`
	Sys  struct {
		Country string `json:"country"`
	} `json:"sys"`
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Weather []struct {
		Description string `json:"description"`
		Icon        string `json:"icon"`
	} `json:"weather"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
}

// Current retrieves current conditions for the query.
func (c *Client) Current(ctx context.Context, q LocationQuery) (*CurrentConditions, error) {
	var raw owmCurrentResponse
	if err := doGet(ctx, c.client, c.currentURL, c.buildURL(c.currentURL, q), &raw); err != nil {
		return nil, classifyCurrent(q, err)
	}

	cur := &CurrentConditions{
		Place:       raw.Name,
		Country:     raw.Sys.Country,
		Temperature: raw.Main.Temp,
		FeelsLike:   raw.Main.FeelsLike,
		Humidity:    raw.Main.Humidity,
		WindSpeed:   raw.Wind.Speed,
		Visibility:  raw.Visibility,
	}
	if len(raw.Weather) > 0 {
		cur.Description = raw.Weather[0].Description
		cur.IconCode = raw.Weather[0].Icon
	}
	cur.Icon = CanonicalIcon(cur.IconCode)

	return cur, nil
}

// classifyCurrent maps a current-conditions failure to an error kind. Only a
// provider message saying the place was not found counts as ErrLocationNotFound.
func classifyCurrent(q LocationQuery, err error) error {
	var se *statusError
	if errors.As(err, &se) && strings.Contains(strings.ToLower(se.message), "not found") {
		return fmt.Errorf("current conditions for %s: %w: %s", q, ErrLocationNotFound, se.message)
	}
	return fmt.Errorf("current conditions for %s: %w: %v", q, ErrServiceUnavailable, err)
}

type owmForecastResponse struct {
	List []struct {
		Dt    int64  `json:"dt"`
		DtTxt string `json:"dt_txt"`
		Main  struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []struct {
			Icon string `json:"icon"`
		} `json:"weather"`
	} `json:"list"`
}

// Forecast retrieves the 5-day/3-hour forecast for the query, in provider order.
func (c *Client) Forecast(ctx context.Context, q LocationQuery) ([]ForecastSample, error) {
	var raw owmForecastResponse
	if err := doGet(ctx, c.client, c.forecastURL, c.buildURL(c.forecastURL, q), &raw); err != nil {
		return nil, fmt.Errorf("forecast for %s: %w: %v", q, ErrServiceUnavailable, err)
	}

	samples := make([]ForecastSample, 0, len(raw.List))
	for _, item := range raw.List {
		ts, err := time.ParseInLocation(forecastTimeLayout, item.DtTxt, time.UTC)
		if err != nil {
			ts = time.Unix(item.Dt, 0).UTC()
		}

		icon := ""
		if len(item.Weather) > 0 {
			icon = item.Weather[0].Icon
		}

		samples = append(samples, ForecastSample{
			Timestamp:   ts,
			Temperature: item.Main.Temp,
			IconCode:    icon,
		})
	}

	return samples, nil
}
