package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neexbeast/skycast/internal/api"
	"github.com/neexbeast/skycast/internal/weather"
)

// ---- mock implementations ----

type mockLookup struct {
	byNameFn   func(ctx context.Context, name string) (*weather.Report, error)
	byCoordsFn func(ctx context.Context, lat, lon float64) (*weather.Report, error)
}

func (m *mockLookup) LookupByName(ctx context.Context, name string) (*weather.Report, error) {
	return m.byNameFn(ctx, name)
}
func (m *mockLookup) LookupByCoordinates(ctx context.Context, lat, lon float64) (*weather.Report, error) {
	return m.byCoordsFn(ctx, lat, lon)
}

type mockDisplays struct {
	beginFn   func(ctx context.Context, id string) (int64, error)
	publishFn func(ctx context.Context, id string, seq int64, report *weather.Report) (bool, error)
	getFn     func(ctx context.Context, id string) (*weather.Report, error)
	clearFn   func(ctx context.Context, id string) error
}

func (m *mockDisplays) Begin(ctx context.Context, id string) (int64, error) {
	return m.beginFn(ctx, id)
}
func (m *mockDisplays) Publish(ctx context.Context, id string, seq int64, report *weather.Report) (bool, error) {
	return m.publishFn(ctx, id, seq, report)
}
func (m *mockDisplays) Get(ctx context.Context, id string) (*weather.Report, error) {
	return m.getFn(ctx, id)
}
func (m *mockDisplays) Clear(ctx context.Context, id string) error {
	return m.clearFn(ctx, id)
}

type mockPinger struct{ err error }

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

// ---- helpers ----

func sampleReport() *weather.Report {
	return &weather.Report{
		Current: &weather.CurrentConditions{Place: "London", Country: "GB", Temperature: 14.2, Icon: "rain"},
		Forecast: []weather.DaySummary{
			{Label: "Mon, Oct 21", Icon: "rain", MinTemp: 9, MaxTemp: 15},
		},
	}
}

func okLookup() *mockLookup {
	return &mockLookup{
		byNameFn:   func(_ context.Context, _ string) (*weather.Report, error) { return sampleReport(), nil },
		byCoordsFn: func(_ context.Context, _, _ float64) (*weather.Report, error) { return sampleReport(), nil },
	}
}

func noDisplays(t *testing.T) *mockDisplays {
	return &mockDisplays{
		beginFn: func(_ context.Context, _ string) (int64, error) {
			t.Fatal("display should not be touched")
			return 0, nil
		},
		publishFn: func(_ context.Context, _ string, _ int64, _ *weather.Report) (bool, error) {
			t.Fatal("display should not be touched")
			return false, nil
		},
		getFn:   func(_ context.Context, _ string) (*weather.Report, error) { return nil, nil },
		clearFn: func(_ context.Context, _ string) error { return nil },
	}
}

const testToken = "secret-token"

func buildRouter(lookup api.WeatherLookup, displays api.DisplaySink, token string, redis *mockPinger) http.Handler {
	if redis == nil {
		redis = &mockPinger{}
	}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handlers := api.NewHandlers(lookup, displays, "London", log)
	return api.NewRouter(handlers, token, redis, log)
}

func do(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body["error"]
}

// ---- GET /api/v1/weather ----

func TestGetWeather_ByCity(t *testing.T) {
	var gotName string
	lookup := okLookup()
	lookup.byNameFn = func(_ context.Context, name string) (*weather.Report, error) {
		gotName = name
		return sampleReport(), nil
	}

	router := buildRouter(lookup, noDisplays(t), testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?city=Paris")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Paris", gotName)

	var got weather.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "London", got.Current.Place)
	require.Len(t, got.Forecast, 1)
	assert.Equal(t, "Mon, Oct 21", got.Forecast[0].Label)
}

func TestGetWeather_DefaultCity(t *testing.T) {
	var gotName string
	lookup := okLookup()
	lookup.byNameFn = func(_ context.Context, name string) (*weather.Report, error) {
		gotName = name
		return sampleReport(), nil
	}

	router := buildRouter(lookup, noDisplays(t), testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "London", gotName)
}

func TestGetWeather_ByCoordinates(t *testing.T) {
	var gotLat, gotLon float64
	lookup := okLookup()
	lookup.byNameFn = func(_ context.Context, _ string) (*weather.Report, error) {
		t.Fatal("name lookup not expected")
		return nil, nil
	}
	lookup.byCoordsFn = func(_ context.Context, lat, lon float64) (*weather.Report, error) {
		gotLat, gotLon = lat, lon
		return sampleReport(), nil
	}

	router := buildRouter(lookup, noDisplays(t), testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?lat=51.5&lon=-0.12")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 51.5, gotLat)
	assert.Equal(t, -0.12, gotLon)
}

func TestGetWeather_BadCoordinates(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?lat=north&lon=1")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid coordinates", decodeError(t, w))
}

func TestGetWeather_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"empty", weather.ErrEmptyQuery, http.StatusBadRequest, "please enter a city name"},
		{"out of range", fmt.Errorf("wrap: %w", weather.ErrInvalidCoordinates), http.StatusBadRequest, "invalid coordinates"},
		{"not found", fmt.Errorf("looking up x: %w", weather.ErrLocationNotFound), http.StatusNotFound, "city not found. Try: London, Tokyo, New York"},
		{"unavailable", fmt.Errorf("looking up x: %w", weather.ErrServiceUnavailable), http.StatusBadGateway, "weather service unavailable"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			lookup := okLookup()
			lookup.byNameFn = func(_ context.Context, _ string) (*weather.Report, error) { return nil, tc.err }

			router := buildRouter(lookup, noDisplays(t), testToken, nil)
			w := do(t, router, http.MethodGet, "/api/v1/weather?city=x")

			assert.Equal(t, tc.status, w.Code)
			assert.Equal(t, tc.msg, decodeError(t, w))
		})
	}
}

func TestGetWeather_PublishesToDisplay(t *testing.T) {
	var publishedSeq int64
	var publishedID string
	displays := &mockDisplays{
		beginFn: func(_ context.Context, id string) (int64, error) { return 7, nil },
		publishFn: func(_ context.Context, id string, seq int64, report *weather.Report) (bool, error) {
			publishedID, publishedSeq = id, seq
			require.NotNil(t, report)
			return true, nil
		},
	}

	router := buildRouter(okLookup(), displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?city=London&display=kitchen")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "kitchen", publishedID)
	assert.Equal(t, int64(7), publishedSeq)
}

func TestGetWeather_StalePublishStillAnswers(t *testing.T) {
	displays := &mockDisplays{
		beginFn: func(_ context.Context, _ string) (int64, error) { return 1, nil },
		publishFn: func(_ context.Context, _ string, _ int64, _ *weather.Report) (bool, error) {
			return false, nil
		},
	}

	router := buildRouter(okLookup(), displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?city=London&display=kitchen")

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetWeather_FailedLookupNotPublished(t *testing.T) {
	lookup := okLookup()
	lookup.byNameFn = func(_ context.Context, _ string) (*weather.Report, error) {
		return nil, weather.ErrLocationNotFound
	}
	displays := &mockDisplays{
		beginFn: func(_ context.Context, _ string) (int64, error) { return 1, nil },
		publishFn: func(_ context.Context, _ string, _ int64, _ *weather.Report) (bool, error) {
			t.Fatal("failed lookup must not be published")
			return false, nil
		},
	}

	router := buildRouter(lookup, displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?city=Atlantis&display=kitchen")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetWeather_DisplayBeginFails(t *testing.T) {
	displays := &mockDisplays{
		beginFn: func(_ context.Context, _ string) (int64, error) { return 0, fmt.Errorf("redis down") },
	}
	lookup := okLookup()
	lookup.byNameFn = func(_ context.Context, _ string) (*weather.Report, error) {
		t.Fatal("lookup should not run when the display cannot be reserved")
		return nil, nil
	}

	router := buildRouter(lookup, displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/weather?city=London&display=kitchen")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ---- displays ----

func TestGetDisplay_Found(t *testing.T) {
	displays := noDisplays(t)
	displays.getFn = func(_ context.Context, id string) (*weather.Report, error) {
		assert.Equal(t, "kitchen", id)
		return sampleReport(), nil
	}

	router := buildRouter(okLookup(), displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/displays/kitchen")

	assert.Equal(t, http.StatusOK, w.Code)
	var got weather.Report
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Equal(t, "London", got.Current.Place)
}

func TestGetDisplay_Empty(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/displays/kitchen")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetDisplay_Error(t *testing.T) {
	displays := noDisplays(t)
	displays.getFn = func(_ context.Context, _ string) (*weather.Report, error) {
		return nil, fmt.Errorf("redis down")
	}

	router := buildRouter(okLookup(), displays, testToken, nil)
	w := do(t, router, http.MethodGet, "/api/v1/displays/kitchen")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestClearDisplay(t *testing.T) {
	cleared := ""
	displays := noDisplays(t)
	displays.clearFn = func(_ context.Context, id string) error {
		cleared = id
		return nil
	}

	router := buildRouter(okLookup(), displays, testToken, nil)
	w := do(t, router, http.MethodDelete, "/api/v1/displays/kitchen")

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "kitchen", cleared)
}

// ---- auth ----

func TestAuth_MissingToken(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=London", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_WrongToken(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=London", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_NotPrefixed(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=London", nil)
	req.Header.Set("Authorization", testToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuth_DisabledWithoutToken(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), "", nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/weather?city=London", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

// ---- health ----

func TestHealth_OK(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, &mockPinger{})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealth_RedisDown(t *testing.T) {
	router := buildRouter(okLookup(), noDisplays(t), testToken, &mockPinger{err: fmt.Errorf("refused")})
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Equal(t, "degraded", body["status"])
	assert.Equal(t, "error", body["redis"])
}
