package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neexbeast/skycast/internal/weather"
)

const notFoundHint = "city not found. Try: London, Tokyo, New York"

// Handlers holds the dependencies for all HTTP handlers.
type Handlers struct {
	lookup      WeatherLookup
	displays    DisplaySink
	defaultCity string
	log         *slog.Logger
}

// NewHandlers constructs Handlers with all required dependencies.
func NewHandlers(lookup WeatherLookup, displays DisplaySink, defaultCity string, log *slog.Logger) *Handlers {
	return &Handlers{
		lookup:      lookup,
		displays:    displays,
		defaultCity: defaultCity,
		log:         log,
	}
}

// writeJSON encodes v as JSON and writes it with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// GetWeather handles GET /api/v1/weather?city=… or ?lat=…&lon=….
// With no location the default city is used. An optional display=<id>
// publishes the report to that display.
func (h *Handlers) GetWeather(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	displayID := strings.TrimSpace(q.Get("display"))

	var seq int64
	if displayID != "" {
		s, err := h.displays.Begin(r.Context(), displayID)
		if err != nil {
			h.log.Error("display begin failed", "display", displayID, "err", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		seq = s
	}

	report, err := h.doLookup(r.Context(), q.Get("city"), q.Get("lat"), q.Get("lon"), q.Has("city"))
	if err != nil {
		h.writeLookupError(w, err)
		return
	}

	if displayID != "" {
		stored, err := h.displays.Publish(r.Context(), displayID, seq, report)
		switch {
		case err != nil:
			h.log.Warn("display publish failed", "display", displayID, "err", err)
		case !stored:
			h.log.Info("stale lookup not published", "display", displayID, "seq", seq)
		}
	}

	writeJSON(w, http.StatusOK, report)
}

var errBadCoordinates = errors.New("lat and lon must both be numbers")

func (h *Handlers) doLookup(ctx context.Context, city, lat, lon string, hasCity bool) (*weather.Report, error) {
	if lat != "" || lon != "" {
		la, errLat := strconv.ParseFloat(lat, 64)
		lo, errLon := strconv.ParseFloat(lon, 64)
		if errLat != nil || errLon != nil {
			return nil, errBadCoordinates
		}
		return h.lookup.LookupByCoordinates(ctx, la, lo)
	}

	if !hasCity {
		city = h.defaultCity
	}
	return h.lookup.LookupByName(ctx, city)
}

func (h *Handlers) writeLookupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, weather.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, "please enter a city name")
	case errors.Is(err, errBadCoordinates), errors.Is(err, weather.ErrInvalidCoordinates):
		writeError(w, http.StatusBadRequest, "invalid coordinates")
	case errors.Is(err, weather.ErrLocationNotFound):
		writeError(w, http.StatusNotFound, notFoundHint)
	default:
		h.log.Error("weather lookup failed", "err", err)
		writeError(w, http.StatusBadGateway, "weather service unavailable")
	}
}

// GetDisplay handles GET /api/v1/displays/{id}.
func (h *Handlers) GetDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	report, err := h.displays.Get(r.Context(), id)
	if err != nil {
		h.log.Error("display get failed", "display", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if report == nil {
		writeError(w, http.StatusNotFound, "nothing shown on this display yet")
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// ClearDisplay handles DELETE /api/v1/displays/{id}.
func (h *Handlers) ClearDisplay(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.displays.Clear(r.Context(), id); err != nil {
		h.log.Error("display clear failed", "display", id, "err", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

type redisPinger interface {
	Ping(ctx context.Context) error
}

// HealthHandlerFunc returns an http.HandlerFunc that checks redis connectivity.
func HealthHandlerFunc(redis redisPinger, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		if err := redis.Ping(ctx); err != nil {
			log.Error("health check: redis ping failed", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "redis": "error"})
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "redis": "ok"})
	}
}
