// Command weather prints current conditions and a five-day forecast for one
// or more places.
//
//	weather London Tokyo "New York"
//	weather -lat 51.5 -lon -0.12
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/neexbeast/skycast/internal/config"
	"github.com/neexbeast/skycast/internal/weather"
)

const maxConcurrentLookups = 4

func main() {
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "optional YAML config file")
	lat := flag.Float64("lat", math.NaN(), "latitude (use with -lon)")
	lon := flag.Float64("lon", math.NaN(), "longitude (use with -lat)")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Warn("loading .env", "err", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log, *configPath, *lat, *lon, flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "weather:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger, configPath string, lat, lon float64, places []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	client := weather.NewClientWithURLs(cfg.CurrentURL, cfg.ForecastURL, cfg.APIKey)
	source := weather.NewRateLimitedSource(client, cfg.RequestsPerSecond, cfg.Burst)
	service := weather.NewService(source, cfg.IconBaseURL, log)

	if !math.IsNaN(lat) || !math.IsNaN(lon) {
		report, err := service.LookupByCoordinates(ctx, lat, lon)
		if err != nil {
			return describe(fmt.Sprintf("%v,%v", lat, lon), err)
		}
		printReport(os.Stdout, report)
		return nil
	}

	if len(places) == 0 {
		places = []string{cfg.DefaultCity}
	}

	reports := make([]*weather.Report, len(places))
	failures := make([]error, len(places))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentLookups)
	for i, place := range places {
		g.Go(func() error {
			report, err := service.LookupByName(gCtx, place)
			if err != nil {
				failures[i] = describe(place, err)
				return nil
			}
			reports[i] = report
			return nil
		})
	}
	_ = g.Wait()

	return printResults(os.Stdout, reports, failures)
}

// printResults writes each report or failure message once, in input order.
// The returned error only counts failures; their text is already printed.
func printResults(w io.Writer, reports []*weather.Report, failures []error) error {
	failed := 0
	for i := range reports {
		if i > 0 {
			fmt.Fprintln(w)
		}
		if failures[i] != nil {
			failed++
			fmt.Fprintln(w, failures[i])
			continue
		}
		printReport(w, reports[i])
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(reports))
	}
	return nil
}

// describe turns a lookup error into the message shown to the user.
func describe(place string, err error) error {
	switch {
	case errors.Is(err, weather.ErrEmptyQuery):
		return errors.New("please enter a city name")
	case errors.Is(err, weather.ErrInvalidCoordinates):
		return fmt.Errorf("%s: invalid coordinates", place)
	case errors.Is(err, weather.ErrLocationNotFound):
		return fmt.Errorf("%s: city not found. Try: London, Tokyo, New York", place)
	default:
		return fmt.Errorf("%s: %w", place, err)
	}
}

func printReport(w io.Writer, r *weather.Report) {
	c := r.Current
	fmt.Fprintf(w, "%s, %s\n", c.Place, c.Country)
	fmt.Fprintf(w, "  %d°C %s (feels like %d°C)\n", weather.RoundTemp(c.Temperature), c.Description, weather.RoundTemp(c.FeelsLike))
	fmt.Fprintf(w, "  humidity %d%%  wind %.1f m/s  visibility %.1f km\n", c.Humidity, c.WindSpeed, float64(c.Visibility)/1000)
	fmt.Fprintf(w, "  icon %s\n", c.Icon)

	if r.ForecastError != "" {
		fmt.Fprintf(w, "  %s\n", r.ForecastError)
		return
	}
	for _, d := range r.Forecast {
		fmt.Fprintf(w, "  %-12s %4d° %4d°  %s\n", d.Label, d.MaxTemp, d.MinTemp, d.Icon)
	}
}
