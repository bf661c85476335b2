package weather

import (
	"math"
	"time"
)

// MaxForecastDays is the most day summaries Summarize returns.
const MaxForecastDays = 5

const dayLabelLayout = "Mon, Jan 2"

// calendarDay keys samples by date alone, independent of *time.Location identity.
type calendarDay struct {
	year  int
	month time.Month
	day   int
}

type dayGroup struct {
	date    time.Time
	temps   []float64
	iconSet []string
}

// Summarize reduces chronological forecast samples to per-day summaries.
//
// Samples are grouped by calendar date in first-seen order. The first group
// is skipped by position, not by comparison with the clock: it is assumed to
// be today, which current conditions already cover. Up to MaxForecastDays of
// the following groups are summarized. The representative icon is the most
// frequent code of the day; among equally frequent codes the one seen first wins.
func Summarize(samples []ForecastSample) []DaySummary {
	groups := groupByDate(samples)
	if len(groups) <= 1 {
		return []DaySummary{}
	}

	groups = groups[1:]
	if len(groups) > MaxForecastDays {
		groups = groups[:MaxForecastDays]
	}

	out := make([]DaySummary, 0, len(groups))
	for _, g := range groups {
		minT, maxT := g.temps[0], g.temps[0]
		for _, t := range g.temps[1:] {
			minT = math.Min(minT, t)
			maxT = math.Max(maxT, t)
		}

		code := mode(g.iconSet)
		out = append(out, DaySummary{
			Date:     g.date,
			Label:    g.date.Format(dayLabelLayout),
			IconCode: code,
			Icon:     CanonicalIcon(code),
			MinTemp:  RoundTemp(minT),
			MaxTemp:  RoundTemp(maxT),
		})
	}

	return out
}

func groupByDate(samples []ForecastSample) []*dayGroup {
	var groups []*dayGroup
	index := make(map[calendarDay]*dayGroup)

	for _, s := range samples {
		y, m, d := s.Timestamp.Date()
		key := calendarDay{year: y, month: m, day: d}

		g, ok := index[key]
		if !ok {
			g = &dayGroup{date: time.Date(y, m, d, 0, 0, 0, 0, s.Timestamp.Location())}
			index[key] = g
			groups = append(groups, g)
		}
		g.temps = append(g.temps, s.Temperature)
		g.iconSet = append(g.iconSet, s.IconCode)
	}

	return groups
}

// mode returns the most frequent value. Among equally frequent values the one
// that occurs first wins.
func mode(values []string) string {
	counts := make(map[string]int, len(values))
	for _, v := range values {
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// RoundTemp rounds a temperature to whole degrees, with x.5 going towards
// positive infinity (-2.5 becomes -2).
func RoundTemp(x float64) int {
	return int(math.Floor(x + 0.5))
}
