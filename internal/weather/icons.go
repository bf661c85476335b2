package weather

import "strings"

// DefaultIconBaseURL serves the SVG set the canonical icon names refer to.
const DefaultIconBaseURL = "https://raw.githubusercontent.com/basmilius/weather-icons/dev/production/fill/svg/"

const (
	fallbackDayIcon   = "clear-day"
	fallbackNightIcon = "clear-night"
)

var iconTable = map[string]string{
	"01d": "clear-day",
	"01n": "clear-night",
	"02d": "partly-cloudy-day",
	"02n": "partly-cloudy-night",
	"03d": "cloudy",
	"03n": "cloudy",
	"04d": "overcast",
	"04n": "overcast",
	"09d": "partly-cloudy-day-drizzle",
	"09n": "partly-cloudy-night-drizzle",
	"10d": "rain",
	"10n": "rain",
	"11d": "thunderstorms-day",
	"11n": "thunderstorms-night",
	"13d": "snow",
	"13n": "snow",
	"50d": "fog",
	"50n": "fog",
}

// CanonicalIcon maps a provider icon code to a canonical icon name.
// Unknown codes fall back to clear-night when they end in "n", clear-day otherwise.
func CanonicalIcon(code string) string {
	if icon, ok := iconTable[code]; ok {
		return icon
	}
	if strings.HasSuffix(code, "n") {
		return fallbackNightIcon
	}
	return fallbackDayIcon
}

// IconURL returns the asset URL for a canonical icon name.
func IconURL(baseURL, icon string) string {
	if baseURL == "" {
		baseURL = DefaultIconBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return baseURL + icon + ".svg"
}
