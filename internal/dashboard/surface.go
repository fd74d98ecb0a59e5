// Package dashboard routes the preference state to the display surface it
// selects and keeps that surface's queries mounted.
package dashboard

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Route returns the surface shown for mode. Unrecognised modes fall back to current.
func Route(mode weather.ViewMode) weather.ViewMode {
	if mode.Valid() {
		return mode
	}
	return weather.ViewCurrent
}

// Panel is one query a surface displays.
type Panel struct {
	Name    string
	Request query.Request
}

// Surface is a routed view and the queries it mounts.
type Surface struct {
	View   weather.ViewMode
	Panels []Panel
}

// SurfaceFor builds the surface selected by st. The current view pairs the
// conditions with today's astronomy; historical and astronomy views use the
// selected date.
func SurfaceFor(st prefs.State, now time.Time) Surface {
	loc := st.Location
	view := Route(st.ViewMode)

	var panels []Panel
	switch view {
	case weather.ViewForecast:
		panels = []Panel{{Name: "forecast", Request: query.Forecast(loc, query.DefaultForecastDays)}}
	case weather.ViewHistorical:
		panels = []Panel{{Name: "history", Request: query.HistoricalWeather(loc, st.SelectedDate)}}
	case weather.ViewAirQuality:
		panels = []Panel{{Name: "airQuality", Request: query.AirQuality(loc)}}
	case weather.ViewAstronomy:
		panels = []Panel{{Name: "astronomy", Request: query.Astronomy(loc, st.SelectedDate)}}
	case weather.ViewMap:
		panels = []Panel{{Name: "current", Request: query.CurrentWeather(loc)}}
	default:
		panels = []Panel{
			{Name: "current", Request: query.CurrentWeather(loc)},
			{Name: "astronomy", Request: query.Astronomy(loc, now.UTC().Format(weather.DateLayout))},
		}
	}

	return Surface{View: view, Panels: panels}
}

// Keys returns the cache keys of the surface's panels.
func (s Surface) Keys() []string {
	keys := make([]string, 0, len(s.Panels))
	for _, p := range s.Panels {
		k, err := p.Request.Key()
		if err != nil {
			continue
		}
		keys = append(keys, k)
	}
	return keys
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
