package dashboard

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/query"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Session follows the preference store and keeps the active surface's
// queries subscribed, so refresh triggers revalidate what is on screen.
type Session struct {
	api   *query.API
	store *prefs.Store
	now   func() time.Time

	mu      sync.Mutex
	surface Surface
	keys    []string
	subs    []*query.Subscription

	unsubscribePrefs func()
}

func NewSession(api *query.API, store *prefs.Store, now func() time.Time) *Session {
	if now == nil {
		now = time.Now
	}
	s := &Session{api: api, store: store, now: now}
	s.remount(store.State())
	s.unsubscribePrefs = store.Subscribe(s.remount)
	return s
}

// Surface returns the currently mounted surface.
func (s *Session) Surface() Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.surface
}

// Close unmounts everything and stops following the store.
func (s *Session) Close() {
	s.unsubscribePrefs()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sub := range s.subs {
		sub.Unsubscribe()
	}
	s.subs, s.keys = nil, nil
}

func (s *Session) remount(st prefs.State) {
	next := SurfaceFor(st, s.now())
	keys := next.Keys()

	s.mu.Lock()
	defer s.mu.Unlock()

	if sameKeys(keys, s.keys) {
		s.surface = next
		return
	}

	// Mount the new panels before dropping the old ones so shared keys stay mounted.
	subs := make([]*query.Subscription, 0, len(next.Panels))
	for _, p := range next.Panels {
		sub, err := s.api.Watch(p.Request, nil)
		if err != nil {
			log.Printf("ERROR: failed to mount %s panel: %v", p.Name, err)
			continue
		}
		subs = append(subs, sub)
	}
	for _, old := range s.subs {
		old.Unsubscribe()
	}

	s.surface, s.keys, s.subs = next, keys, subs
	log.Printf("DEBUG: mounted %s view for %q (%d queries)", next.View, st.Location, len(subs))
}

// PanelView is one panel's query state.
type PanelView struct {
	Name     string `json:"name"`
	Endpoint string `json:"endpoint"`
	query.Result
}

// Summary holds the values the dashboard formats itself for the active unit.
type Summary struct {
	Location      string             `json:"location,omitempty"`
	Temperature   string             `json:"temperature,omitempty"`
	FeelsLike     string             `json:"feelsLike,omitempty"`
	Condition     string             `json:"condition,omitempty"`
	Background    weather.Background `json:"background,omitempty"`
	Wind          string             `json:"wind,omitempty"`
	WindDirection string             `json:"windDirection,omitempty"`
	Precipitation string             `json:"precipitation,omitempty"`
	AQI           int                `json:"aqi,omitempty"`
	AirQuality    string             `json:"airQuality,omitempty"`
}

// View is the full state one surface renders.
type View struct {
	View          weather.ViewMode `json:"view"`
	RequestedView weather.ViewMode `json:"requestedView"`
	Location      string           `json:"location"`
	Unit          weather.Unit     `json:"unit"`
	Theme         weather.Theme    `json:"theme"`
	SelectedDate  string           `json:"selectedDate"`
	Panels        []PanelView      `json:"panels"`
	Summary       *Summary         `json:"summary,omitempty"`
}

// View resolves every panel of the surface selected by the current state.
func (s *Session) View(ctx context.Context) View {
	st := s.store.State()
	surface := SurfaceFor(st, s.now())

	v := View{
		View:          surface.View,
		RequestedView: st.ViewMode,
		Location:      st.Location,
		Unit:          st.Unit,
		Theme:         st.Theme,
		SelectedDate:  st.SelectedDate,
		Panels:        make([]PanelView, 0, len(surface.Panels)),
	}
	for _, p := range surface.Panels {
		v.Panels = append(v.Panels, PanelView{
			Name:     p.Name,
			Endpoint: p.Request.Endpoint,
			Result:   s.api.Do(ctx, p.Request),
		})
	}
	v.Summary = summarize(v.Panels, st.Unit)
	return v
}

func summarize(panels []PanelView, unit weather.Unit) *Summary {
	for _, p := range panels {
		if p.Status != query.StatusSuccess {
			continue
		}
		switch p.Endpoint {
		case query.EndpointCurrentWeather:
			var cur weather.CurrentSummary
			if err := json.Unmarshal(p.Data, &cur); err != nil {
				log.Printf("DEBUG: current conditions not summarised: %v", err)
				return nil
			}
			c := cur.Current
			return &Summary{
				Location:      cur.Location.Name,
				Temperature:   weather.FormatTemperature(c.TempC, unit),
				FeelsLike:     weather.FormatTemperature(c.FeelsLikeC, unit),
				Condition:     c.Condition.Text,
				Background:    weather.ClassifyBackground(c.Condition.Code, c.Condition.Text, c.IsDay == 1),
				Wind:          weather.FormatWindSpeed(c.WindKph, "kph"),
				WindDirection: weather.WindDirection(c.WindDegree),
				Precipitation: weather.FormatPrecipitation(c.PrecipMm, "mm"),
			}
		case query.EndpointAirQuality:
			var aq weather.AirQuality
			if err := json.Unmarshal(p.Data, &aq); err != nil {
				log.Printf("DEBUG: air quality not summarised: %v", err)
				return nil
			}
			aqi := weather.PM25ToAQI(aq.PM25)
			return &Summary{AQI: aqi, AirQuality: weather.AirQualityLevel(aqi)}
		}
	}
	return nil
}
