// Package prefs holds the dashboard's preference and session state and the
// fixed set of transitions that may change it.
package prefs

import (
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

const (
	// DefaultLocation is the location a fresh session starts with.
	DefaultLocation = "London"
	// MaxRecentSearches bounds the recent search history.
	MaxRecentSearches = 5
)

// State is the preference and session state read by every display surface.
type State struct {
	Location       string           `json:"location"`
	Unit           weather.Unit     `json:"unit"`
	Theme          weather.Theme    `json:"theme"`
	ViewMode       weather.ViewMode `json:"viewMode"`
	Favorites      []string         `json:"favorites"`
	RecentSearches []string         `json:"recentSearches"`
	SelectedDate   string           `json:"selectedDate"`
}

// InitialState returns the state of a new session started at now.
func InitialState(now time.Time) State {
	return State{
		Location:       DefaultLocation,
		Unit:           weather.UnitCelsius,
		Theme:          weather.ThemeLight,
		ViewMode:       weather.ViewCurrent,
		Favorites:      []string{},
		RecentSearches: []string{},
		SelectedDate:   now.UTC().Format(weather.DateLayout),
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	s.Favorites = append([]string{}, s.Favorites...)
	s.RecentSearches = append([]string{}, s.RecentSearches...)
	return s
}

// Normalize repairs a state loaded from outside the reducer so that the store
// invariants hold: known unit and theme, unique favorites, and a unique recent
// list of at most MaxRecentSearches. The view mode is left alone.
func Normalize(s State) State {
	s = s.Clone()
	if s.Location == "" {
		s.Location = DefaultLocation
	}
	if s.Unit != weather.UnitCelsius && s.Unit != weather.UnitFahrenheit {
		s.Unit = weather.UnitCelsius
	}
	if s.Theme != weather.ThemeLight && s.Theme != weather.ThemeDark {
		s.Theme = weather.ThemeLight
	}
	if s.ViewMode == "" {
		s.ViewMode = weather.ViewCurrent
	}
	s.Favorites = unique(s.Favorites)
	s.RecentSearches = unique(s.RecentSearches)
	if len(s.RecentSearches) > MaxRecentSearches {
		s.RecentSearches = s.RecentSearches[:MaxRecentSearches]
	}
	return s
}

func unique(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, it := range items {
		if _, ok := seen[it]; ok {
			continue
		}
		seen[it] = struct{}{}
		out = append(out, it)
	}
	return out
}

func contains(items []string, v string) bool {
	for _, it := range items {
		if it == v {
			return true
		}
	}
	return false
}
