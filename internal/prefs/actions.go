package prefs

import "github.com/i474232898/weather-dashboard/internal/weather"

// ActionType names a state transition.
type ActionType string

const (
	ActionSetLocation         ActionType = "setLocation"
	ActionToggleUnit          ActionType = "toggleUnit"
	ActionToggleTheme         ActionType = "toggleTheme"
	ActionSetSelectedDate     ActionType = "setSelectedDate"
	ActionSetViewMode         ActionType = "setViewMode"
	ActionAddToFavorites      ActionType = "addToFavorites"
	ActionRemoveFromFavorites ActionType = "removeFromFavorites"
	ActionClearRecentSearches ActionType = "clearRecentSearches"
)

// Action is one transition request. Payload is ignored by the toggles and clear.
type Action struct {
	Type    ActionType `json:"type"`
	Payload string     `json:"payload,omitempty"`
}

func SetLocation(name string) Action {
	return Action{Type: ActionSetLocation, Payload: name}
}

func ToggleUnit() Action {
	return Action{Type: ActionToggleUnit}
}

func ToggleTheme() Action {
	return Action{Type: ActionToggleTheme}
}

func SetSelectedDate(date string) Action {
	return Action{Type: ActionSetSelectedDate, Payload: date}
}

func SetViewMode(mode weather.ViewMode) Action {
	return Action{Type: ActionSetViewMode, Payload: string(mode)}
}

func AddToFavorites(name string) Action {
	return Action{Type: ActionAddToFavorites, Payload: name}
}

func RemoveFromFavorites(name string) Action {
	return Action{Type: ActionRemoveFromFavorites, Payload: name}
}

func ClearRecentSearches() Action {
	return Action{Type: ActionClearRecentSearches}
}

// Reduce returns the state that results from applying a to s. It never
// modifies s and never fails; unknown actions return s unchanged.
func Reduce(s State, a Action) State {
	next := s.Clone()

	switch a.Type {
	case ActionSetLocation:
		next.Location = a.Payload
		// A location already in the list is neither duplicated nor moved.
		if !contains(next.RecentSearches, a.Payload) {
			recent := append([]string{a.Payload}, next.RecentSearches...)
			if len(recent) > MaxRecentSearches {
				recent = recent[:MaxRecentSearches]
			}
			next.RecentSearches = recent
		}

	case ActionToggleUnit:
		if next.Unit == weather.UnitCelsius {
			next.Unit = weather.UnitFahrenheit
		} else {
			next.Unit = weather.UnitCelsius
		}

	case ActionToggleTheme:
		if next.Theme == weather.ThemeLight {
			next.Theme = weather.ThemeDark
		} else {
			next.Theme = weather.ThemeLight
		}

	case ActionSetSelectedDate:
		next.SelectedDate = a.Payload

	case ActionSetViewMode:
		// Unrecognised modes are stored as-is; routing falls back later.
		next.ViewMode = weather.ViewMode(a.Payload)

	case ActionAddToFavorites:
		if !contains(next.Favorites, a.Payload) {
			next.Favorites = append(next.Favorites, a.Payload)
		}

	case ActionRemoveFromFavorites:
		kept := next.Favorites[:0]
		for _, f := range next.Favorites {
			if f != a.Payload {
				kept = append(kept, f)
			}
		}
		next.Favorites = kept

	case ActionClearRecentSearches:
		next.RecentSearches = []string{}
	}

	return next
}
