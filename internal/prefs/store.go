package prefs

import (
	"sync"

	"github.com/google/uuid"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Listener is called with the new state after every transition.
type Listener func(State)

// Store is the process-wide preference container. All changes go through
// Dispatch, which applies the reducer atomically and then notifies every
// subscriber before returning.
type Store struct {
	// dispatchMu orders transitions together with their notifications, so
	// subscribers observe states in the order they were produced.
	dispatchMu sync.Mutex

	mu    sync.RWMutex
	state State
	subs  map[uuid.UUID]Listener
}

func NewStore(initial State) *Store {
	return &Store{
		state: Normalize(initial),
		subs:  make(map[uuid.UUID]Listener),
	}
}

// State returns a copy of the current state.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// Dispatch applies a and returns the resulting state. Listeners run
// synchronously and must not call Dispatch themselves.
func (s *Store) Dispatch(a Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	s.state = Reduce(s.state, a)
	next := s.state.Clone()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(next.Clone())
	}
	return next
}

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	id := uuid.New()

	s.mu.Lock()
	s.subs[id] = fn
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			s.mu.Unlock()
		})
	}
}

func (s *Store) SetLocation(name string) State {
	return s.Dispatch(SetLocation(name))
}

func (s *Store) ToggleUnit() State {
	return s.Dispatch(ToggleUnit())
}

func (s *Store) ToggleTheme() State {
	return s.Dispatch(ToggleTheme())
}

func (s *Store) SetSelectedDate(date string) State {
	return s.Dispatch(SetSelectedDate(date))
}

func (s *Store) SetViewMode(mode weather.ViewMode) State {
	return s.Dispatch(SetViewMode(mode))
}

func (s *Store) AddToFavorites(name string) State {
	return s.Dispatch(AddToFavorites(name))
}

func (s *Store) RemoveFromFavorites(name string) State {
	return s.Dispatch(RemoveFromFavorites(name))
}

func (s *Store) ClearRecentSearches() State {
	return s.Dispatch(ClearRecentSearches())
}
