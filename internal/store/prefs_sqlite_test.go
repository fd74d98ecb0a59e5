package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/i474232898/weather-dashboard/internal/prefs"
	"github.com/i474232898/weather-dashboard/internal/weather"
)

func TestPrefsDBRoundTripThroughStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "prefs.db")
	initial := prefs.InitialState(time.Date(2024, 5, 17, 0, 0, 0, 0, time.UTC))

	db, err := OpenPrefsDB(ctx, path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	if _, ok, err := db.Load(ctx); err != nil || ok {
		t.Fatalf("fresh database should be empty, ok=%v err=%v", ok, err)
	}

	s, unsubscribe, err := db.Attach(ctx, initial)
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	s.SetLocation("Paris")
	s.AddToFavorites("Paris")
	s.ToggleUnit()
	unsubscribe()
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened, err := OpenPrefsDB(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	restored, _, err := reopened.Attach(ctx, initial)
	if err != nil {
		t.Fatalf("attach after reopen: %v", err)
	}
	got := restored.State()
	if got.Location != "Paris" || got.Unit != weather.UnitFahrenheit {
		t.Fatalf("unexpected restored state %+v", got)
	}
	if len(got.Favorites) != 1 || got.Favorites[0] != "Paris" {
		t.Fatalf("unexpected favorites %v", got.Favorites)
	}
	if len(got.RecentSearches) != 1 || got.RecentSearches[0] != "Paris" {
		t.Fatalf("unexpected recent searches %v", got.RecentSearches)
	}
}
