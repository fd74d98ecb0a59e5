package store

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/i474232898/weather-dashboard/internal/prefs"
)

//go:embed schema.sql
var schemaFS embed.FS

// PrefsDB persists the preference state as a single JSON row so a restarted
// dashboard resumes with the same location, favorites and history.
type PrefsDB struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPrefsDB opens (or creates) the SQLite database at path and applies the schema.
func OpenPrefsDB(ctx context.Context, path string) (*PrefsDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("error opening preferences database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(15 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to preferences database: %w", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("error reading schema file: %w", err)
	}
	if _, err := db.ExecContext(ctx, string(schema)); err != nil {
		db.Close()
		return nil, fmt.Errorf("error executing schema file: %w", err)
	}

	log.Printf("INFO: preferences database ready at %s", path)
	return &PrefsDB{db: db, now: time.Now}, nil
}

// Load returns the saved state. ok is false when nothing has been saved yet.
func (p *PrefsDB) Load(ctx context.Context) (state prefs.State, ok bool, err error) {
	var raw string
	err = p.db.QueryRowContext(ctx, "SELECT state FROM preferences WHERE id = 1").Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return prefs.State{}, false, nil
	}
	if err != nil {
		return prefs.State{}, false, fmt.Errorf("error loading preferences: %w", err)
	}

	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return prefs.State{}, false, fmt.Errorf("error decoding preferences: %w", err)
	}
	return prefs.Normalize(state), true, nil
}

// Save replaces the saved state.
func (p *PrefsDB) Save(ctx context.Context, state prefs.State) error {
	raw, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("error encoding preferences: %w", err)
	}

	const q = `INSERT INTO preferences (id, state, updated_at) VALUES (1, ?, ?)
ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`
	if _, err := p.db.ExecContext(ctx, q, string(raw), p.now().UTC()); err != nil {
		return fmt.Errorf("error saving preferences: %w", err)
	}
	return nil
}

// Attach loads any saved state into a new store and keeps saving it after
// every transition. Save failures are logged; they never block a transition.
func (p *PrefsDB) Attach(ctx context.Context, initial prefs.State) (*prefs.Store, func(), error) {
	saved, ok, err := p.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	if ok {
		initial = saved
	}

	s := prefs.NewStore(initial)
	unsubscribe := s.Subscribe(func(state prefs.State) {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.Save(saveCtx, state); err != nil {
			log.Printf("ERROR: %v", err)
		}
	})
	return s, unsubscribe, nil
}

// Close closes the database.
func (p *PrefsDB) Close() error {
	if err := p.db.Close(); err != nil {
		return fmt.Errorf("error closing preferences database: %w", err)
	}
	return nil
}
