package query

import (
	"encoding/json"
	"time"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Status is the lifecycle state of a cache entry.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Entry is the cached state of one (endpoint, params) combination.
type Entry struct {
	Key      string
	Endpoint string
	Params   Params

	Status        Status
	Data          json.RawMessage
	Err           *weather.APIError
	LastFetchedAt time.Time

	// UpdatedAt is the time of the last status transition.
	UpdatedAt time.Time
}

// Result returns the consumer view of e.
func (e Entry) Result() Result {
	return Result{
		Data:          e.Data,
		Error:         e.Err,
		IsLoading:     e.Status == StatusLoading,
		Status:        e.Status,
		LastFetchedAt: e.LastFetchedAt,
	}
}

// Result is what a display surface reads for one query.
type Result struct {
	Data          json.RawMessage   `json:"data,omitempty"`
	Error         *weather.APIError `json:"error,omitempty"`
	IsLoading     bool              `json:"isLoading"`
	Status        Status            `json:"status"`
	LastFetchedAt time.Time         `json:"lastFetchedAt,omitzero"`
}

// Err returns r.Error as an error, or nil when the query did not fail.
func (r Result) Err() error {
	if r.Error == nil {
		return nil
	}
	return r.Error
}

func errorResult(err error) Result {
	return Result{Status: StatusError, Error: weather.AsAPIError(err)}
}

// EntryStore holds cache entries. The Manager serializes access, so
// implementations only need to be safe for the Manager's own use.
type EntryStore interface {
	Get(key string) (Entry, bool)
	Save(entry Entry)
	// Prune drops entries past the store's retention unless keep reports true
	// for their key, and returns how many were dropped.
	Prune(keep func(key string) bool) int
	Keys() []string
	Len() int
}
