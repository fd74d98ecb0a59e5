// Package query is the request cache between display surfaces and the remote
// weather service. Every (endpoint, params) combination maps to one cache
// entry and at most one in-flight network call.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/singleflight"

	"github.com/i474232898/weather-dashboard/internal/weather"
)

// Fetcher performs the network call behind one endpoint.
type Fetcher func(ctx context.Context, params Params) (json.RawMessage, error)

// Listener receives every state change of a subscribed key.
type Listener func(Result)

// Manager resolves queries from cache or network and notifies subscribers.
type Manager struct {
	mu        sync.Mutex
	store     EntryStore
	endpoints map[string]Fetcher
	subs      map[string]map[uuid.UUID]Listener

	requests singleflight.Group
	triggers singleflight.Group
	pool     *ants.Pool

	now                func() time.Time
	workers            int
	fetchTimeout       time.Duration
	refetchOnFocus     bool
	refetchOnReconnect bool
}

// Option customises a Manager.
type Option func(*Manager)

// WithWorkers bounds how many queries a revalidation round refetches at once.
func WithWorkers(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.workers = n
		}
	}
}

// WithFetchTimeout caps a single network call. Zero leaves it to the transport.
func WithFetchTimeout(d time.Duration) Option {
	return func(m *Manager) { m.fetchTimeout = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithRefetchOnFocus enables or disables the focus trigger.
func WithRefetchOnFocus(enabled bool) Option {
	return func(m *Manager) { m.refetchOnFocus = enabled }
}

// WithRefetchOnReconnect enables or disables the reconnect trigger.
func WithRefetchOnReconnect(enabled bool) Option {
	return func(m *Manager) { m.refetchOnReconnect = enabled }
}

func NewManager(store EntryStore, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:              store,
		endpoints:          make(map[string]Fetcher),
		subs:               make(map[string]map[uuid.UUID]Listener),
		now:                time.Now,
		workers:            8,
		refetchOnFocus:     true,
		refetchOnReconnect: true,
	}
	for _, opt := range opts {
		opt(m)
	}

	pool, err := ants.NewPool(m.workers, ants.WithPanicHandler(func(p interface{}) {
		log.Printf("ERROR: revalidation worker panic: %v", p)
	}))
	if err != nil {
		return nil, fmt.Errorf("create revalidation pool: %w", err)
	}
	m.pool = pool

	return m, nil
}

// Close releases the revalidation workers.
func (m *Manager) Close() {
	m.pool.Release()
}

// Register binds an endpoint name to the call that serves it.
func (m *Manager) Register(endpoint string, fetch Fetcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.endpoints[endpoint] = fetch
}

// Query returns the cached result for endpoint and params, performing the
// network call only when there is no successful entry yet. Concurrent callers
// for the same key share one call. If ctx ends first, the current (loading)
// state is returned and the call keeps running for the other waiters.
func (m *Manager) Query(ctx context.Context, endpoint string, params Params) Result {
	return m.resolve(ctx, endpoint, params, false)
}

// Refetch ignores any cached data and revalidates the key. It still joins a
// call that is already in flight.
func (m *Manager) Refetch(ctx context.Context, endpoint string, params Params) Result {
	return m.resolve(ctx, endpoint, params, true)
}

// Peek returns the current state for endpoint and params without fetching.
func (m *Manager) Peek(endpoint string, params Params) Result {
	key, err := Key(endpoint, params)
	if err != nil {
		return errorResult(requestError(err))
	}
	return m.peekKey(key)
}

// Len returns the number of cache entries.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Len()
}

func (m *Manager) peekKey(key string) Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.store.Get(key)
	if !ok {
		return Result{Status: StatusIdle}
	}
	return e.Result()
}

func (m *Manager) resolve(ctx context.Context, endpoint string, params Params, force bool) Result {
	key, err := Key(endpoint, params)
	if err != nil {
		return errorResult(requestError(err))
	}

	m.mu.Lock()
	fetch, ok := m.endpoints[endpoint]
	if !ok {
		m.mu.Unlock()
		return errorResult(&weather.APIError{Kind: weather.KindRequest, Message: fmt.Sprintf("unknown endpoint %q", endpoint)})
	}
	if !force {
		if e, found := m.store.Get(key); found && e.Status == StatusSuccess {
			m.mu.Unlock()
			return e.Result()
		}
	}
	m.mu.Unlock()

	params = params.Clone()
	ch := m.requests.DoChan(key, func() (interface{}, error) {
		return m.run(key, endpoint, params, fetch, force), nil
	})

	select {
	case res := <-ch:
		return res.Val.(Result)
	case <-ctx.Done():
		return m.peekKey(key)
	}
}

// run performs the network call for key. It executes inside the singleflight
// group, detached from any single caller's context.
func (m *Manager) run(key, endpoint string, params Params, fetch Fetcher, force bool) Result {
	if !force {
		// A call that settled between the cache check and joining the group.
		m.mu.Lock()
		e, ok := m.store.Get(key)
		m.mu.Unlock()
		if ok && e.Status == StatusSuccess {
			return e.Result()
		}
	}

	m.update(key, endpoint, params, func(e *Entry) {
		e.Status = StatusLoading
	})

	ctx := context.Background()
	if m.fetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.fetchTimeout)
		defer cancel()
	}

	data, err := fetch(ctx, params)
	if err != nil {
		log.Printf("DEBUG: query %s failed: %v", key, err)
	}

	return m.update(key, endpoint, params, func(e *Entry) {
		if err != nil {
			// Last good data stays visible next to the error.
			e.Status = StatusError
			e.Err = weather.AsAPIError(err)
			return
		}
		e.Status = StatusSuccess
		e.Data = data
		e.Err = nil
		e.LastFetchedAt = m.now()
	})
}

// update applies one transition to the entry for key, persists it and
// notifies the key's subscribers outside the lock.
func (m *Manager) update(key, endpoint string, params Params, apply func(*Entry)) Result {
	m.mu.Lock()
	e, ok := m.store.Get(key)
	if !ok {
		e = Entry{Key: key, Endpoint: endpoint, Params: params, Status: StatusIdle}
	}
	apply(&e)
	e.UpdatedAt = m.now()
	m.store.Save(e)
	if n := m.store.Prune(m.hasSubscribersLocked); n > 0 {
		log.Printf("DEBUG: pruned %d expired cache entries", n)
	}
	listeners := m.listenersLocked(key)
	m.mu.Unlock()

	res := e.Result()
	for _, fn := range listeners {
		fn(res)
	}
	return res
}

func (m *Manager) hasSubscribersLocked(key string) bool {
	return len(m.subs[key]) > 0
}

func (m *Manager) listenersLocked(key string) []Listener {
	subs := m.subs[key]
	if len(subs) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(subs))
	for _, fn := range subs {
		if fn != nil {
			out = append(out, fn)
		}
	}
	return out
}

func requestError(err error) *weather.APIError {
	return &weather.APIError{Kind: weather.KindRequest, Message: err.Error(), Err: err}
}
