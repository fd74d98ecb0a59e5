package query

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Subscription keeps a query mounted: its key is revalidated by refresh
// triggers and its listener sees every state change until Unsubscribe.
type Subscription struct {
	id       uuid.UUID
	key      string
	endpoint string
	params   Params
	m        *Manager
	once     sync.Once
}

// Key returns the cache key the subscription is attached to.
func (s *Subscription) Key() string {
	return s.key
}

// Result returns the latest state of the subscribed key.
func (s *Subscription) Result() Result {
	return s.m.peekKey(s.key)
}

// Refetch forces a new call for the subscribed query.
func (s *Subscription) Refetch(ctx context.Context) Result {
	return s.m.Refetch(ctx, s.endpoint, s.params)
}

// Unsubscribe detaches the listener. A pending call still settles into the
// cache, but this listener is no longer notified. Safe to call more than once.
func (s *Subscription) Unsubscribe() {
	s.once.Do(func() {
		s.m.mu.Lock()
		defer s.m.mu.Unlock()
		subs := s.m.subs[s.key]
		delete(subs, s.id)
		if len(subs) == 0 {
			delete(s.m.subs, s.key)
		}
	})
}

// Subscribe mounts endpoint with params. The entry is created if needed and a
// fetch is started in the background unless successful data is already cached.
// fn may be nil when the caller only polls Result.
func (m *Manager) Subscribe(endpoint string, params Params, fn Listener) (*Subscription, error) {
	key, err := Key(endpoint, params)
	if err != nil {
		return nil, err
	}
	params = params.Clone()

	m.mu.Lock()
	if _, ok := m.endpoints[endpoint]; !ok {
		m.mu.Unlock()
		return nil, fmt.Errorf("unknown endpoint %q", endpoint)
	}

	e, ok := m.store.Get(key)
	if !ok {
		e = Entry{Key: key, Endpoint: endpoint, Params: params, Status: StatusIdle, UpdatedAt: m.now()}
		m.store.Save(e)
	}

	id := uuid.New()
	if m.subs[key] == nil {
		m.subs[key] = make(map[uuid.UUID]Listener)
	}
	m.subs[key][id] = fn
	needsFetch := e.Status == StatusIdle || e.Status == StatusError
	m.mu.Unlock()

	if needsFetch {
		go m.resolve(context.Background(), endpoint, params, false)
	}

	return &Subscription{
		id:       id,
		key:      key,
		endpoint: endpoint,
		params:   params,
		m:        m,
	}, nil
}

// Mounted returns the sorted keys that currently have at least one subscriber.
func (m *Manager) Mounted() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.subs))
	for key, subs := range m.subs {
		if len(subs) > 0 {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}

// Revalidate refetches every mounted query on the worker pool and waits for
// all of them to settle. It returns the number of queries refetched.
func (m *Manager) Revalidate(ctx context.Context) int {
	type target struct {
		endpoint string
		params   Params
	}

	m.mu.Lock()
	targets := make([]target, 0, len(m.subs))
	for key, subs := range m.subs {
		if len(subs) == 0 {
			continue
		}
		e, ok := m.store.Get(key)
		if !ok {
			continue
		}
		targets = append(targets, target{endpoint: e.Endpoint, params: e.Params})
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, t := range targets {
		t := t
		wg.Add(1)
		task := func() {
			defer wg.Done()
			m.Refetch(ctx, t.endpoint, t.params)
		}
		if err := m.pool.Submit(task); err != nil {
			log.Printf("ERROR: revalidation pool rejected %s: %v", t.endpoint, err)
			go task()
		}
	}
	wg.Wait()

	return len(targets)
}
