package scheduler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
)

// Pinger probes whether the weather service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Reconnector is told when connectivity comes back.
type Reconnector interface {
	OnReconnect(ctx context.Context) int
}

// Monitor periodically probes connectivity and fires the reconnect trigger
// when the service becomes reachable again after being offline.
type Monitor struct {
	scheduler *gocron.Scheduler
	pinger    Pinger
	target    Reconnector
	interval  time.Duration
	timeout   time.Duration

	mu     sync.Mutex
	online bool
}

// New creates a Monitor. It assumes the service starts out reachable.
func New(pinger Pinger, target Reconnector, interval time.Duration) *Monitor {
	timeout := interval / 2
	if timeout <= 0 || timeout > 10*time.Second {
		timeout = 10 * time.Second
	}
	return &Monitor{
		scheduler: gocron.NewScheduler(time.UTC),
		pinger:    pinger,
		target:    target,
		interval:  interval,
		timeout:   timeout,
		online:    true,
	}
}

// Start schedules the probe and starts the underlying scheduler.
func (m *Monitor) Start() error {
	if m.interval <= 0 {
		log.Println("INFO: connectivity monitor disabled")
		return nil
	}

	_, err := m.scheduler.Every(m.interval).SingletonMode().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), m.timeout)
		defer cancel()
		m.Check(ctx)
	})
	if err != nil {
		return err
	}

	m.scheduler.StartAsync()
	return nil
}

// Check probes once and reports whether the probe triggered a reconnect.
func (m *Monitor) Check(ctx context.Context) bool {
	err := m.pinger.Ping(ctx)

	m.mu.Lock()
	was := m.online
	m.online = err == nil
	m.mu.Unlock()

	switch {
	case err != nil && was:
		log.Printf("INFO: weather service unreachable: %v", err)
		return false
	case err == nil && !was:
		n := m.target.OnReconnect(ctx)
		log.Printf("INFO: weather service reachable again; revalidated %d queries", n)
		return true
	}
	return false
}

// Online reports the result of the last probe.
func (m *Monitor) Online() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Stop stops the scheduler and cancels any future probes.
func (m *Monitor) Stop() {
	if m.scheduler != nil {
		m.scheduler.Stop()
	}
}
