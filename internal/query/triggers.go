package query

import (
	"context"
	"log"
)

// Trigger is an event that revalidates mounted queries.
type Trigger string

const (
	// TriggerFocus fires when the dashboard regains foreground focus.
	TriggerFocus Trigger = "focus"
	// TriggerReconnect fires when connectivity is restored after a loss.
	TriggerReconnect Trigger = "reconnect"
)

// OnFocus revalidates mounted queries after a focus event.
func (m *Manager) OnFocus(ctx context.Context) int {
	return m.Notify(ctx, TriggerFocus)
}

// OnReconnect revalidates mounted queries after connectivity returns.
func (m *Manager) OnReconnect(ctx context.Context) int {
	return m.Notify(ctx, TriggerReconnect)
}

// Notify runs one revalidation round for t. Events of the same kind that
// arrive while a round is running join it instead of starting another, so
// each event fires at most once. Disabled triggers return 0.
func (m *Manager) Notify(ctx context.Context, t Trigger) int {
	switch t {
	case TriggerFocus:
		if !m.refetchOnFocus {
			return 0
		}
	case TriggerReconnect:
		if !m.refetchOnReconnect {
			return 0
		}
	default:
		return 0
	}

	v, _, _ := m.triggers.Do(string(t), func() (interface{}, error) {
		n := m.Revalidate(ctx)
		log.Printf("INFO: %s trigger revalidated %d queries", t, n)
		return n, nil
	})
	return v.(int)
}
