// Package events publishes token lifecycle notifications after an operation
// commits. Delivery is best-effort: a failed publish is logged, never rolled
// into the operation's outcome.
package events

import (
	"context"
	"log/slog"
	"sync"

	"sigil/internal/token/models"
)

// Publisher emits token lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Memory records events in order. Used by unit tests and as the default
// publisher when no broker is configured.
type Memory struct {
	mu     sync.Mutex
	events []models.Event
}

// NewMemory creates an empty in-memory publisher.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Publish(ctx context.Context, event models.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// Events returns a copy of everything published so far.
func (m *Memory) Events() []models.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Event, len(m.events))
	copy(out, m.events)
	return out
}

// Log writes events to the structured log. Fallback publisher for
// deployments without a broker.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a logging publisher.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Publish(ctx context.Context, event models.Event) error {
	l.logger.InfoContext(ctx, "token event",
		"event_id", event.ID.String(),
		"type", string(event.Type),
		"token_id", event.TokenID.String(),
		"account", event.Account.String(),
		"amount", event.Amount,
		"locked", event.Locked,
	)
	return nil
}
