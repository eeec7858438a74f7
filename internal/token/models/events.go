package models

import (
	"time"

	"github.com/google/uuid"

	"sigil/pkg/domain"
)

// EventType classifies token lifecycle notifications.
type EventType string

const (
	// EventMintCompleted: a mint of any entry point succeeded.
	EventMintCompleted EventType = "mint_completed"
	// EventLockChanged: the administrator overrode the lock flag.
	EventLockChanged EventType = "lock_changed"
	// EventUnlocked: the one-shot unlock-and-transfer ran.
	EventUnlocked EventType = "unlocked"
	// EventBurned: the token left the live set; its ID stays retired.
	EventBurned EventType = "burned"
)

// Event is emitted after a mutating operation commits. Keep it
// transport-agnostic so publishers can fan out (Kafka, logs, tests).
type Event struct {
	ID        uuid.UUID      `json:"id"`
	Type      EventType      `json:"type"`
	TokenID   domain.TokenID `json:"token_id"`
	Account   domain.Address `json:"account,omitempty"` // buyer / recipient of the action
	Amount    uint64         `json:"amount,omitempty"`  // declared total for mints
	Locked    bool           `json:"locked,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewEvent stamps a fresh event with an ID and the given time.
func NewEvent(eventType EventType, tokenID domain.TokenID, at time.Time) Event {
	return Event{
		ID:        uuid.New(),
		Type:      eventType,
		TokenID:   tokenID,
		Timestamp: at,
	}
}
