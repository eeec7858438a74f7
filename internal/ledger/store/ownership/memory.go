// Package ownership implements the non-fungible ownership/metadata store.
package ownership

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"sigil/internal/ledger"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// InMemory keeps the live token set in a map. Safe for concurrent use and
// snapshot-capable so it can participate in the in-memory unit of work.
type InMemory struct {
	mu     sync.RWMutex
	tokens map[domain.TokenID]ledger.Token
}

// NewInMemory creates an empty in-memory ownership store.
func NewInMemory() *InMemory {
	return &InMemory{tokens: make(map[domain.TokenID]ledger.Token)}
}

func (s *InMemory) Create(ctx context.Context, token *ledger.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[token.ID]; exists {
		return fmt.Errorf("token %s: %w", token.ID, sentinel.ErrConflict)
	}
	s.tokens[token.ID] = *token
	return nil
}

func (s *InMemory) Get(ctx context.Context, id domain.TokenID) (*ledger.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, exists := s.tokens[id]
	if !exists {
		return nil, fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	return &t, nil
}

func (s *InMemory) Transfer(ctx context.Context, id domain.TokenID, from, to domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tokens[id]
	if !exists {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	if t.Owner != from {
		return fmt.Errorf("token %s held by %s, not %s: %w", id, t.Owner, from, sentinel.ErrInvalidState)
	}
	t.Owner = to
	s.tokens[id] = t
	return nil
}

func (s *InMemory) SetOwner(ctx context.Context, id domain.TokenID, owner domain.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tokens[id]
	if !exists {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	t.Owner = owner
	s.tokens[id] = t
	return nil
}

func (s *InMemory) SetURI(ctx context.Context, id domain.TokenID, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, exists := s.tokens[id]
	if !exists {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	t.URI = uri
	s.tokens[id] = t
	return nil
}

func (s *InMemory) Burn(ctx context.Context, id domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tokens[id]; !exists {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.tokens, id)
	return nil
}

func (s *InMemory) List(ctx context.Context) ([]*ledger.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*ledger.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		t := t
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Snapshot captures the current token set for the in-memory unit of work.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[domain.TokenID]ledger.Token, len(s.tokens))
	for id, t := range s.tokens {
		snap[id] = t
	}
	return snap
}

// Restore rolls the store back to a previously captured snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(map[domain.TokenID]ledger.Token)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = make(map[domain.TokenID]ledger.Token, len(snap))
	for id, t := range snap {
		s.tokens[id] = t
	}
}
