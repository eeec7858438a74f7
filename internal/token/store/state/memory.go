// Package state persists the mint controller's own state: the permanent
// minted-ID registry, per-token lock flags, the monotonic mint counter, and
// the administrator-mutable mint configuration. Live ownership lives in the
// ledger, not here.
package state

import (
	"context"
	"fmt"
	"sync"

	"sigil/internal/token/models"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// InMemory keeps controller state in maps. Snapshot-capable so it can
// participate in the in-memory unit of work.
type InMemory struct {
	mu        sync.RWMutex
	minted    map[domain.TokenID]struct{}
	locked    map[domain.TokenID]bool
	mintCount uint64
	cfg       models.MintConfig
	hasCfg    bool
}

// NewInMemory creates an empty in-memory state store.
func NewInMemory() *InMemory {
	return &InMemory{
		minted: make(map[domain.TokenID]struct{}),
		locked: make(map[domain.TokenID]bool),
	}
}

// AddMinted records the ID in the permanent registry and bumps the mint
// counter. ErrConflict when the ID was minted before; registry entries never
// leave, even after burn.
func (s *InMemory) AddMinted(ctx context.Context, id domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.minted[id]; exists {
		return fmt.Errorf("token %s already minted: %w", id, sentinel.ErrConflict)
	}
	s.minted[id] = struct{}{}
	s.mintCount++
	return nil
}

func (s *InMemory) IsMinted(ctx context.Context, id domain.TokenID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, exists := s.minted[id]
	return exists, nil
}

func (s *InMemory) MintCount(ctx context.Context) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mintCount, nil
}

// SetLock overrides the lock flag. A fresh ID defaults to unlocked.
func (s *InMemory) SetLock(ctx context.Context, id domain.TokenID, locked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locked[id] = locked
	return nil
}

func (s *InMemory) IsLocked(ctx context.Context, id domain.TokenID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locked[id], nil
}

// ClearLock drops the lock entry when a token is burned.
func (s *InMemory) ClearLock(ctx context.Context, id domain.TokenID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.locked, id)
	return nil
}

// Config returns the current mint configuration. ErrNotFound before seeding.
func (s *InMemory) Config(ctx context.Context) (models.MintConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.hasCfg {
		return models.MintConfig{}, fmt.Errorf("mint config: %w", sentinel.ErrNotFound)
	}
	return s.cfg, nil
}

// SetConfig replaces the mint configuration.
func (s *InMemory) SetConfig(ctx context.Context, cfg models.MintConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg
	s.hasCfg = true
	return nil
}

type memorySnapshot struct {
	minted    map[domain.TokenID]struct{}
	locked    map[domain.TokenID]bool
	mintCount uint64
	cfg       models.MintConfig
	hasCfg    bool
}

// Snapshot captures controller state for the in-memory unit of work.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		minted:    make(map[domain.TokenID]struct{}, len(s.minted)),
		locked:    make(map[domain.TokenID]bool, len(s.locked)),
		mintCount: s.mintCount,
		cfg:       s.cfg,
		hasCfg:    s.hasCfg,
	}
	for id := range s.minted {
		snap.minted[id] = struct{}{}
	}
	for id, l := range s.locked {
		snap.locked[id] = l
	}
	return snap
}

// Restore rolls the store back to a previously captured snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(memorySnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minted = make(map[domain.TokenID]struct{}, len(snap.minted))
	s.locked = make(map[domain.TokenID]bool, len(snap.locked))
	for id := range snap.minted {
		s.minted[id] = struct{}{}
	}
	for id, l := range snap.locked {
		s.locked[id] = l
	}
	s.mintCount = snap.mintCount
	s.cfg = snap.cfg
	s.hasCfg = snap.hasCfg
}
