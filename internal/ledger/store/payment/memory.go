// Package payment implements the fungible payment ledger: balances plus the
// operator allowance each account grants for transferFrom.
package payment

import (
	"context"
	"fmt"
	"sync"

	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

// InMemory keeps balances and allowances in maps. Snapshot-capable so it can
// participate in the in-memory unit of work.
type InMemory struct {
	mu         sync.RWMutex
	balances   map[domain.Address]uint64
	allowances map[domain.Address]uint64
}

// NewInMemory creates an empty in-memory payment ledger.
func NewInMemory() *InMemory {
	return &InMemory{
		balances:   make(map[domain.Address]uint64),
		allowances: make(map[domain.Address]uint64),
	}
}

func (s *InMemory) TransferFrom(ctx context.Context, owner, recipient domain.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allowances[owner] < amount {
		return fmt.Errorf("allowance of %s is %d, need %d: %w",
			owner, s.allowances[owner], amount, sentinel.ErrInsufficientAllowance)
	}
	if s.balances[owner] < amount {
		return fmt.Errorf("balance of %s is %d, need %d: %w",
			owner, s.balances[owner], amount, sentinel.ErrInsufficientFunds)
	}
	s.allowances[owner] -= amount
	s.balances[owner] -= amount
	s.balances[recipient] += amount
	return nil
}

func (s *InMemory) Approve(ctx context.Context, owner domain.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowances[owner] = amount
	return nil
}

func (s *InMemory) Credit(ctx context.Context, addr domain.Address, amount uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[addr] += amount
	return nil
}

func (s *InMemory) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[addr], nil
}

func (s *InMemory) AllowanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.allowances[owner], nil
}

type memorySnapshot struct {
	balances   map[domain.Address]uint64
	allowances map[domain.Address]uint64
}

// Snapshot captures balances and allowances for the in-memory unit of work.
func (s *InMemory) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := memorySnapshot{
		balances:   make(map[domain.Address]uint64, len(s.balances)),
		allowances: make(map[domain.Address]uint64, len(s.allowances)),
	}
	for a, v := range s.balances {
		snap.balances[a] = v
	}
	for a, v := range s.allowances {
		snap.allowances[a] = v
	}
	return snap
}

// Restore rolls the ledger back to a previously captured snapshot.
func (s *InMemory) Restore(snapshot any) {
	snap, ok := snapshot.(memorySnapshot)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances = make(map[domain.Address]uint64, len(snap.balances))
	s.allowances = make(map[domain.Address]uint64, len(snap.allowances))
	for a, v := range snap.balances {
		s.balances[a] = v
	}
	for a, v := range snap.allowances {
		s.allowances[a] = v
	}
}
