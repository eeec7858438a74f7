package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/token/models"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
)

type StateStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *StateStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestStateStoreSuite(t *testing.T) {
	suite.Run(t, new(StateStoreSuite))
}

// TestRegistry verifies minted IDs are permanent and counted.
func (s *StateStoreSuite) TestRegistry() {
	s.Run("registers and counts", func() {
		s.Require().NoError(s.store.AddMinted(s.ctx, 1))
		s.Require().NoError(s.store.AddMinted(s.ctx, 2))

		minted, err := s.store.IsMinted(s.ctx, 1)
		s.Require().NoError(err)
		s.True(minted)

		count, err := s.store.MintCount(s.ctx)
		s.Require().NoError(err)
		s.Equal(uint64(2), count)
	})

	s.Run("rejects re-registration", func() {
		s.Require().NoError(s.store.AddMinted(s.ctx, 7))
		s.Require().ErrorIs(s.store.AddMinted(s.ctx, 7), sentinel.ErrConflict)
	})

	s.Run("unknown ID reads as not minted", func() {
		minted, err := s.store.IsMinted(s.ctx, 404)
		s.Require().NoError(err)
		s.False(minted)
	})
}

// TestLocks verifies the lock flag lifecycle.
func (s *StateStoreSuite) TestLocks() {
	locked, err := s.store.IsLocked(s.ctx, 1)
	s.Require().NoError(err)
	s.False(locked, "fresh ID defaults to unlocked")

	s.Require().NoError(s.store.SetLock(s.ctx, 1, true))
	locked, err = s.store.IsLocked(s.ctx, 1)
	s.Require().NoError(err)
	s.True(locked)

	s.Require().NoError(s.store.SetLock(s.ctx, 1, false))
	locked, err = s.store.IsLocked(s.ctx, 1)
	s.Require().NoError(err)
	s.False(locked)

	s.Require().NoError(s.store.SetLock(s.ctx, 1, true))
	s.Require().NoError(s.store.ClearLock(s.ctx, 1))
	locked, err = s.store.IsLocked(s.ctx, 1)
	s.Require().NoError(err)
	s.False(locked)
}

// TestConfig verifies configuration persistence.
func (s *StateStoreSuite) TestConfig() {
	_, err := s.store.Config(s.ctx)
	s.Require().ErrorIs(err, sentinel.ErrNotFound, "unseeded store has no config")

	cfg := models.MintConfig{
		MaxSupply:     500,
		MinMintAmount: 10,
		PaymentAsset:  domain.NewAddress("asset:test"),
		Admin:         domain.NewAddress("admin"),
	}
	s.Require().NoError(s.store.SetConfig(s.ctx, cfg))

	got, err := s.store.Config(s.ctx)
	s.Require().NoError(err)
	s.Equal(cfg, got)
}

// TestSnapshotRestore verifies the unit-of-work rollback hook covers all
// state: registry, counter, locks, and config.
func (s *StateStoreSuite) TestSnapshotRestore() {
	s.Require().NoError(s.store.AddMinted(s.ctx, 1))
	s.Require().NoError(s.store.SetLock(s.ctx, 1, true))
	snap := s.store.Snapshot()

	s.Require().NoError(s.store.AddMinted(s.ctx, 2))
	s.Require().NoError(s.store.SetLock(s.ctx, 1, false))
	s.Require().NoError(s.store.SetConfig(s.ctx, models.MintConfig{
		MaxSupply:    1,
		PaymentAsset: domain.NewAddress("asset:x"),
		Admin:        domain.NewAddress("x"),
	}))

	s.store.Restore(snap)

	minted, err := s.store.IsMinted(s.ctx, 2)
	s.Require().NoError(err)
	s.False(minted)

	count, err := s.store.MintCount(s.ctx)
	s.Require().NoError(err)
	s.Equal(uint64(1), count)

	locked, err := s.store.IsLocked(s.ctx, 1)
	s.Require().NoError(err)
	s.True(locked)

	_, err = s.store.Config(s.ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
