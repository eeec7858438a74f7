//go:build integration

package state_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"

	"sigil/internal/token/models"
	"sigil/internal/token/store/state"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/testutil/containers"
)

type PostgresStateSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *state.PostgresStore
}

func TestPostgresStateSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStateSuite))
}

func (s *PostgresStateSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.store = state.NewPostgres(s.postgres.DB)
}

func (s *PostgresStateSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"minted_tokens", "token_locks", "mint_config"))
}

func (s *PostgresStateSuite) TestRegistry() {
	ctx := context.Background()

	s.Require().NoError(s.store.AddMinted(ctx, 1))
	s.Require().NoError(s.store.AddMinted(ctx, 2))
	s.ErrorIs(s.store.AddMinted(ctx, 1), sentinel.ErrConflict)

	minted, err := s.store.IsMinted(ctx, 1)
	s.Require().NoError(err)
	s.True(minted)

	minted, err = s.store.IsMinted(ctx, 404)
	s.Require().NoError(err)
	s.False(minted)

	count, err := s.store.MintCount(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(2), count)
}

func (s *PostgresStateSuite) TestLocks() {
	ctx := context.Background()

	locked, err := s.store.IsLocked(ctx, 1)
	s.Require().NoError(err)
	s.False(locked, "no row reads as unlocked")

	s.Require().NoError(s.store.SetLock(ctx, 1, true))
	locked, err = s.store.IsLocked(ctx, 1)
	s.Require().NoError(err)
	s.True(locked)

	s.Require().NoError(s.store.SetLock(ctx, 1, false))
	locked, err = s.store.IsLocked(ctx, 1)
	s.Require().NoError(err)
	s.False(locked)

	s.Require().NoError(s.store.SetLock(ctx, 1, true))
	s.Require().NoError(s.store.ClearLock(ctx, 1))
	locked, err = s.store.IsLocked(ctx, 1)
	s.Require().NoError(err)
	s.False(locked)
}

func (s *PostgresStateSuite) TestConfigSingleton() {
	ctx := context.Background()

	_, err := s.store.Config(ctx)
	s.ErrorIs(err, sentinel.ErrNotFound)

	cfg := models.MintConfig{
		MaxSupply:     500,
		MinMintAmount: 10,
		PaymentAsset:  domain.NewAddress("asset:test"),
		Admin:         domain.NewAddress("admin"),
	}
	s.Require().NoError(s.store.SetConfig(ctx, cfg))

	got, err := s.store.Config(ctx)
	s.Require().NoError(err)
	s.Equal(cfg, got)

	// Upsert replaces the singleton row rather than adding a second one.
	cfg.MaxSupply = 900
	s.Require().NoError(s.store.SetConfig(ctx, cfg))
	got, err = s.store.Config(ctx)
	s.Require().NoError(err)
	s.Equal(uint64(900), got.MaxSupply)
}
