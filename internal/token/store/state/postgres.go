package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sigil/internal/token/models"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/platform/tx"
)

// Schema creates the controller state tables. mint_config is a singleton row
// keyed by a constant.
const Schema = `
CREATE TABLE IF NOT EXISTS minted_tokens (
    id        BIGINT PRIMARY KEY,
    minted_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE TABLE IF NOT EXISTS token_locks (
    id     BIGINT PRIMARY KEY,
    locked BOOLEAN NOT NULL
);
CREATE TABLE IF NOT EXISTS mint_config (
    singleton       BOOLEAN PRIMARY KEY DEFAULT TRUE CHECK (singleton),
    max_supply      BIGINT NOT NULL,
    min_mint_amount BIGINT NOT NULL,
    payment_asset   TEXT NOT NULL,
    admin_address   TEXT NOT NULL
);
`

// PostgresStore persists controller state in PostgreSQL, joining the
// operation's unit of work through the context transaction.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed state store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) AddMinted(ctx context.Context, id domain.TokenID) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO minted_tokens (id) VALUES ($1)`, int64(id))
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("token %s already minted: %w", id, sentinel.ErrConflict)
		}
		return fmt.Errorf("add minted: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsMinted(ctx context.Context, id domain.TokenID) (bool, error) {
	q := tx.Resolve(ctx, s.db)
	var exists bool
	err := q.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM minted_tokens WHERE id = $1)`, int64(id),
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("is minted: %w", err)
	}
	return exists, nil
}

// MintCount derives the monotonic counter from the permanent registry:
// entries never leave, so the count never decreases.
func (s *PostgresStore) MintCount(ctx context.Context) (uint64, error) {
	q := tx.Resolve(ctx, s.db)
	var count int64
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM minted_tokens`).Scan(&count); err != nil {
		return 0, fmt.Errorf("mint count: %w", err)
	}
	return uint64(count), nil
}

func (s *PostgresStore) SetLock(ctx context.Context, id domain.TokenID, locked bool) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO token_locks (id, locked) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET locked = EXCLUDED.locked`,
		int64(id), locked,
	)
	if err != nil {
		return fmt.Errorf("set lock: %w", err)
	}
	return nil
}

func (s *PostgresStore) IsLocked(ctx context.Context, id domain.TokenID) (bool, error) {
	q := tx.Resolve(ctx, s.db)
	var locked bool
	err := q.QueryRowContext(ctx,
		`SELECT locked FROM token_locks WHERE id = $1`, int64(id),
	).Scan(&locked)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("is locked: %w", err)
	}
	return locked, nil
}

func (s *PostgresStore) ClearLock(ctx context.Context, id domain.TokenID) error {
	q := tx.Resolve(ctx, s.db)
	if _, err := q.ExecContext(ctx,
		`DELETE FROM token_locks WHERE id = $1`, int64(id)); err != nil {
		return fmt.Errorf("clear lock: %w", err)
	}
	return nil
}

func (s *PostgresStore) Config(ctx context.Context) (models.MintConfig, error) {
	q := tx.Resolve(ctx, s.db)
	var cfg models.MintConfig
	var maxSupply, minMint int64
	var asset, admin string
	err := q.QueryRowContext(ctx,
		`SELECT max_supply, min_mint_amount, payment_asset, admin_address FROM mint_config`,
	).Scan(&maxSupply, &minMint, &asset, &admin)
	if errors.Is(err, sql.ErrNoRows) {
		return cfg, fmt.Errorf("mint config: %w", sentinel.ErrNotFound)
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	cfg.MaxSupply = uint64(maxSupply)
	cfg.MinMintAmount = uint64(minMint)
	cfg.PaymentAsset = domain.Address(asset)
	cfg.Admin = domain.Address(admin)
	return cfg, nil
}

func (s *PostgresStore) SetConfig(ctx context.Context, cfg models.MintConfig) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO mint_config (singleton, max_supply, min_mint_amount, payment_asset, admin_address)
		 VALUES (TRUE, $1, $2, $3, $4)
		 ON CONFLICT (singleton) DO UPDATE SET
		   max_supply = EXCLUDED.max_supply,
		   min_mint_amount = EXCLUDED.min_mint_amount,
		   payment_asset = EXCLUDED.payment_asset,
		   admin_address = EXCLUDED.admin_address`,
		int64(cfg.MaxSupply), int64(cfg.MinMintAmount),
		cfg.PaymentAsset.String(), cfg.Admin.String(),
	)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
