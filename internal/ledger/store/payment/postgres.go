package payment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/platform/tx"
)

// Schema creates the balance and allowance tables.
const Schema = `
CREATE TABLE IF NOT EXISTS payment_balances (
    address TEXT PRIMARY KEY,
    balance BIGINT NOT NULL DEFAULT 0 CHECK (balance >= 0)
);
CREATE TABLE IF NOT EXISTS payment_allowances (
    owner     TEXT PRIMARY KEY,
    allowance BIGINT NOT NULL DEFAULT 0 CHECK (allowance >= 0)
);
`

// PostgresStore persists the payment ledger in PostgreSQL. Row locks
// (SELECT ... FOR UPDATE) keep a transferFrom atomic on its own; the context
// transaction extends that to the whole mint operation.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed payment ledger.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) TransferFrom(ctx context.Context, owner, recipient domain.Address, amount uint64) error {
	q := tx.Resolve(ctx, s.db)

	var allowance int64
	err := q.QueryRowContext(ctx,
		`SELECT allowance FROM payment_allowances WHERE owner = $1 FOR UPDATE`,
		owner.String(),
	).Scan(&allowance)
	if errors.Is(err, sql.ErrNoRows) {
		allowance = 0
	} else if err != nil {
		return fmt.Errorf("read allowance: %w", err)
	}
	if uint64(allowance) < amount {
		return fmt.Errorf("allowance of %s is %d, need %d: %w",
			owner, allowance, amount, sentinel.ErrInsufficientAllowance)
	}

	var balance int64
	err = q.QueryRowContext(ctx,
		`SELECT balance FROM payment_balances WHERE address = $1 FOR UPDATE`,
		owner.String(),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		balance = 0
	} else if err != nil {
		return fmt.Errorf("read balance: %w", err)
	}
	if uint64(balance) < amount {
		return fmt.Errorf("balance of %s is %d, need %d: %w",
			owner, balance, amount, sentinel.ErrInsufficientFunds)
	}

	if _, err := q.ExecContext(ctx,
		`UPDATE payment_allowances SET allowance = allowance - $1 WHERE owner = $2`,
		int64(amount), owner.String(),
	); err != nil {
		return fmt.Errorf("debit allowance: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`UPDATE payment_balances SET balance = balance - $1 WHERE address = $2`,
		int64(amount), owner.String(),
	); err != nil {
		return fmt.Errorf("debit balance: %w", err)
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO payment_balances (address, balance) VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET balance = payment_balances.balance + EXCLUDED.balance`,
		recipient.String(), int64(amount),
	); err != nil {
		return fmt.Errorf("credit recipient: %w", err)
	}
	return nil
}

func (s *PostgresStore) Approve(ctx context.Context, owner domain.Address, amount uint64) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO payment_allowances (owner, allowance) VALUES ($1, $2)
		 ON CONFLICT (owner) DO UPDATE SET allowance = EXCLUDED.allowance`,
		owner.String(), int64(amount),
	)
	if err != nil {
		return fmt.Errorf("approve: %w", err)
	}
	return nil
}

func (s *PostgresStore) Credit(ctx context.Context, addr domain.Address, amount uint64) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO payment_balances (address, balance) VALUES ($1, $2)
		 ON CONFLICT (address) DO UPDATE SET balance = payment_balances.balance + EXCLUDED.balance`,
		addr.String(), int64(amount),
	)
	if err != nil {
		return fmt.Errorf("credit: %w", err)
	}
	return nil
}

func (s *PostgresStore) BalanceOf(ctx context.Context, addr domain.Address) (uint64, error) {
	q := tx.Resolve(ctx, s.db)
	var balance int64
	err := q.QueryRowContext(ctx,
		`SELECT balance FROM payment_balances WHERE address = $1`, addr.String(),
	).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("balance of: %w", err)
	}
	return uint64(balance), nil
}

func (s *PostgresStore) AllowanceOf(ctx context.Context, owner domain.Address) (uint64, error) {
	q := tx.Resolve(ctx, s.db)
	var allowance int64
	err := q.QueryRowContext(ctx,
		`SELECT allowance FROM payment_allowances WHERE owner = $1`, owner.String(),
	).Scan(&allowance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("allowance of: %w", err)
	}
	return uint64(allowance), nil
}
