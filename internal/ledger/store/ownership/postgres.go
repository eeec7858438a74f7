package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"sigil/internal/ledger"
	"sigil/pkg/domain"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/platform/tx"
)

// Schema creates the tokens table. Applied by migrations tooling and by the
// integration test container.
const Schema = `
CREATE TABLE IF NOT EXISTS tokens (
    id        BIGINT PRIMARY KEY,
    owner     TEXT NOT NULL,
    uri       TEXT NOT NULL DEFAULT '',
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS tokens_owner_idx ON tokens (owner);
`

// PostgresStore persists live tokens in PostgreSQL. All statements resolve
// the context transaction when one is in flight so the store participates in
// the operation's unit of work.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed ownership store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, token *ledger.Token) error {
	q := tx.Resolve(ctx, s.db)
	_, err := q.ExecContext(ctx,
		`INSERT INTO tokens (id, owner, uri) VALUES ($1, $2, $3)`,
		int64(token.ID), token.Owner.String(), token.URI,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return fmt.Errorf("token %s: %w", token.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, id domain.TokenID) (*ledger.Token, error) {
	q := tx.Resolve(ctx, s.db)
	var t ledger.Token
	var rawID int64
	var owner string
	err := q.QueryRowContext(ctx,
		`SELECT id, owner, uri FROM tokens WHERE id = $1`, int64(id),
	).Scan(&rawID, &owner, &t.URI)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get token: %w", err)
	}
	t.ID = domain.TokenID(rawID)
	t.Owner = domain.Address(owner)
	return &t, nil
}

func (s *PostgresStore) Transfer(ctx context.Context, id domain.TokenID, from, to domain.Address) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx,
		`UPDATE tokens SET owner = $1 WHERE id = $2 AND owner = $3`,
		to.String(), int64(id), from.String(),
	)
	if err != nil {
		return fmt.Errorf("transfer token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transfer token: %w", err)
	}
	if affected == 0 {
		// Distinguish missing token from wrong holder.
		if _, getErr := s.Get(ctx, id); getErr != nil {
			return getErr
		}
		return fmt.Errorf("token %s not held by %s: %w", id, from, sentinel.ErrInvalidState)
	}
	return nil
}

func (s *PostgresStore) SetOwner(ctx context.Context, id domain.TokenID, owner domain.Address) error {
	return s.updateColumn(ctx, id, `UPDATE tokens SET owner = $1 WHERE id = $2`, owner.String())
}

func (s *PostgresStore) SetURI(ctx context.Context, id domain.TokenID, uri string) error {
	return s.updateColumn(ctx, id, `UPDATE tokens SET uri = $1 WHERE id = $2`, uri)
}

func (s *PostgresStore) updateColumn(ctx context.Context, id domain.TokenID, query, value string) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, query, value, int64(id))
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update token: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Burn(ctx context.Context, id domain.TokenID) error {
	q := tx.Resolve(ctx, s.db)
	res, err := q.ExecContext(ctx, `DELETE FROM tokens WHERE id = $1`, int64(id))
	if err != nil {
		return fmt.Errorf("burn token: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("burn token: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("token %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]*ledger.Token, error) {
	q := tx.Resolve(ctx, s.db)
	rows, err := q.QueryContext(ctx, `SELECT id, owner, uri FROM tokens ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	defer rows.Close()

	var out []*ledger.Token
	for rows.Next() {
		var t ledger.Token
		var rawID int64
		var owner string
		if err := rows.Scan(&rawID, &owner, &t.URI); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		t.ID = domain.TokenID(rawID)
		t.Owner = domain.Address(owner)
		out = append(out, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	return out, nil
}
