package main

import (
	"context"
	"database/sql"
	"time"

	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/tx"
)

const defaultTokenTxTimeout = 5 * time.Second

// tokenPostgresTx runs a unit of work as a single SQL transaction. The open
// transaction travels through the context so every store touched inside the
// callback participates in the same commit or rollback.
type tokenPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newTokenPostgresTx(db *sql.DB) *tokenPostgresTx {
	return &tokenPostgresTx{db: db}
}

func (t *tokenPostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return derrors.Wrap(err, derrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultTokenTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	sqlTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, sqlTx)); err != nil {
		return err
	}

	return sqlTx.Commit()
}
