package service

import (
	"context"
	"errors"

	"sigil/internal/token/models"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/requestcontext"
)

// SetLock is the unconditional administrative override of a token's lock
// flag. The token must be live.
func (s *Service) SetLock(ctx context.Context, id domain.TokenID, locked bool) error {
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		if _, err := s.ownership.Get(txCtx, id); err != nil {
			return translateOwnership(err, id)
		}
		if err := s.state.SetLock(txCtx, id, locked); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "set lock state")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.lockCache != nil {
		s.lockCache.Invalidate(ctx, id)
	}
	event := models.NewEvent(models.EventLockChanged, id, requestcontext.Now(ctx))
	event.Locked = locked
	s.publish(ctx, event)

	if s.metrics != nil {
		s.metrics.LockChanges.Inc()
	}
	s.logger.InfoContext(ctx, "lock overridden",
		"token_id", id.String(), "locked", locked)
	return nil
}

// UnlockAndTransfer clears the lock and hands the token to the recipient in
// the same atomic step. Requires the token to be currently locked; this is
// the one-shot release path out of administrator custody after a locked mint.
func (s *Service) UnlockAndTransfer(ctx context.Context, id domain.TokenID, req models.UnlockTransferRequest) error {
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	if err := req.Validate(); err != nil {
		return err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		locked, err := s.state.IsLocked(txCtx, id)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "read lock state")
		}
		if !locked {
			return derrors.Newf(models.CodeAlreadyUnlocked, "token %s is not locked", id)
		}
		if err := s.state.SetLock(txCtx, id, false); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "set lock state")
		}
		if err := s.ownership.SetOwner(txCtx, id, req.To); err != nil {
			return translateOwnership(err, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.lockCache != nil {
		s.lockCache.Invalidate(ctx, id)
	}
	event := models.NewEvent(models.EventUnlocked, id, requestcontext.Now(ctx))
	event.Account = req.To
	s.publish(ctx, event)

	if s.metrics != nil {
		s.metrics.LockChanges.Inc()
	}
	s.logger.InfoContext(ctx, "token unlocked and transferred",
		"token_id", id.String(), "to", req.To.String())
	return nil
}

// Transfer is the holder-initiated ownership transfer. Not administrator-
// gated: the caller must be the current holder named in the request, and the
// token must be unlocked.
func (s *Service) Transfer(ctx context.Context, id domain.TokenID, req models.TransferRequest) error {
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	if err := req.Validate(); err != nil {
		return err
	}
	if caller := requestcontext.Caller(ctx); caller != req.From {
		return derrors.New(derrors.CodeForbidden, "only the holder may initiate a transfer")
	}

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		locked, err := s.state.IsLocked(txCtx, id)
		if err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "read lock state")
		}
		if locked {
			return derrors.Newf(models.CodeTransferBlocked, "token %s is locked", id)
		}
		if err := s.ownership.Transfer(txCtx, id, req.From, req.To); err != nil {
			return translateOwnership(err, id)
		}
		return nil
	})
}

// Burn removes the token from the live set. Its ID stays in the minted
// registry forever and can never be minted again.
func (s *Service) Burn(ctx context.Context, id domain.TokenID) error {
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		if err := s.ownership.Burn(txCtx, id); err != nil {
			return translateOwnership(err, id)
		}
		// The registry entry stays; only the lock flag is garbage.
		if err := s.state.ClearLock(txCtx, id); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "clear lock state")
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.lockCache != nil {
		s.lockCache.Invalidate(ctx, id)
	}
	s.publish(ctx, models.NewEvent(models.EventBurned, id, requestcontext.Now(ctx)))

	if s.metrics != nil {
		s.metrics.TokensBurned.Inc()
	}
	s.logger.InfoContext(ctx, "token burned", "token_id", id.String())
	return nil
}

// translateOwnership maps ledger sentinel errors onto coded domain errors.
func translateOwnership(err error, id domain.TokenID) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return derrors.Newf(derrors.CodeNotFound, "token %s does not exist", id)
	case errors.Is(err, sentinel.ErrInvalidState):
		return derrors.Newf(derrors.CodeForbidden, "token %s is not held by the sender", id)
	default:
		return derrors.Wrap(err, derrors.CodeInternal, "ledger operation failed")
	}
}
