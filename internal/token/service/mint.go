package service

import (
	"context"
	"errors"
	"time"

	"sigil/internal/ledger"
	"sigil/internal/token/models"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/platform/sentinel"
	"sigil/pkg/requestcontext"
)

// Mint entry point names, used for metrics labels and logs.
const (
	entryPayment    = "payment"
	entryPrivileged = "privileged"
	entryGift       = "gift"
)

// MintWithPayment mints a token to the buyer against an atomic payment
// split. Checks run in order: supply bound, registry uniqueness, minimum
// payment, then the distribution. Any failure leaves no state change at all:
// no balances move, no token is created, the registry is untouched.
func (s *Service) MintWithPayment(ctx context.Context, req models.MintRequest) (models.TokenStatus, error) {
	start := time.Now()

	if err := s.guard.acquire(); err != nil {
		return models.TokenStatus{}, err
	}
	defer s.guard.release()

	if err := req.Validate(); err != nil {
		return models.TokenStatus{}, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		if err := s.checkMintable(txCtx, cfg, req.TokenID); err != nil {
			return err
		}
		if req.DeclaredTotal < cfg.MinMintAmount {
			return derrors.Newf(models.CodeBelowMinimum,
				"declared total %d below minimum %d", req.DeclaredTotal, cfg.MinMintAmount)
		}

		// Residual goes to the administrator current at operation start.
		if err := s.engine.Distribute(txCtx, req.Buyer, req.Commissions, req.DeclaredTotal, cfg.Admin); err != nil {
			return derrors.Wrap(err, models.CodePaymentFailed, "payment distribution aborted")
		}

		return s.record(txCtx, req.TokenID, req.Buyer, req.URI, true)
	})
	if err != nil {
		s.observeMintFailure(err)
		return models.TokenStatus{}, err
	}

	if s.lockCache != nil {
		s.lockCache.Invalidate(ctx, req.TokenID)
	}
	event := models.NewEvent(models.EventMintCompleted, req.TokenID, requestcontext.Now(ctx))
	event.Account = req.Buyer
	event.Amount = req.DeclaredTotal
	event.Locked = true
	s.publish(ctx, event)

	if s.metrics != nil {
		s.metrics.ObserveMint(entryPayment, start)
		s.metrics.PaymentVolume.Add(float64(req.DeclaredTotal))
	}
	s.logger.InfoContext(ctx, "token minted",
		"entry_point", entryPayment,
		"token_id", req.TokenID.String(),
		"buyer", req.Buyer.String(),
		"declared_total", req.DeclaredTotal,
	)

	return models.TokenStatus{
		ID: req.TokenID, Minted: true, Live: true,
		Owner: req.Buyer, URI: req.URI, Locked: true,
	}, nil
}

// PrivilegedMint mints a token with no payment movement. The token is
// created locked. Supply and registry checks apply exactly as on the payment
// path.
func (s *Service) PrivilegedMint(ctx context.Context, req models.DirectMintRequest) (models.TokenStatus, error) {
	return s.directMint(ctx, req, true, entryPrivileged)
}

// GiftMint mints a token with no payment movement, created unlocked so the
// recipient can transfer it immediately. Supply and registry checks apply
// uniformly; the reference behavior that skipped them is documented as an
// inconsistency, not replicated.
func (s *Service) GiftMint(ctx context.Context, req models.DirectMintRequest) (models.TokenStatus, error) {
	return s.directMint(ctx, req, false, entryGift)
}

func (s *Service) directMint(ctx context.Context, req models.DirectMintRequest, locked bool, entryPoint string) (models.TokenStatus, error) {
	start := time.Now()

	if err := s.guard.acquire(); err != nil {
		return models.TokenStatus{}, err
	}
	defer s.guard.release()

	if err := req.Validate(); err != nil {
		return models.TokenStatus{}, err
	}

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		if err := s.checkMintable(txCtx, cfg, req.TokenID); err != nil {
			return err
		}
		return s.record(txCtx, req.TokenID, req.To, req.URI, locked)
	})
	if err != nil {
		s.observeMintFailure(err)
		return models.TokenStatus{}, err
	}

	if s.lockCache != nil {
		s.lockCache.Invalidate(ctx, req.TokenID)
	}
	event := models.NewEvent(models.EventMintCompleted, req.TokenID, requestcontext.Now(ctx))
	event.Account = req.To
	event.Locked = locked
	s.publish(ctx, event)

	if s.metrics != nil {
		s.metrics.ObserveMint(entryPoint, start)
	}
	s.logger.InfoContext(ctx, "token minted",
		"entry_point", entryPoint,
		"token_id", req.TokenID.String(),
		"to", req.To.String(),
		"locked", locked,
	)

	return models.TokenStatus{
		ID: req.TokenID, Minted: true, Live: true,
		Owner: req.To, URI: req.URI, Locked: locked,
	}, nil
}

// checkMintable enforces the supply bound and registry uniqueness shared by
// every mint entry point.
func (s *Service) checkMintable(ctx context.Context, cfg models.MintConfig, id domain.TokenID) error {
	if uint64(id) > cfg.MaxSupply {
		return derrors.Newf(models.CodeSupplyExceeded,
			"token ID %s exceeds max supply %d", id, cfg.MaxSupply)
	}
	minted, err := s.state.IsMinted(ctx, id)
	if err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "read registry")
	}
	if minted {
		return derrors.Newf(models.CodeAlreadyMinted, "token ID %s was already minted", id)
	}
	return nil
}

// record creates the token and registers its ID and lock flag. Runs inside
// the unit of work, after all checks and any payment movement.
func (s *Service) record(ctx context.Context, id domain.TokenID, owner domain.Address, uri string, locked bool) error {
	if err := s.ownership.Create(ctx, &ledger.Token{ID: id, Owner: owner, URI: uri}); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return derrors.Newf(models.CodeAlreadyMinted, "token ID %s is live", id)
		}
		return derrors.Wrap(err, derrors.CodeInternal, "create token")
	}
	if err := s.state.AddMinted(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return derrors.Newf(models.CodeAlreadyMinted, "token ID %s was already minted", id)
		}
		return derrors.Wrap(err, derrors.CodeInternal, "register token")
	}
	if err := s.state.SetLock(ctx, id, locked); err != nil {
		return derrors.Wrap(err, derrors.CodeInternal, "set lock state")
	}
	return nil
}

func (s *Service) observeMintFailure(err error) {
	if s.metrics != nil {
		s.metrics.ObserveMintFailure(string(derrors.CodeOf(err)))
	}
}
