package service

import (
	"context"

	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
	"sigil/pkg/requestcontext"
)

// CreditPayment funds an account on the payment ledger. Administrative
// plumbing so the fungible side can be operated end to end.
func (s *Service) CreditPayment(ctx context.Context, addr domain.Address, amount uint64) error {
	if addr.IsZero() {
		return derrors.New(derrors.CodeValidation, "address is required")
	}
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		cfg, err := s.config(txCtx)
		if err != nil {
			return err
		}
		if err := s.authorize(txCtx, cfg); err != nil {
			return err
		}
		if err := s.payments.Credit(txCtx, addr, amount); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "credit account")
		}
		return nil
	})
}

// ApprovePayment sets the operator allowance over the caller's own funds.
// Buyer-initiated: the caller approves spending of their balance for future
// mints.
func (s *Service) ApprovePayment(ctx context.Context, owner domain.Address, amount uint64) error {
	if owner.IsZero() {
		return derrors.New(derrors.CodeValidation, "owner address is required")
	}
	if caller := requestcontext.Caller(ctx); caller != owner {
		return derrors.New(derrors.CodeForbidden, "only the owner may set an allowance")
	}
	if err := s.guard.acquire(); err != nil {
		return err
	}
	defer s.guard.release()

	return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.payments.Approve(txCtx, owner, amount); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "set allowance")
		}
		return nil
	})
}

// PaymentBalance returns the current balance of an account.
func (s *Service) PaymentBalance(ctx context.Context, addr domain.Address) (uint64, error) {
	balance, err := s.payments.BalanceOf(ctx, addr)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "read balance")
	}
	return balance, nil
}

// PaymentAllowance returns the remaining operator allowance of an account.
func (s *Service) PaymentAllowance(ctx context.Context, owner domain.Address) (uint64, error) {
	allowance, err := s.payments.AllowanceOf(ctx, owner)
	if err != nil {
		return 0, derrors.Wrap(err, derrors.CodeInternal, "read allowance")
	}
	return allowance, nil
}
