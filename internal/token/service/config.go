package service

import (
	"context"

	"sigil/internal/token/models"
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

// SetMaxSupply replaces the supply cap. Already-minted IDs above a lowered
// cap stay minted; only future mints are bounded by the new value.
func (s *Service) SetMaxSupply(ctx context.Context, maxSupply uint64) error {
	if maxSupply == 0 {
		return derrors.New(models.CodeInvalidConfiguration, "max supply must be positive")
	}
	return s.updateConfig(ctx, "max_supply", func(cfg *models.MintConfig) {
		cfg.MaxSupply = maxSupply
	})
}

// SetMinMintAmount replaces the minimum accepted payment. Zero disables the
// floor.
func (s *Service) SetMinMintAmount(ctx context.Context, minAmount uint64) error {
	return s.updateConfig(ctx, "min_mint_amount", func(cfg *models.MintConfig) {
		cfg.MinMintAmount = minAmount
	})
}

// SetPaymentAsset switches the fungible payment capability identity.
func (s *Service) SetPaymentAsset(ctx context.Context, asset domain.Address) error {
	if asset.IsZero() {
		return derrors.New(models.CodeInvalidConfiguration, "payment asset address is required")
	}
	return s.updateConfig(ctx, "payment_asset", func(cfg *models.MintConfig) {
		cfg.PaymentAsset = asset
	})
}

// TransferAdmin hands the administrator identity (and with it the residual
// beneficiary role) to a new address. The identity is never null.
func (s *Service) TransferAdmin(ctx context.Context, admin domain.Address) error {
	if admin.IsZero() {
		return derrors.New(models.CodeInvalidConfiguration, "administrator address is required")
	}
	return s.updateConfig(ctx, "admin", func(cfg *models.MintConfig) {
		cfg.Admin = admin
	})
}

// updateConfig runs one administrator-gated configuration mutation as a
// serialized unit of work.
func (s *Service) updateConfig(ctx context.Context, field string, mutate func(*models.MintConfig)) error {
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
		mutate(&cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := s.state.SetConfig(txCtx, cfg); err != nil {
			return derrors.Wrap(err, derrors.CodeInternal, "write mint config")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "mint configuration updated", "field", field)
	return nil
}
