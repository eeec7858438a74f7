// Package models holds the mint module's domain types: the mint
// configuration, the error taxonomy, request/response shapes, and the events
// emitted on state changes.
package models

import (
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

// MintConfig is the process-wide, administrator-mutable mint configuration.
//
// Invariants:
//   - MaxSupply > 0 (upper bound on valid token IDs)
//   - PaymentAsset and Admin are never the zero address during normal
//     operation
//   - Read by value at the start of each operation so a concurrent setter can
//     never produce a mid-operation inconsistency
type MintConfig struct {
	// MaxSupply bounds valid token IDs: 1 <= ID <= MaxSupply.
	MaxSupply uint64 `json:"max_supply"`
	// MinMintAmount is the minimum accepted declared total, in the smallest
	// unit of the payment asset. Zero disables the floor.
	MinMintAmount uint64 `json:"min_mint_amount"`
	// PaymentAsset identifies the fungible payment capability in use.
	PaymentAsset domain.Address `json:"payment_asset"`
	// Admin is the administrator identity: the residual beneficiary and the
	// only caller allowed on mutating entry points other than holder
	// transfers.
	Admin domain.Address `json:"admin"`
}

// Validate rejects configurations that could never admit a valid mint.
func (c MintConfig) Validate() error {
	if c.MaxSupply == 0 {
		return derrors.New(CodeInvalidConfiguration, "max supply must be positive")
	}
	if c.PaymentAsset.IsZero() {
		return derrors.New(CodeInvalidConfiguration, "payment asset address is required")
	}
	if c.Admin.IsZero() {
		return derrors.New(CodeInvalidConfiguration, "administrator address is required")
	}
	return nil
}

// TokenStatus is the read-only view of one token ID: live ownership from the
// ledger joined with the controller-owned lock and minted flags. A burned
// token reports Minted=true with no owner.
type TokenStatus struct {
	ID     domain.TokenID `json:"id"`
	Minted bool           `json:"minted"`
	Live   bool           `json:"live"`
	Owner  domain.Address `json:"owner,omitempty"`
	URI    string         `json:"uri,omitempty"`
	Locked bool           `json:"locked"`
}

// Stats is the aggregate read-only surface.
type Stats struct {
	TotalMinted uint64 `json:"total_minted"`
	MaxSupply   uint64 `json:"max_supply"`
}
