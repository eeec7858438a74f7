package models

import (
	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

// Commission is one (recipient, amount) pair of a mint payment split.
type Commission struct {
	Recipient domain.Address `json:"recipient"`
	Amount    uint64         `json:"amount"`
}

// MintRequest is the payload for the payment-splitting mint.
type MintRequest struct {
	Buyer         domain.Address `json:"buyer"`
	TokenID       domain.TokenID `json:"token_id"`
	Commissions   []Commission   `json:"commissions"`
	URI           string         `json:"uri"`
	DeclaredTotal uint64         `json:"declared_total"`
}

// Validate checks structural validity. Supply, registry, and minimum-payment
// invariants are the service's responsibility.
func (r MintRequest) Validate() error {
	if r.Buyer.IsZero() {
		return derrors.New(derrors.CodeValidation, "buyer address is required")
	}
	if r.TokenID.IsNil() {
		return derrors.New(derrors.CodeValidation, "token ID must be positive")
	}
	for i, c := range r.Commissions {
		if c.Recipient.IsZero() {
			return derrors.Newf(derrors.CodeValidation, "commission %d: recipient address is required", i)
		}
	}
	return nil
}

// DirectMintRequest is the payload for the privileged and gift mint paths:
// no payment movement.
type DirectMintRequest struct {
	To      domain.Address `json:"to"`
	TokenID domain.TokenID `json:"token_id"`
	URI     string         `json:"uri"`
}

func (r DirectMintRequest) Validate() error {
	if r.To.IsZero() {
		return derrors.New(derrors.CodeValidation, "recipient address is required")
	}
	if r.TokenID.IsNil() {
		return derrors.New(derrors.CodeValidation, "token ID must be positive")
	}
	return nil
}

// TransferRequest is the holder-initiated ownership transfer payload.
type TransferRequest struct {
	From domain.Address `json:"from"`
	To   domain.Address `json:"to"`
}

func (r TransferRequest) Validate() error {
	if r.From.IsZero() || r.To.IsZero() {
		return derrors.New(derrors.CodeValidation, "from and to addresses are required")
	}
	return nil
}

// UnlockTransferRequest is the payload for the one-shot unlock-and-transfer.
type UnlockTransferRequest struct {
	To domain.Address `json:"to"`
}

func (r UnlockTransferRequest) Validate() error {
	if r.To.IsZero() {
		return derrors.New(derrors.CodeValidation, "to address is required")
	}
	return nil
}

// SetLockRequest is the administrative lock override payload.
type SetLockRequest struct {
	Locked bool `json:"locked"`
}
