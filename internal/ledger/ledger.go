// Package ledger defines the capability interfaces the mint controller calls
// into: the non-fungible ownership/metadata store and the fungible payment
// transfer primitive. Implementations own no business logic; uniqueness of a
// created ID and per-call atomicity are the only guarantees the controller
// relies on.
package ledger

import (
	"context"

	"sigil/pkg/domain"
)

// Token is the ownership-side record of a certificate: who holds it and where
// its metadata lives. Lock and minted state are owned by the mint controller,
// not the ledger.
type Token struct {
	ID    domain.TokenID `json:"id"`
	Owner domain.Address `json:"owner"`
	URI   string         `json:"uri"`
}

// OwnershipStore is the non-fungible ownership/metadata capability.
// Implementations return sentinel errors (ErrNotFound, ErrConflict,
// ErrInvalidState) which the service translates into coded domain errors.
type OwnershipStore interface {
	// Create records a new token. Fails with ErrConflict when the ID is
	// already live.
	Create(ctx context.Context, token *Token) error
	// Get returns the live token or ErrNotFound.
	Get(ctx context.Context, id domain.TokenID) (*Token, error)
	// Transfer moves ownership, verifying the current holder first.
	// ErrInvalidState when from is not the holder.
	Transfer(ctx context.Context, id domain.TokenID, from, to domain.Address) error
	// SetOwner reassigns ownership unconditionally (administrative path).
	SetOwner(ctx context.Context, id domain.TokenID, owner domain.Address) error
	// SetURI replaces the metadata URI (administrative plumbing).
	SetURI(ctx context.Context, id domain.TokenID, uri string) error
	// Burn removes the token from the live set. ErrNotFound when absent.
	Burn(ctx context.Context, id domain.TokenID) error
	// List enumerates live tokens in ID order.
	List(ctx context.Context) ([]*Token, error)
}

// PaymentLedger is the fungible payment capability. TransferFrom debits the
// owner conditional on a prior allowance granted to the operator; every call
// is atomic on its own, and whole-operation atomicity comes from the
// surrounding unit of work.
type PaymentLedger interface {
	// TransferFrom moves amount from owner to recipient, consuming
	// allowance. ErrInsufficientFunds / ErrInsufficientAllowance on
	// shortfall.
	TransferFrom(ctx context.Context, owner, recipient domain.Address, amount uint64) error
	// Approve sets the operator allowance for owner's funds.
	Approve(ctx context.Context, owner domain.Address, amount uint64) error
	// Credit adds funds to an account (administrative funding).
	Credit(ctx context.Context, addr domain.Address, amount uint64) error
	// BalanceOf returns the current balance; absent accounts hold zero.
	BalanceOf(ctx context.Context, addr domain.Address) (uint64, error)
	// AllowanceOf returns the remaining operator allowance for owner.
	AllowanceOf(ctx context.Context, owner domain.Address) (uint64, error)
}
