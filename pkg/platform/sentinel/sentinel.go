package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and ledger implementations
// return these (optionally wrapped) so services can translate them into coded
// domain errors.
//
// These represent factual states about resources, not validation failures:
//   - ErrNotFound: entity does not exist in the store
//   - ErrConflict: entity already exists / unique constraint hit
//   - ErrInvalidState: entity in the wrong state for the requested operation
//   - ErrInsufficientFunds: payer balance cannot cover the transfer
//   - ErrInsufficientAllowance: operator allowance cannot cover the transfer
//
// For validation errors (bad input, missing fields), use pkg/domain-errors
// directly.
var (
	ErrNotFound              = errors.New("not found")
	ErrConflict              = errors.New("conflict")
	ErrInvalidState          = errors.New("invalid state")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
)
