package models

import (
	"errors"
	"fmt"

	derrors "sigil/pkg/domain-errors"
)

// Mint module error codes. Every failure of a mutating entry point surfaces
// as exactly one of these (or a generic code from pkg/domain-errors), and the
// whole operation rolls back.
const (
	// CodeSupplyExceeded: token ID outside [1, MaxSupply].
	CodeSupplyExceeded derrors.Code = "supply_exceeded"
	// CodeAlreadyMinted: token ID was minted before, possibly burned since.
	CodeAlreadyMinted derrors.Code = "already_minted"
	// CodeBelowMinimum: declared total under the configured floor.
	CodeBelowMinimum derrors.Code = "below_minimum"
	// CodePaymentFailed: the payment distribution aborted; the cause is one
	// of the distribution errors below.
	CodePaymentFailed derrors.Code = "payment_failed"
	// CodeTransferBlocked: holder transfer attempted while the token is
	// locked.
	CodeTransferBlocked derrors.Code = "transfer_blocked"
	// CodeAlreadyUnlocked: unlock-and-transfer on a token that is not
	// locked.
	CodeAlreadyUnlocked derrors.Code = "already_unlocked"
	// CodeReentrant: a mutating entry point was invoked while another was in
	// flight.
	CodeReentrant derrors.Code = "reentrant"
	// CodeInvalidConfiguration: zero value supplied where a real one is
	// required.
	CodeInvalidConfiguration derrors.Code = "invalid_configuration"
)

// ErrAmountsExceedTotal is returned by the distribution engine before any
// transfer is issued when the commission amounts sum past the declared total.
var ErrAmountsExceedTotal = errors.New("commission amounts exceed declared total")

// ErrResidualTransferFailed wraps a failure moving the residual to the
// beneficiary.
var ErrResidualTransferFailed = errors.New("residual transfer failed")

// TransferFailedError reports which commission transfer aborted the
// distribution.
type TransferFailedError struct {
	Index int
	Err   error
}

func (e *TransferFailedError) Error() string {
	return fmt.Sprintf("commission transfer %d failed: %v", e.Index, e.Err)
}

func (e *TransferFailedError) Unwrap() error {
	return e.Err
}
