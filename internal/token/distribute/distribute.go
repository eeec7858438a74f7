// Package distribute implements the payment distribution engine: moving a
// buyer's declared total to commission recipients and the residual
// beneficiary, all-or-nothing.
//
// The engine holds no state. Each transferFrom is atomic on its own; the
// caller wraps the whole distribution in one unit of work, so a failure at
// any step leaves no observable balance change.
package distribute

import (
	"context"
	"fmt"

	"sigil/internal/ledger"
	"sigil/internal/token/models"
	"sigil/pkg/domain"
)

// Engine distributes mint payments over a fungible payment ledger.
type Engine struct {
	payments ledger.PaymentLedger
}

// New creates a distribution engine over the given payment capability.
func New(payments ledger.PaymentLedger) *Engine {
	return &Engine{payments: payments}
}

// Distribute moves each commission amount from payer to its recipient in
// order, then the remainder of declaredTotal to residualBeneficiary.
//
// The amounts are summed and checked against declaredTotal before any
// transfer is issued: an oversubscribed split fails with
// models.ErrAmountsExceedTotal with no ledger interaction at all. A failed
// commission transfer surfaces as *models.TransferFailedError carrying the
// failing index; a failed residual transfer wraps
// models.ErrResidualTransferFailed.
//
// Postcondition on success: payer's balance decreased by exactly
// declaredTotal, split across the recipients and the beneficiary.
func (e *Engine) Distribute(
	ctx context.Context,
	payer domain.Address,
	commissions []models.Commission,
	declaredTotal uint64,
	residualBeneficiary domain.Address,
) error {
	var sum uint64
	for _, c := range commissions {
		next := sum + c.Amount
		if next < sum { // uint64 overflow counts as exceeding any total
			return models.ErrAmountsExceedTotal
		}
		sum = next
	}
	if sum > declaredTotal {
		return models.ErrAmountsExceedTotal
	}

	for i, c := range commissions {
		if c.Amount == 0 {
			continue
		}
		if err := e.payments.TransferFrom(ctx, payer, c.Recipient, c.Amount); err != nil {
			return &models.TransferFailedError{Index: i, Err: err}
		}
	}

	if residual := declaredTotal - sum; residual > 0 {
		if err := e.payments.TransferFrom(ctx, payer, residualBeneficiary, residual); err != nil {
			return fmt.Errorf("%w: %w", models.ErrResidualTransferFailed, err)
		}
	}
	return nil
}
