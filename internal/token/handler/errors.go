package handler

import (
	"net/http"

	"sigil/internal/token/models"
	derrors "sigil/pkg/domain-errors"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeError translates a domain error code into an HTTP status and a JSON
// error envelope. Unknown errors surface as 500 without leaking internals.
func writeError(w http.ResponseWriter, err error) {
	code := derrors.CodeOf(err)

	var status int
	switch code {
	case derrors.CodeBadRequest, derrors.CodeValidation, models.CodeInvalidConfiguration:
		status = http.StatusBadRequest
	case derrors.CodeUnauthorized:
		status = http.StatusUnauthorized
	case derrors.CodeForbidden:
		status = http.StatusForbidden
	case derrors.CodeNotFound:
		status = http.StatusNotFound
	case models.CodePaymentFailed:
		status = http.StatusPaymentRequired
	case derrors.CodeConflict, models.CodeAlreadyMinted, models.CodeAlreadyUnlocked,
		models.CodeTransferBlocked, models.CodeReentrant:
		status = http.StatusConflict
	case models.CodeSupplyExceeded, models.CodeBelowMinimum:
		status = http.StatusUnprocessableEntity
	case derrors.CodeTimeout:
		status = http.StatusGatewayTimeout
	default:
		status = http.StatusInternalServerError
	}

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = "internal error"
	}
	writeJSON(w, status, errorResponse{Code: string(code), Message: message})
}
