// Package derrors provides coded domain errors.
//
// Services attach a Code to every failure so transports can translate errors
// into protocol responses without string matching, and callers can branch on
// the condition with HasCode. Infrastructure layers return sentinel errors
// (pkg/platform/sentinel) instead; services translate those into coded
// errors at the boundary.
package derrors

import (
	"errors"
	"fmt"
)

// Code names a distinct failure condition.
type Code string

// Generic codes shared by every module. Domain modules declare their own
// codes (see internal/token/models) on top of these.
const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeTimeout      Code = "timeout"
	CodeInternal     Code = "internal"
)

// DomainError carries a failure condition code, a human-readable message, and
// an optional cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the cause for errors.Is / errors.As chains.
func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a coded error with no cause.
func New(code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) *DomainError {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying cause.
func Wrap(err error, code Code, message string) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err}
}

// HasCode reports whether any error in err's chain carries the given code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *DomainError
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is an alias for HasCode, reading naturally at call sites:
// derrors.Is(err, derrors.CodeNotFound).
func Is(err error, code Code) bool {
	return HasCode(err, code)
}

// CodeOf returns the outermost code in err's chain, or CodeInternal when the
// error carries none.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}
