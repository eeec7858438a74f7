// Package domain defines the primitive identifier types shared across
// modules. These are domain primitives: validity is enforced at parse time so
// services never see a malformed ID.
package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// TokenID identifies a certificate token. Valid IDs are positive integers;
// zero is the sentinel for "no token".
type TokenID uint64

// ParseTokenID validates and returns a TokenID from its decimal string form.
func ParseTokenID(s string) (TokenID, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid token ID %q: %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("token ID must be positive")
	}
	return TokenID(n), nil
}

// String returns the decimal representation of the token ID.
func (t TokenID) String() string {
	return strconv.FormatUint(uint64(t), 10)
}

// IsNil returns true for the zero token ID.
func (t TokenID) IsNil() bool {
	return t == 0
}

// Address identifies a party on either side of the ledger: buyers, commission
// recipients, the administrator, or the payment asset itself. Addresses are
// case-insensitive and stored lowercased.
type Address string

// ZeroAddress is the null address. Operations that require a real party
// reject it.
const ZeroAddress Address = ""

// NewAddress normalizes an address string.
func NewAddress(s string) Address {
	return Address(strings.ToLower(strings.TrimSpace(s)))
}

// String returns the normalized string form.
func (a Address) String() string {
	return string(a)
}

// IsZero reports whether the address is the null address.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}
