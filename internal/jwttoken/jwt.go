// Package jwttoken issues and validates the bearer tokens callers present to
// the HTTP API. The subject claim carries the caller's ledger address.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"sigil/pkg/domain"
	derrors "sigil/pkg/domain-errors"
)

// Claims are the JWT claims for access tokens. Address duplicates the
// registered subject for explicitness.
type Claims struct {
	Address string `json:"address"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
}

func NewService(signingKey string, issuer string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     issuer,
	}
}

// GenerateToken issues a signed token for the given caller address.
func (s *Service) GenerateToken(addr domain.Address, expiresIn time.Duration) (string, error) {
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: addr.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   addr.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})

	signedToken, err := newToken.SignedString(s.signingKey)
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// ValidateToken parses and verifies a token, returning the caller address.
func (s *Service) ValidateToken(tokenString string) (domain.Address, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.ZeroAddress, derrors.New(derrors.CodeUnauthorized, "token has expired")
		}
		return domain.ZeroAddress, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return domain.ZeroAddress, derrors.New(derrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return domain.ZeroAddress, derrors.New(derrors.CodeUnauthorized, "invalid token claims")
	}

	addr := domain.NewAddress(claims.Address)
	if addr.IsZero() {
		return domain.ZeroAddress, derrors.New(derrors.CodeUnauthorized, "token carries no address")
	}
	return addr, nil
}
