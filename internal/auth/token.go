package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// resetTokenTTL matches the OTP expiry window: a verified OTP buys the
// user one hour to complete the reset.
const resetTokenTTL = time.Hour

// TokenService issues and validates password-reset tokens.
//
// When an OTP is verified, the server hands the client a signed token
// instead of echoing the raw code back; /auth/reset-password only accepts
// a token that passes signature and expiry checks. The token is HS256 —
// one symmetric secret signs and verifies, which is all a single-server
// deployment needs.
type TokenService struct {
	secret []byte
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: token secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret)}, nil
}

// resetClaims is the token payload. Subject carries the account email the
// reset was authorized for.
type resetClaims struct {
	jwt.RegisteredClaims
}

// GenerateReset creates a signed reset token for the given email.
func (s *TokenService) GenerateReset(email string) (string, error) {
	now := time.Now()

	c := resetClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(resetTokenTTL)),
			Issuer:    "excel-finder",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing reset token: %w", err)
	}
	return signed, nil
}

// ValidateReset verifies a reset token and returns the email it was
// issued for. Expired, tampered, or foreign-algorithm tokens fail.
func (s *TokenService) ValidateReset(tokenStr string) (string, error) {
	var c resetClaims

	token, err := jwt.ParseWithClaims(tokenStr, &c, func(t *jwt.Token) (any, error) {
		// Reject any algorithm other than the one we sign with.
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("auth: parsing reset token: %w", err)
	}
	if !token.Valid || c.Subject == "" {
		return "", errors.New("auth: invalid reset token")
	}
	return c.Subject, nil
}
