package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// SessionClaims is the payload embedded in every session token. The account
// id is the only identity carried; everything else is re-resolved from the
// store at request time.
type SessionClaims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrMissingClaims = errors.New("token payload is missing identity claims")
)

// Issuer signs and verifies session tokens. Verification is stateless:
// signature and time window only, no store lookups.
type Issuer struct {
	secret    []byte
	issuer    string
	expiresIn time.Duration
}

// NewIssuer creates a new Issuer instance.
func NewIssuer(secret, issuer string, expiresIn time.Duration) Issuer {
	return Issuer{
		secret:    []byte(secret),
		issuer:    issuer,
		expiresIn: expiresIn,
	}
}

// Issue signs a session token for the given account id.
func (i Issuer) Issue(accountID string) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.issuer,
			Audience:  jwt.ClaimStrings{i.issuer},
			Subject:   accountID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiresIn)),
		},
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
}

// Verify validates a raw token string and returns its claims.
func (i Issuer) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	parsed, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}

		return i.secret, nil
	},
		jwt.WithExpirationRequired(),
		jwt.WithAudience(i.issuer),
		jwt.WithIssuer(i.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, err
	}

	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	if claims.AccountID == "" {
		return nil, ErrMissingClaims
	}

	return claims, nil
}
