// Package auth encodes claim sets into HS256-signed JWTs and verifies them.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// claims is the wire form of ClaimSet.
type claims struct {
	jwt.RegisteredClaims
	AccountID   int64     `json:"account_id"`
	TwoFAStatus bool      `json:"two_fa_status"`
	Role        string    `json:"role"`
	Kind        TokenKind `json:"kind"`
}

// Codec signs and verifies tokens with a single shared secret.
// It is stateless and safe for concurrent use.
type Codec struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Codec)

// WithClock replaces time.Now as the source of the current time.
func WithClock(now func() time.Time) Option {
	return func(c *Codec) { c.now = now }
}

func NewCodec(secret []byte, opts ...Option) (*Codec, error) {
	if len(secret) == 0 {
		return nil, errors.New("secret key must not be empty")
	}
	c := &Codec{secret: append([]byte(nil), secret...), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Encode signs cs. Identical claims and secret always produce the same string.
func (c *Codec) Encode(cs ClaimSet) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        cs.ID,
			IssuedAt:  numericDate(cs.IssuedAt),
			ExpiresAt: numericDate(cs.ExpiresAt),
		},
		AccountID:   cs.AccountID,
		TwoFAStatus: cs.TwoFAStatus,
		Role:        cs.Role,
		Kind:        cs.Kind,
	})

	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}

	return tokenString, nil
}

// Decode verifies the signature and expiry of tokenString and returns its
// claims. It fails with common.ErrInvalidToken for malformed or tampered
// tokens or tokens without a known kind, and common.ErrTokenExpired once exp is at or before the current time.
func (c *Codec) Decode(tokenString string) (ClaimSet, error) {
	wire := &claims{}

	token, err := jwt.ParseWithClaims(tokenString, wire, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		// a bad signature is reported before expiry, so an expired error implies a valid signature
		if errors.Is(err, jwt.ErrTokenExpired) {
			return ClaimSet{}, common.ErrTokenExpired
		}
		return ClaimSet{}, fmt.Errorf("%w: %v", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return ClaimSet{}, common.ErrInvalidToken
	}
	if !wire.Kind.Valid() {
		return ClaimSet{}, fmt.Errorf("%w: unknown token kind %q", common.ErrInvalidToken, wire.Kind)
	}

	cs := ClaimSet{
		AccountID:   wire.AccountID,
		TwoFAStatus: wire.TwoFAStatus,
		Role:        wire.Role,
		Kind:        wire.Kind,
		ID:          wire.ID,
		ExpiresAt:   wire.ExpiresAt.Time,
	}
	if wire.IssuedAt != nil {
		cs.IssuedAt = wire.IssuedAt.Time
	}

	// jwt treats exp == now as still valid
	if cs.Expired(c.now()) {
		return ClaimSet{}, common.ErrTokenExpired
	}

	return cs, nil
}

func numericDate(t time.Time) *jwt.NumericDate {
	if t.IsZero() {
		return nil
	}
	return jwt.NewNumericDate(t)
}
