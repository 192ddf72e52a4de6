package auth

import (
	"time"

	"github.com/google/uuid"
)

// TokenKind tells access tokens and refresh tokens apart. It is part of the
// signed payload, so a refresh token can never pass where an access token
// is required and vice versa.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

func (k TokenKind) Valid() bool {
	return k == KindAccess || k == KindRefresh
}

// ClaimSet is the payload embedded in a token.
type ClaimSet struct {
	AccountID   int64
	TwoFAStatus bool
	Role        string
	Kind        TokenKind
	// ID is a random token identifier (jti); it makes every issued token
	// unique even when all other claims coincide.
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// NewClaimSet builds claims issued at now and valid for ttl. Timestamps are
// truncated to whole seconds, the precision the token carries.
func NewClaimSet(kind TokenKind, accountID int64, twoFAStatus bool, role string, now time.Time, ttl time.Duration) ClaimSet {
	issued := now.Truncate(time.Second)
	return ClaimSet{
		AccountID:   accountID,
		TwoFAStatus: twoFAStatus,
		Role:        role,
		Kind:        kind,
		ID:          uuid.NewString(),
		IssuedAt:    issued,
		ExpiresAt:   issued.Add(ttl),
	}
}

// Expired reports whether the claims are no longer valid at now.
func (c ClaimSet) Expired(now time.Time) bool {
	return !c.ExpiresAt.After(now)
}
