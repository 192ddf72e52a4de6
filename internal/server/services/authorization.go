// Package services contains server-side business logic. This file implements
// AuthorizationService, which issues, verifies and rotates token pairs for
// the standard and Telegram token families.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/kontur-authorization/internal/common"
	"github.com/dmitrijs2005/kontur-authorization/internal/logging"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/auth"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/config"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/models"
	"github.com/dmitrijs2005/kontur-authorization/internal/server/repositories/accounts"
)

// Family selects the issuance policy. Families differ only in refresh token
// lifetime.
type Family int

const (
	FamilyStandard Family = iota
	FamilyTelegram
)

func (f Family) String() string {
	switch f {
	case FamilyStandard:
		return "standard"
	case FamilyTelegram:
		return "telegram"
	default:
		return fmt.Sprintf("family(%d)", int(f))
	}
}

// TokenPair bundles an access token and a refresh token issued together.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// TokenCodec turns claim sets into signed tokens and back.
type TokenCodec interface {
	Encode(claims auth.ClaimSet) (string, error)
	Decode(token string) (auth.ClaimSet, error)
}

// Authorizer is the contract transports depend on.
type Authorizer interface {
	IssueStandard(ctx context.Context, accountID int64, twoFAStatus bool, role string) (*TokenPair, error)
	IssueTelegram(ctx context.Context, accountID int64, twoFAStatus bool, role string) (*TokenPair, error)
	Verify(ctx context.Context, token string) (auth.ClaimSet, error)
	VerifyAccess(ctx context.Context, token string) (auth.ClaimSet, error)
	Refresh(ctx context.Context, refreshToken string, family Family) (*TokenPair, error)
}

// AuthorizationService binds account state to token issuance and rotation.
// It keeps no state between calls; the account store holds the single
// current refresh token of every account.
type AuthorizationService struct {
	accounts                     accounts.Repository
	codec                        TokenCodec
	logger                       logging.Logger
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration map[Family]time.Duration
	now                          func() time.Time
}

// NewAuthorizationService constructs the service from its collaborators and
// the token lifetimes in cfg.
func NewAuthorizationService(repo accounts.Repository, codec TokenCodec, cfg *config.Config, logger logging.Logger) *AuthorizationService {
	return &AuthorizationService{
		accounts:                    repo,
		codec:                       codec,
		logger:                      logger.With("module", "authorization_service"),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: map[Family]time.Duration{
			FamilyStandard: cfg.RefreshTokenValidityDuration,
			FamilyTelegram: cfg.TelegramRefreshTokenValidityDuration,
		},
		now: time.Now,
	}
}

// IssueStandard issues a token pair under the standard web policy,
// creating the account on first use.
func (s *AuthorizationService) IssueStandard(ctx context.Context, accountID int64, twoFAStatus bool, role string) (*TokenPair, error) {
	return s.issue(ctx, FamilyStandard, accountID, twoFAStatus, role)
}

// IssueTelegram is IssueStandard with the long-lived Telegram refresh token.
func (s *AuthorizationService) IssueTelegram(ctx context.Context, accountID int64, twoFAStatus bool, role string) (*TokenPair, error) {
	return s.issue(ctx, FamilyTelegram, accountID, twoFAStatus, role)
}

// Verify checks signature and expiry of any token this service issued.
func (s *AuthorizationService) Verify(ctx context.Context, token string) (auth.ClaimSet, error) {
	return s.codec.Decode(token)
}

// VerifyAccess is Verify restricted to access tokens.
func (s *AuthorizationService) VerifyAccess(ctx context.Context, token string) (auth.ClaimSet, error) {
	claims, err := s.Verify(ctx, token)
	if err != nil {
		return auth.ClaimSet{}, err
	}
	if claims.Kind != auth.KindAccess {
		return auth.ClaimSet{}, common.ErrTokenKindMismatch
	}
	return claims, nil
}

// Refresh exchanges the account's current refresh token for a new pair
// issued under family's policy. A superseded token fails with
// common.ErrAccountNotFound even if it is still cryptographically valid.
func (s *AuthorizationService) Refresh(ctx context.Context, refreshToken string, family Family) (*TokenPair, error) {
	if _, ok := s.refreshTokenValidityDuration[family]; !ok {
		return nil, common.ErrUnknownFamily
	}

	if _, err := s.accounts.FindByRefreshToken(ctx, refreshToken); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Info(ctx, "account not found by refresh token", "family", family.String())
			refreshRejected.WithLabelValues(family.String(), "account_not_found").Inc()
			return nil, common.ErrAccountNotFound
		}
		return nil, fmt.Errorf("error searching account by refresh token: %w", err)
	}

	claims, err := s.Verify(ctx, refreshToken)
	if err != nil {
		reason := "invalid"
		if errors.Is(err, common.ErrTokenExpired) {
			reason = "expired"
		}
		s.logger.Info(ctx, "refresh token rejected", "family", family.String(), "reason", reason)
		refreshRejected.WithLabelValues(family.String(), reason).Inc()
		return nil, err
	}
	if claims.Kind != auth.KindRefresh {
		refreshRejected.WithLabelValues(family.String(), "kind_mismatch").Inc()
		return nil, common.ErrTokenKindMismatch
	}

	return s.issue(ctx, family, claims.AccountID, claims.TwoFAStatus, claims.Role)
}

func (s *AuthorizationService) issue(ctx context.Context, family Family, accountID int64, twoFAStatus bool, role string) (*TokenPair, error) {
	refreshTTL, ok := s.refreshTokenValidityDuration[family]
	if !ok {
		return nil, common.ErrUnknownFamily
	}

	account, err := s.provision(ctx, accountID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	accessClaims := auth.NewClaimSet(auth.KindAccess, account.ID, twoFAStatus, role, now, s.accessTokenValidityDuration)
	refreshClaims := auth.NewClaimSet(auth.KindRefresh, account.ID, twoFAStatus, role, now, refreshTTL)

	accessToken, err := s.codec.Encode(accessClaims)
	if err != nil {
		return nil, fmt.Errorf("error generating access token: %w", err)
	}
	refreshToken, err := s.codec.Encode(refreshClaims)
	if err != nil {
		return nil, fmt.Errorf("error generating refresh token: %w", err)
	}

	if err := s.accounts.SetRefreshToken(ctx, account.ID, refreshToken); err != nil {
		return nil, fmt.Errorf("error saving refresh token: %w", err)
	}

	tokensIssued.WithLabelValues(family.String()).Inc()

	return &TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		AccessExpiresAt:  accessClaims.ExpiresAt,
		RefreshExpiresAt: refreshClaims.ExpiresAt,
	}, nil
}

// provision returns the account, creating it on first login.
func (s *AuthorizationService) provision(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err == nil {
		return account, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching account: %w", err)
	}

	s.logger.Info(ctx, "account not found, creating", "account_id", accountID)
	if _, err := s.accounts.Create(ctx, accountID); err != nil && !errors.Is(err, common.ErrAlreadyExists) {
		return nil, fmt.Errorf("error creating account: %w", err)
	}

	account, err = s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("error searching account: %w", err)
	}
	return account, nil
}
