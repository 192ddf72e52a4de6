// Package accounts declares the account store contract used by the
// authorization service and provides PostgreSQL, Redis and in-memory
// implementations of it.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/kontur-authorization/internal/server/models"
)

// Repository persists accounts and their current refresh token.
//
// Lookups of absent accounts return common.ErrorNotFound. Backend failures
// are wrapped with common.ErrStoreUnavailable.
type Repository interface {
	// FindByID returns the account with the given id.
	FindByID(ctx context.Context, id int64) (*models.Account, error)

	// Create stores a new account without a refresh token. Creating an id
	// that already exists returns common.ErrAlreadyExists.
	Create(ctx context.Context, id int64) (*models.Account, error)

	// FindByRefreshToken returns the account whose current refresh token is
	// exactly token.
	FindByRefreshToken(ctx context.Context, token string) (*models.Account, error)

	// SetRefreshToken replaces the account's current refresh token. The
	// previous value stops matching FindByRefreshToken.
	SetRefreshToken(ctx context.Context, id int64, token string) error
}
