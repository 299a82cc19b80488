// Package refreshtokens declares the server-side repository contract for
// the refresh token ledger.
package refreshtokens

import (
	"context"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

// Repository records issued refresh tokens by jti so each one can be
// exchanged at most once.
type Repository interface {
	// Create stores a ledger row for token.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns the row for jti, or common.ErrorNotFound.
	Find(ctx context.Context, jti string) (*models.RefreshToken, error)

	// Delete removes the row for jti. Deleting a missing row is not an error.
	Delete(ctx context.Context, jti string) error

	// DeleteExpired purges rows whose expiry is in the past and returns how
	// many were removed.
	DeleteExpired(ctx context.Context) (int64, error)
}
