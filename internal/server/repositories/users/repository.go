// Package users declares and implements the credential store.
package users

import (
	"context"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

type Repository interface {
	// Create persists user and fills in its generated id, role and
	// timestamps. A duplicate email yields common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
}
