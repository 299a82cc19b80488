// Package projects declares and implements the project store.
package projects

import (
	"context"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

type Repository interface {
	// ListByUser returns the user's projects newest first, each with a
	// summary of its scenes.
	ListByUser(ctx context.Context, userID string) ([]models.ProjectListItem, error)
	// GetOwned returns the project only when it exists and belongs to
	// userID; otherwise common.ErrorNotFound.
	GetOwned(ctx context.Context, id, userID string) (*models.Project, error)
	Create(ctx context.Context, project *models.Project) (*models.Project, error)
	Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error)
	// Delete removes the project; scenes and content go with it by cascade.
	Delete(ctx context.Context, id string) error
}
