// Package scenes declares and implements the scene store.
package scenes

import (
	"context"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

type Repository interface {
	// ListByProject returns the project's scenes newest first.
	ListByProject(ctx context.Context, projectID string) ([]models.Scene, error)
	// GetWithOwner loads the scene together with its parent project's name
	// and owner.
	GetWithOwner(ctx context.Context, id string) (*models.SceneOwner, error)
	// GetActive returns the scene only while it is active. Inactive and
	// missing scenes both yield common.ErrorNotFound.
	GetActive(ctx context.Context, id string) (*models.Scene, error)
	Create(ctx context.Context, scene *models.Scene) (*models.Scene, error)
	Update(ctx context.Context, id string, patch models.ScenePatch) (*models.Scene, error)
	// ToggleActive flips is_active in a single statement.
	ToggleActive(ctx context.Context, id string) (*models.Scene, error)
	Delete(ctx context.Context, id string) error
	// IncrementViewCount adds one to view_count in a single statement and
	// returns the new value.
	IncrementViewCount(ctx context.Context, id string) (int64, error)
}
