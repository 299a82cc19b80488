// Package contents declares and implements the content store.
package contents

import (
	"context"

	"github.com/dmitrijs2005/arcms/internal/server/models"
)

type Repository interface {
	// ListByScene returns the scene's content oldest first.
	ListByScene(ctx context.Context, sceneID string) ([]models.Content, error)
	// ListByProject returns the content of every scene in the project,
	// oldest first. Callers group by SceneID.
	ListByProject(ctx context.Context, projectID string) ([]models.Content, error)
	Create(ctx context.Context, sceneID string, in models.ContentInput) (*models.Content, error)
	// Delete removes the item only when it belongs to sceneID.
	Delete(ctx context.Context, id, sceneID string) error
}
