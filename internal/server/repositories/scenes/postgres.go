package scenes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
)

const sceneColumns = `id, name, project_id, is_active, trigger_image_url, trigger_image_key,
		 trigger_compiled, trigger_mind_file, view_count, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInto(row scanner, s *models.Scene, extra ...any) error {
	dest := []any{
		&s.ID, &s.Name, &s.ProjectID, &s.IsActive, &s.TriggerImageURL, &s.TriggerImageKey,
		&s.TriggerCompiled, &s.TriggerMindFile, &s.ViewCount, &s.CreatedAt, &s.UpdatedAt,
	}
	return row.Scan(append(dest, extra...)...)
}

func scanOne(row *sql.Row) (*models.Scene, error) {
	s := &models.Scene{}
	if err := scanInto(row, s); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]models.Scene, error) {
	query := `SELECT ` + sceneColumns + `
		 FROM scenes
		 WHERE project_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	scenes := make([]models.Scene, 0)
	for rows.Next() {
		var s models.Scene
		if err := scanInto(rows, &s); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		scenes = append(scenes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return scenes, nil
}

func (r *PostgresRepository) GetWithOwner(ctx context.Context, id string) (*models.SceneOwner, error) {
	query := `SELECT s.id, s.name, s.project_id, s.is_active, s.trigger_image_url, s.trigger_image_key,
		        s.trigger_compiled, s.trigger_mind_file, s.view_count, s.created_at, s.updated_at,
		        p.name, p.user_id
		 FROM scenes s
		 JOIN projects p ON p.id = s.project_id
		 WHERE s.id = $1
		 `

	so := &models.SceneOwner{}
	if err := scanInto(r.db.QueryRowContext(ctx, query, id), &so.Scene, &so.ProjectName, &so.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return so, nil
}

func (r *PostgresRepository) GetActive(ctx context.Context, id string) (*models.Scene, error) {
	query := `SELECT ` + sceneColumns + `
		 FROM scenes
		 WHERE id = $1 AND is_active
		 `
	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Create(ctx context.Context, scene *models.Scene) (*models.Scene, error) {
	query := `INSERT INTO scenes (name, project_id)
		 VALUES ($1, $2)
		 RETURNING ` + sceneColumns

	return scanOne(r.db.QueryRowContext(ctx, query, scene.Name, scene.ProjectID))
}

// Update writes only the fields present in patch. An empty patch still
// returns the current row.
func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.ScenePatch) (*models.Scene, error) {
	sets := make([]string, 0, 7)
	args := []any{id}

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Name != nil {
		add("name", *patch.Name)
	}
	if patch.IsActive != nil {
		add("is_active", *patch.IsActive)
	}
	if patch.TriggerImageURL.Set {
		add("trigger_image_url", patch.TriggerImageURL.Value)
	}
	if patch.TriggerImageKey.Set {
		add("trigger_image_key", patch.TriggerImageKey.Value)
	}
	if patch.TriggerCompiled != nil {
		add("trigger_compiled", *patch.TriggerCompiled)
	}
	if patch.TriggerMindFile.Set {
		add("trigger_mind_file", patch.TriggerMindFile.Value)
	}
	sets = append(sets, "updated_at = now()")

	query := `UPDATE scenes SET ` + strings.Join(sets, ", ") + `
		 WHERE id = $1
		 RETURNING ` + sceneColumns

	return scanOne(r.db.QueryRowContext(ctx, query, args...))
}

func (r *PostgresRepository) ToggleActive(ctx context.Context, id string) (*models.Scene, error) {
	query := `UPDATE scenes SET is_active = NOT is_active, updated_at = now()
		 WHERE id = $1
		 RETURNING ` + sceneColumns

	return scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM scenes WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	query := `UPDATE scenes SET view_count = view_count + 1
		 WHERE id = $1
		 RETURNING view_count
		 `

	var count int64
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&count); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, common.ErrorNotFound
		}
		return 0, fmt.Errorf("db error: %w", err)
	}
	return count, nil
}
