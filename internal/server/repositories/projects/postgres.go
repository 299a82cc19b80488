package projects

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]models.ProjectListItem, error) {
	query :=
		`SELECT p.id, p.name, p.description, p.user_id, p.created_at, p.updated_at,
		        s.id, s.name, s.is_active, s.view_count, s.created_at
		 FROM projects p
		 LEFT JOIN scenes s ON s.project_id = p.id
		 WHERE p.user_id = $1
		 ORDER BY p.created_at DESC, p.id, s.created_at
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.ProjectListItem, 0)
	for rows.Next() {
		var (
			p models.Project

			sceneID, sceneName sql.NullString
			sceneActive        sql.NullBool
			sceneViews         sql.NullInt64
			sceneCreated       sql.NullTime
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt,
			&sceneID, &sceneName, &sceneActive, &sceneViews, &sceneCreated); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}

		if n := len(items); n == 0 || items[n-1].ID != p.ID {
			items = append(items, models.ProjectListItem{Project: p, Scenes: []models.SceneSummary{}})
		}
		if sceneID.Valid {
			last := &items[len(items)-1]
			last.Scenes = append(last.Scenes, models.SceneSummary{
				ID:        sceneID.String,
				Name:      sceneName.String,
				IsActive:  sceneActive.Bool,
				ViewCount: sceneViews.Int64,
				CreatedAt: sceneCreated.Time,
			})
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return items, nil
}

func (r *PostgresRepository) GetOwned(ctx context.Context, id, userID string) (*models.Project, error) {
	query :=
		`SELECT id, name, description, user_id, created_at, updated_at FROM projects
		 WHERE id = $1 AND user_id = $2
		 `

	return scanProject(r.db.QueryRowContext(ctx, query, id, userID))
}

func (r *PostgresRepository) Create(ctx context.Context, project *models.Project) (*models.Project, error) {
	query :=
		`INSERT INTO projects (name, description, user_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query, project.Name, project.Description, project.UserID).
		Scan(&project.ID, &project.CreatedAt, &project.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return project, nil
}

func (r *PostgresRepository) Update(ctx context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	query :=
		`UPDATE projects
		 SET name = COALESCE($2, name), description = COALESCE($3, description), updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, description, user_id, created_at, updated_at
		 `

	return scanProject(r.db.QueryRowContext(ctx, query, id, patch.Name, patch.Description))
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM projects WHERE id = $1`

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

func scanProject(row *sql.Row) (*models.Project, error) {
	p := &models.Project{}
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.UserID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
