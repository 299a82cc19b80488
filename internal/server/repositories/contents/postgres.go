package contents

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
)

const contentColumns = `c.id, c.scene_id, c.content_type, c.file_url, c.file_name, c.file_size, c.text_content,
		 c.position_x, c.position_y, c.position_z, c.rotation_x, c.rotation_y, c.rotation_z,
		 c.scale, c.config, c.created_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanContent(row scanner) (models.Content, error) {
	var (
		c      models.Content
		config []byte
	)
	err := row.Scan(&c.ID, &c.SceneID, &c.ContentType, &c.FileURL, &c.FileName, &c.FileSize, &c.TextContent,
		&c.PositionX, &c.PositionY, &c.PositionZ, &c.RotationX, &c.RotationY, &c.RotationZ,
		&c.Scale, &config, &c.CreatedAt)
	if len(config) > 0 {
		c.Config = config
	}
	return c, err
}

func (r *PostgresRepository) list(ctx context.Context, query string, arg string) ([]models.Content, error) {
	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	items := make([]models.Content, 0)
	for rows.Next() {
		c, err := scanContent(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return items, nil
}

func (r *PostgresRepository) ListByScene(ctx context.Context, sceneID string) ([]models.Content, error) {
	query := `SELECT ` + contentColumns + `
		 FROM contents c
		 WHERE c.scene_id = $1
		 ORDER BY c.created_at
		 `
	return r.list(ctx, query, sceneID)
}

func (r *PostgresRepository) ListByProject(ctx context.Context, projectID string) ([]models.Content, error) {
	query := `SELECT ` + contentColumns + `
		 FROM contents c
		 JOIN scenes s ON s.id = c.scene_id
		 WHERE s.project_id = $1
		 ORDER BY c.created_at
		 `
	return r.list(ctx, query, projectID)
}

func (r *PostgresRepository) Create(ctx context.Context, sceneID string, in models.ContentInput) (*models.Content, error) {
	query := `INSERT INTO contents AS c (scene_id, content_type, file_url, file_name, file_size, text_content,
		     position_x, position_y, position_z, rotation_x, rotation_y, rotation_z, scale, config)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14::jsonb)
		 RETURNING ` + contentColumns

	var config any
	if len(in.Config) > 0 {
		config = string(in.Config)
	}

	t := in.Transform
	c, err := scanContent(r.db.QueryRowContext(ctx, query,
		sceneID, string(in.ContentType), in.FileURL, in.FileName, in.FileSize, in.TextContent,
		t.PositionX, t.PositionY, t.PositionZ, t.RotationX, t.RotationY, t.RotationZ, t.Scale, config))
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &c, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, id, sceneID string) error {
	query := `DELETE FROM contents WHERE id = $1 AND scene_id = $2`

	res, err := r.db.ExecContext(ctx, query, id, sceneID)
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
