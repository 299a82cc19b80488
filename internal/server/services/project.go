package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/repomanager"
)

const (
	maxNameLength        = 100
	maxDescriptionLength = 1000
)

var readOnly = &sql.TxOptions{ReadOnly: true}

// ProjectService manages a user's projects. A project owned by someone else
// is reported exactly like a missing one.
type ProjectService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewProjectService(db *sql.DB, m repomanager.RepositoryManager) *ProjectService {
	return &ProjectService{db: db, repomanager: m}
}

func (s *ProjectService) GetAllProjects(ctx context.Context, userID string) ([]models.ProjectListItem, error) {
	items, err := s.repomanager.Projects(s.db).ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	return items, nil
}

func (s *ProjectService) GetProjectByID(ctx context.Context, id, userID string) (*models.ProjectDetail, error) {
	var detail *models.ProjectDetail
	err := dbx.WithTx(ctx, s.db, readOnly, func(ctx context.Context, tx dbx.DBTX) error {
		p, err := s.getOwned(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		detail, err = s.loadDetail(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

func (s *ProjectService) CreateProject(ctx context.Context, userID string, in models.ProjectInput) (*models.ProjectDetail, error) {
	if err := validateProject(&in.Name, in.Description); err != nil {
		return nil, err
	}

	p, err := s.repomanager.Projects(s.db).Create(ctx, &models.Project{
		Name:        in.Name,
		Description: in.Description,
		UserID:      userID,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}
	return &models.ProjectDetail{Project: *p, Scenes: []models.SceneWithContent{}}, nil
}

func (s *ProjectService) UpdateProject(ctx context.Context, id, userID string, patch models.ProjectPatch) (*models.ProjectDetail, error) {
	if err := validateProject(patch.Name, patch.Description); err != nil {
		return nil, err
	}

	var detail *models.ProjectDetail
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.getOwned(ctx, tx, id, userID); err != nil {
			return err
		}
		p, err := s.repomanager.Projects(tx).Update(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("error updating project: %w", err)
		}
		detail, err = s.loadDetail(ctx, tx, p)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteProject removes the project; its scenes and their content are
// removed by the store's cascades.
func (s *ProjectService) DeleteProject(ctx context.Context, id, userID string) (*models.Result, error) {
	if _, err := s.getOwned(ctx, s.db, id, userID); err != nil {
		return nil, err
	}
	if err := s.repomanager.Projects(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, projectNotFound()
		}
		return nil, fmt.Errorf("error deleting project: %w", err)
	}
	return &models.Result{Success: true, Message: "Project deleted successfully"}, nil
}

func (s *ProjectService) GetProjectStats(ctx context.Context, id, userID string) (*models.ProjectStats, error) {
	p, err := s.GetProjectByID(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return p.Stats(), nil
}

// --- helpers below ---

func projectNotFound() error {
	return common.WithMessage(common.ErrorNotFound, "Project not found")
}

func (s *ProjectService) getOwned(ctx context.Context, db dbx.DBTX, id, userID string) (*models.Project, error) {
	p, err := s.repomanager.Projects(db).GetOwned(ctx, id, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, projectNotFound()
		}
		return nil, fmt.Errorf("error loading project: %w", err)
	}
	return p, nil
}

// loadDetail attaches scenes (newest first) and each scene's content
// summaries to p.
func (s *ProjectService) loadDetail(ctx context.Context, db dbx.DBTX, p *models.Project) (*models.ProjectDetail, error) {
	scenes, err := s.repomanager.Scenes(db).ListByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing scenes: %w", err)
	}
	items, err := s.repomanager.Contents(db).ListByProject(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing content: %w", err)
	}

	return &models.ProjectDetail{Project: *p, Scenes: withContentSummaries(scenes, items)}, nil
}

func withContentSummaries(scenes []models.Scene, items []models.Content) []models.SceneWithContent {
	byScene := make(map[string][]models.ContentSummary, len(scenes))
	for i := range items {
		byScene[items[i].SceneID] = append(byScene[items[i].SceneID], items[i].Summary())
	}

	out := make([]models.SceneWithContent, 0, len(scenes))
	for _, sc := range scenes {
		content := byScene[sc.ID]
		if content == nil {
			content = []models.ContentSummary{}
		}
		out = append(out, models.SceneWithContent{Scene: sc, Content: content})
	}
	return out
}

// validateProject checks the fields that are present.
func validateProject(name, description *string) error {
	var fields []common.FieldError
	if name != nil {
		if n := utf8.RuneCountInString(*name); n < 1 || n > maxNameLength {
			fields = append(fields, common.FieldError{Field: "name", Message: fmt.Sprintf("must be between 1 and %d characters", maxNameLength)})
		}
	}
	if description != nil && utf8.RuneCountInString(*description) > maxDescriptionLength {
		fields = append(fields, common.FieldError{Field: "description", Message: fmt.Sprintf("must be at most %d characters", maxDescriptionLength)})
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}
