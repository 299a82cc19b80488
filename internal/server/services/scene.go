package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/arcms/internal/server/storage"
)

const (
	UploadKindTrigger = "trigger"
	UploadKindContent = "content"

	megabyte = 1 << 20
)

// Uploader issues presigned direct uploads. *storage.S3Storage implements it.
type Uploader interface {
	PresignUpload(ctx context.Context, key, contentType string, size int64) (string, error)
	PublicURL(key string) string
}

// UploadLimits caps upload sizes, in bytes, per kind of file.
type UploadLimits struct {
	MaxFileBytes         int64
	MaxTriggerImageBytes int64
	MaxAudioBytes        int64
}

// LimitsFromMB converts megabyte settings into UploadLimits.
func LimitsFromMB(file, trigger, audio int) UploadLimits {
	return UploadLimits{
		MaxFileBytes:         int64(file) * megabyte,
		MaxTriggerImageBytes: int64(trigger) * megabyte,
		MaxAudioBytes:        int64(audio) * megabyte,
	}
}

// UploadRequest asks for a presigned upload of one file into a scene.
type UploadRequest struct {
	Kind        string
	FileName    string
	ContentType string
	Size        int64
}

// SceneService manages scenes and their content. Ownership is always
// re-derived through the parent project; a scene in someone else's project
// is reported exactly like a missing one.
type SceneService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	uploader    Uploader
	limits      UploadLimits
	now         func() time.Time
}

// NewSceneService builds the service. uploader may be nil, in which case
// upload requests fail with common.ErrorStorageUnavailable.
func NewSceneService(db *sql.DB, m repomanager.RepositoryManager, uploader Uploader, limits UploadLimits) *SceneService {
	return &SceneService{
		db:          db,
		repomanager: m,
		uploader:    uploader,
		limits:      limits,
		now:         time.Now,
	}
}

func (s *SceneService) GetScenesByProject(ctx context.Context, projectID, userID string) ([]models.SceneWithContent, error) {
	var out []models.SceneWithContent
	err := dbx.WithTx(ctx, s.db, readOnly, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.verifyProjectOwnership(ctx, tx, projectID, userID); err != nil {
			return err
		}
		scenes, err := s.repomanager.Scenes(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("error listing scenes: %w", err)
		}
		items, err := s.repomanager.Contents(tx).ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("error listing content: %w", err)
		}
		out = withContentSummaries(scenes, items)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SceneService) GetSceneByID(ctx context.Context, id, userID string) (*models.SceneDetail, error) {
	var detail *models.SceneDetail
	err := dbx.WithTx(ctx, s.db, readOnly, func(ctx context.Context, tx dbx.DBTX) error {
		so, err := s.verifySceneOwnership(ctx, tx, id, userID)
		if err != nil {
			return err
		}
		detail, err = s.withContent(ctx, tx, &so.Scene)
		if err != nil {
			return err
		}
		detail.Project = &models.ProjectRef{ID: so.ProjectID, Name: so.ProjectName}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// CreateScene adds an inactive scene without content to a project the
// caller owns.
func (s *SceneService) CreateScene(ctx context.Context, userID string, in models.SceneInput) (*models.SceneDetail, error) {
	if err := validateSceneName(&in.Name); err != nil {
		return nil, err
	}
	if err := s.verifyProjectOwnership(ctx, s.db, in.ProjectID, userID); err != nil {
		return nil, err
	}

	sc, err := s.repomanager.Scenes(s.db).Create(ctx, &models.Scene{Name: in.Name, ProjectID: in.ProjectID})
	if err != nil {
		return nil, fmt.Errorf("error creating scene: %w", err)
	}
	return &models.SceneDetail{Scene: *sc, Content: []models.Content{}}, nil
}

func (s *SceneService) UpdateScene(ctx context.Context, id, userID string, patch models.ScenePatch) (*models.SceneDetail, error) {
	if err := validateSceneName(patch.Name); err != nil {
		return nil, err
	}

	var detail *models.SceneDetail
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.verifySceneOwnership(ctx, tx, id, userID); err != nil {
			return err
		}
		sc, err := s.repomanager.Scenes(tx).Update(ctx, id, patch)
		if err != nil {
			return fmt.Errorf("error updating scene: %w", err)
		}
		detail, err = s.withContent(ctx, tx, sc)
		return err
	})
	if err != nil {
		return nil, err
	}
	return detail, nil
}

// DeleteScene removes the scene; its content is removed by cascade.
func (s *SceneService) DeleteScene(ctx context.Context, id, userID string) (*models.Result, error) {
	if _, err := s.verifySceneOwnership(ctx, s.db, id, userID); err != nil {
		return nil, err
	}
	if err := s.repomanager.Scenes(s.db).Delete(ctx, id); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, sceneNotFound()
		}
		return nil, fmt.Errorf("error deleting scene: %w", err)
	}
	return &models.Result{Success: true, Message: "Scene deleted successfully"}, nil
}

func (s *SceneService) ToggleSceneActive(ctx context.Context, id, userID string) (*models.Scene, error) {
	if _, err := s.verifySceneOwnership(ctx, s.db, id, userID); err != nil {
		return nil, err
	}
	sc, err := s.repomanager.Scenes(s.db).ToggleActive(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, sceneNotFound()
		}
		return nil, fmt.Errorf("error toggling scene: %w", err)
	}
	return sc, nil
}

// IncrementViewCount adds one view without any ownership check and returns
// the new count.
func (s *SceneService) IncrementViewCount(ctx context.Context, id string) (int64, error) {
	n, err := s.repomanager.Scenes(s.db).IncrementViewCount(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return 0, sceneNotFound()
		}
		return 0, fmt.Errorf("error counting view: %w", err)
	}
	return n, nil
}

// GetPublicScene serves an active scene to the viewer and counts one view.
// Inactive and missing scenes fail the same way.
func (s *SceneService) GetPublicScene(ctx context.Context, id string) (*models.PublicScene, error) {
	scenes := s.repomanager.Scenes(s.db)

	sc, err := scenes.GetActive(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WithMessage(common.ErrorNotFound, "Scene not found or inactive")
		}
		return nil, fmt.Errorf("error loading scene: %w", err)
	}

	items, err := s.repomanager.Contents(s.db).ListByScene(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing content: %w", err)
	}

	views, err := s.IncrementViewCount(ctx, id)
	if err != nil {
		return nil, err
	}

	content := make([]models.PublicContent, 0, len(items))
	for i := range items {
		content = append(content, items[i].Public())
	}

	return &models.PublicScene{
		ID:              sc.ID,
		Name:            sc.Name,
		TriggerImageURL: sc.TriggerImageURL,
		TriggerMindFile: sc.TriggerMindFile,
		ViewCount:       views,
		Content:         content,
	}, nil
}

func (s *SceneService) AddContent(ctx context.Context, sceneID, userID string, in models.ContentInput) (*models.Content, error) {
	if err := validateContent(&in); err != nil {
		return nil, err
	}
	if _, err := s.verifySceneOwnership(ctx, s.db, sceneID, userID); err != nil {
		return nil, err
	}

	c, err := s.repomanager.Contents(s.db).Create(ctx, sceneID, in)
	if err != nil {
		return nil, fmt.Errorf("error adding content: %w", err)
	}
	return c, nil
}

func (s *SceneService) DeleteContent(ctx context.Context, sceneID, contentID, userID string) (*models.Result, error) {
	if _, err := s.verifySceneOwnership(ctx, s.db, sceneID, userID); err != nil {
		return nil, err
	}
	if err := s.repomanager.Contents(s.db).Delete(ctx, contentID, sceneID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.WithMessage(common.ErrorNotFound, "Content not found")
		}
		return nil, fmt.Errorf("error deleting content: %w", err)
	}
	return &models.Result{Success: true, Message: "Content deleted successfully"}, nil
}

// CreateUploadURL presigns a direct upload of one file into the scene's
// key space after checking ownership and the size limit for its kind.
func (s *SceneService) CreateUploadURL(ctx context.Context, sceneID, userID string, req UploadRequest) (*models.Upload, error) {
	if s.uploader == nil {
		return nil, common.ErrorStorageUnavailable
	}
	if err := s.validateUpload(&req); err != nil {
		return nil, err
	}
	if _, err := s.verifySceneOwnership(ctx, s.db, sceneID, userID); err != nil {
		return nil, err
	}

	key := storage.NewKey(sceneID, req.Kind, req.FileName, s.now().UTC())
	url, err := s.uploader.PresignUpload(ctx, key, req.ContentType, req.Size)
	if err != nil {
		return nil, fmt.Errorf("error presigning upload: %w", err)
	}

	return &models.Upload{UploadURL: url, Key: key, PublicURL: s.uploader.PublicURL(key)}, nil
}

// --- helpers below ---

func sceneNotFound() error {
	return common.WithMessage(common.ErrorNotFound, "Scene not found")
}

func (s *SceneService) verifyProjectOwnership(ctx context.Context, db dbx.DBTX, projectID, userID string) error {
	if _, err := s.repomanager.Projects(db).GetOwned(ctx, projectID, userID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return projectNotFound()
		}
		return fmt.Errorf("error loading project: %w", err)
	}
	return nil
}

func (s *SceneService) verifySceneOwnership(ctx context.Context, db dbx.DBTX, sceneID, userID string) (*models.SceneOwner, error) {
	so, err := s.repomanager.Scenes(db).GetWithOwner(ctx, sceneID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, sceneNotFound()
		}
		return nil, fmt.Errorf("error loading scene: %w", err)
	}
	if so.UserID != userID {
		return nil, sceneNotFound()
	}
	return so, nil
}

func (s *SceneService) withContent(ctx context.Context, db dbx.DBTX, sc *models.Scene) (*models.SceneDetail, error) {
	items, err := s.repomanager.Contents(db).ListByScene(ctx, sc.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing content: %w", err)
	}
	return &models.SceneDetail{Scene: *sc, Content: items}, nil
}

func validateSceneName(name *string) error {
	if name == nil {
		return nil
	}
	if n := utf8.RuneCountInString(*name); n < 1 || n > maxNameLength {
		return common.NewValidationError("name", fmt.Sprintf("must be between 1 and %d characters", maxNameLength))
	}
	return nil
}

func validateContent(in *models.ContentInput) error {
	var fields []common.FieldError
	if !in.ContentType.Valid() {
		fields = append(fields, common.FieldError{Field: "contentType", Message: "must be one of IMAGE, TEXT, MODEL, AUDIO"})
	}
	if in.ContentType == models.ContentText {
		if in.TextContent == nil || *in.TextContent == "" {
			fields = append(fields, common.FieldError{Field: "textContent", Message: "is required for TEXT content"})
		}
	} else if in.ContentType.Valid() && (in.FileURL == nil || *in.FileURL == "") {
		fields = append(fields, common.FieldError{Field: "fileUrl", Message: "is required for file content"})
	}
	if in.Transform.Scale <= 0 {
		fields = append(fields, common.FieldError{Field: "scale", Message: "must be positive"})
	}
	if in.FileSize != nil && *in.FileSize < 0 {
		fields = append(fields, common.FieldError{Field: "fileSize", Message: "must not be negative"})
	}
	if len(fields) > 0 {
		return &common.ValidationError{Fields: fields}
	}
	return nil
}

func (s *SceneService) validateUpload(req *UploadRequest) error {
	var limit int64
	switch {
	case req.Kind == UploadKindTrigger:
		if !strings.HasPrefix(req.ContentType, "image/") {
			return common.NewValidationError("contentType", "trigger must be an image")
		}
		limit = s.limits.MaxTriggerImageBytes
	case req.Kind == UploadKindContent && strings.HasPrefix(req.ContentType, "audio/"):
		limit = s.limits.MaxAudioBytes
	case req.Kind == UploadKindContent:
		limit = s.limits.MaxFileBytes
	default:
		return common.NewValidationError("kind", "must be trigger or content")
	}

	if req.Size <= 0 {
		return common.NewValidationError("size", "must be positive")
	}
	if req.Size > limit {
		return common.NewValidationError("size", fmt.Sprintf("exceeds the %d MB limit", limit/megabyte))
	}
	return nil
}
