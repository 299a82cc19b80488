package httpapi

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrijs2005/arcms/internal/logging"
	"github.com/dmitrijs2005/arcms/internal/server/auth"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/services"
)

// UserService is the part of services.UserService the handlers use.
type UserService interface {
	Register(ctx context.Context, email, password string) (*models.PublicUser, error)
	Login(ctx context.Context, email, password string) (*models.PublicUser, error)
	GetUserByID(ctx context.Context, id string) (*models.PublicUser, error)
	IssueTokens(ctx context.Context, user *models.PublicUser) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
}

type ProjectService interface {
	GetAllProjects(ctx context.Context, userID string) ([]models.ProjectListItem, error)
	GetProjectByID(ctx context.Context, id, userID string) (*models.ProjectDetail, error)
	CreateProject(ctx context.Context, userID string, in models.ProjectInput) (*models.ProjectDetail, error)
	UpdateProject(ctx context.Context, id, userID string, patch models.ProjectPatch) (*models.ProjectDetail, error)
	DeleteProject(ctx context.Context, id, userID string) (*models.Result, error)
	GetProjectStats(ctx context.Context, id, userID string) (*models.ProjectStats, error)
}

type SceneService interface {
	GetScenesByProject(ctx context.Context, projectID, userID string) ([]models.SceneWithContent, error)
	GetSceneByID(ctx context.Context, id, userID string) (*models.SceneDetail, error)
	CreateScene(ctx context.Context, userID string, in models.SceneInput) (*models.SceneDetail, error)
	UpdateScene(ctx context.Context, id, userID string, patch models.ScenePatch) (*models.SceneDetail, error)
	DeleteScene(ctx context.Context, id, userID string) (*models.Result, error)
	ToggleSceneActive(ctx context.Context, id, userID string) (*models.Scene, error)
	GetPublicScene(ctx context.Context, id string) (*models.PublicScene, error)
	AddContent(ctx context.Context, sceneID, userID string, in models.ContentInput) (*models.Content, error)
	DeleteContent(ctx context.Context, sceneID, contentID, userID string) (*models.Result, error)
	CreateUploadURL(ctx context.Context, sceneID, userID string, req services.UploadRequest) (*models.Upload, error)
}

// TokenParser verifies access tokens. *auth.Issuer implements it.
type TokenParser interface {
	ParseAccess(token string) (*auth.AccessClaims, error)
}

// Handler holds the dependencies shared by all route handlers. Each handler
// makes exactly one service call.
type Handler struct {
	users     UserService
	projects  ProjectService
	scenes    SceneService
	tokens    TokenParser
	logger    logging.Logger
	validate  *validator.Validate
	viewerURL string
	started   time.Time
	now       func() time.Time
}

func NewHandler(us UserService, ps ProjectService, ss SceneService, tokens TokenParser, l logging.Logger, viewerURL string) *Handler {
	return &Handler{
		users:     us,
		projects:  ps,
		scenes:    ss,
		tokens:    tokens,
		logger:    l.With("module", "http_handler"),
		validate:  newValidator(),
		viewerURL: viewerURL,
		started:   time.Now(),
		now:       time.Now,
	}
}
