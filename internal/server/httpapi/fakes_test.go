package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/logging"
	"github.com/dmitrijs2005/arcms/internal/server/auth"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/services"
)

const (
	testUserID    = "7b0c2f4e-1c1d-4a57-9d0e-3c6a2d5b9f10"
	testProjectID = "0f5d1f2a-8c3e-4b6d-a1f0-2e9b7c4d6a81"
	testSceneID   = "c3a9e2d1-5b7f-4e8a-9c6d-1f2e3a4b5c6d"
	testContentID = "9e8d7c6b-5a4f-4e3d-8c2b-1a0f9e8d7c6b"
)

// --- fakes embed the interfaces; unexpected calls panic ---

type fakeUsers struct {
	UserService
	user      *models.PublicUser
	pair      *services.TokenPair
	err       error
	gotEmail  string
	gotToken  string
	loggedOut bool
}

func (f *fakeUsers) Register(_ context.Context, email, _ string) (*models.PublicUser, error) {
	f.gotEmail = email
	return f.user, f.err
}

func (f *fakeUsers) Login(_ context.Context, email, _ string) (*models.PublicUser, error) {
	f.gotEmail = email
	return f.user, f.err
}

func (f *fakeUsers) GetUserByID(_ context.Context, _ string) (*models.PublicUser, error) {
	return f.user, f.err
}

func (f *fakeUsers) IssueTokens(context.Context, *models.PublicUser) (*services.TokenPair, error) {
	return f.pair, nil
}

func (f *fakeUsers) Refresh(_ context.Context, token string) (*services.TokenPair, error) {
	f.gotToken = token
	return f.pair, f.err
}

func (f *fakeUsers) Logout(_ context.Context, token string) error {
	f.gotToken = token
	f.loggedOut = true
	return f.err
}

type fakeProjects struct {
	ProjectService
	list     []models.ProjectListItem
	detail   *models.ProjectDetail
	stats    *models.ProjectStats
	err      error
	gotUser  string
	gotID    string
	gotInput models.ProjectInput
	gotPatch models.ProjectPatch
}

func (f *fakeProjects) GetAllProjects(_ context.Context, userID string) ([]models.ProjectListItem, error) {
	f.gotUser = userID
	return f.list, f.err
}

func (f *fakeProjects) GetProjectByID(_ context.Context, id, userID string) (*models.ProjectDetail, error) {
	f.gotID, f.gotUser = id, userID
	return f.detail, f.err
}

func (f *fakeProjects) CreateProject(_ context.Context, userID string, in models.ProjectInput) (*models.ProjectDetail, error) {
	f.gotUser, f.gotInput = userID, in
	return f.detail, f.err
}

func (f *fakeProjects) UpdateProject(_ context.Context, id, userID string, patch models.ProjectPatch) (*models.ProjectDetail, error) {
	f.gotID, f.gotUser, f.gotPatch = id, userID, patch
	return f.detail, f.err
}

func (f *fakeProjects) DeleteProject(_ context.Context, id, userID string) (*models.Result, error) {
	f.gotID, f.gotUser = id, userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Result{Success: true, Message: "Project deleted successfully"}, nil
}

func (f *fakeProjects) GetProjectStats(_ context.Context, id, userID string) (*models.ProjectStats, error) {
	f.gotID, f.gotUser = id, userID
	return f.stats, f.err
}

type fakeScenes struct {
	SceneService
	scene      *models.Scene
	detail     *models.SceneDetail
	list       []models.SceneWithContent
	public     *models.PublicScene
	content    *models.Content
	upload     *models.Upload
	err        error
	gotID      string
	gotUser    string
	gotInput   models.SceneInput
	gotPatch   models.ScenePatch
	gotContent models.ContentInput
	gotUpload  services.UploadRequest
	publicHits int
}

func (f *fakeScenes) GetScenesByProject(_ context.Context, projectID, userID string) ([]models.SceneWithContent, error) {
	f.gotID, f.gotUser = projectID, userID
	return f.list, f.err
}

func (f *fakeScenes) GetSceneByID(_ context.Context, id, userID string) (*models.SceneDetail, error) {
	f.gotID, f.gotUser = id, userID
	return f.detail, f.err
}

func (f *fakeScenes) CreateScene(_ context.Context, userID string, in models.SceneInput) (*models.SceneDetail, error) {
	f.gotUser, f.gotInput = userID, in
	return f.detail, f.err
}

func (f *fakeScenes) UpdateScene(_ context.Context, id, userID string, patch models.ScenePatch) (*models.SceneDetail, error) {
	f.gotID, f.gotUser, f.gotPatch = id, userID, patch
	return f.detail, f.err
}

func (f *fakeScenes) DeleteScene(_ context.Context, id, userID string) (*models.Result, error) {
	f.gotID, f.gotUser = id, userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Result{Success: true, Message: "Scene deleted successfully"}, nil
}

func (f *fakeScenes) ToggleSceneActive(_ context.Context, id, userID string) (*models.Scene, error) {
	f.gotID, f.gotUser = id, userID
	return f.scene, f.err
}

func (f *fakeScenes) GetPublicScene(_ context.Context, id string) (*models.PublicScene, error) {
	f.gotID = id
	f.publicHits++
	return f.public, f.err
}

func (f *fakeScenes) AddContent(_ context.Context, sceneID, userID string, in models.ContentInput) (*models.Content, error) {
	f.gotID, f.gotUser, f.gotContent = sceneID, userID, in
	return f.content, f.err
}

func (f *fakeScenes) DeleteContent(_ context.Context, sceneID, contentID, userID string) (*models.Result, error) {
	f.gotID, f.gotUser = sceneID+"/"+contentID, userID
	if f.err != nil {
		return nil, f.err
	}
	return &models.Result{Success: true, Message: "Content deleted successfully"}, nil
}

func (f *fakeScenes) CreateUploadURL(_ context.Context, sceneID, userID string, req services.UploadRequest) (*models.Upload, error) {
	f.gotID, f.gotUser, f.gotUpload = sceneID, userID, req
	return f.upload, f.err
}

// --- harness ---

type testAPI struct {
	t        *testing.T
	router   http.Handler
	issuer   *auth.Issuer
	users    *fakeUsers
	projects *fakeProjects
	scenes   *fakeScenes
	token    string
}

func newTestAPI(t *testing.T, opts Options) *testAPI {
	t.Helper()
	issuer := auth.NewIssuer("access-secret-access-secret-0123", "refresh-secret-refresh-secret-01", 15*time.Minute, time.Hour)
	api := &testAPI{
		t:        t,
		issuer:   issuer,
		users:    &fakeUsers{},
		projects: &fakeProjects{},
		scenes:   &fakeScenes{},
	}

	h := NewHandler(api.users, api.projects, api.scenes, issuer, logging.New(io.Discard, false, "error"), "https://viewer.example.com")
	api.router = NewRouter(h, opts)

	token, err := issuer.AccessToken(&models.User{ID: testUserID, Email: "a@x.com", Role: models.RoleUser})
	require.NoError(t, err)
	api.token = token
	return api
}

// do sends an authenticated request when authed is true.
func (a *testAPI) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+a.token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func newRequest(method, path, body string) *http.Request {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	return httptest.NewRequest(method, path, rd)
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}
