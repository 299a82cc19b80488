package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/dmitrijs2005/arcms/internal/common"
	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/models"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/contents"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/projects"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/scenes"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/users"
)

// --- helpers ---

// newSQLMockDB returns a mock whose transactions always succeed. Services
// under test only use it for Begin/Commit/Rollback; the repositories are fakes.
func newSQLMockDB(t *testing.T) *sql.DB {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	for i := 0; i < 32; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// fakeStore is an in-memory stand-in for the database shared by all fake
// repositories, with the same cascade and ownership semantics.
type fakeStore struct {
	mu       sync.Mutex
	seq      int
	clock    time.Time
	users    map[string]*models.User
	tokens   map[string]*models.RefreshToken
	projects map[string]*models.Project
	scenes   map[string]*models.Scene
	contents map[string]*models.Content

	// failOn makes the named operation return errFake.
	failOn string
}

var errFake = fmt.Errorf("fake db failure")

func newFakeStore() *fakeStore {
	return &fakeStore{
		clock:    time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		users:    map[string]*models.User{},
		tokens:   map[string]*models.RefreshToken{},
		projects: map[string]*models.Project{},
		scenes:   map[string]*models.Scene{},
		contents: map[string]*models.Content{},
	}
}

func (s *fakeStore) next(prefix string) (string, time.Time) {
	s.seq++
	s.clock = s.clock.Add(time.Second)
	return fmt.Sprintf("%s%d", prefix, s.seq), s.clock
}

func (s *fakeStore) fail(op string) error {
	if s.failOn == op {
		return errFake
	}
	return nil
}

type fakeRepoManager struct {
	store *fakeStore
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository           { return &fakeUsersRepo{m.store} }
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokens.Repository {
	return &fakeRefreshRepo{m.store}
}
func (m *fakeRepoManager) Projects(dbx.DBTX) projects.Repository { return &fakeProjectsRepo{m.store} }
func (m *fakeRepoManager) Scenes(dbx.DBTX) scenes.Repository     { return &fakeScenesRepo{m.store} }
func (m *fakeRepoManager) Contents(dbx.DBTX) contents.Repository { return &fakeContentsRepo{m.store} }

// --- users ---

type fakeUsersRepo struct{ s *fakeStore }

func (r *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.Create"); err != nil {
		return nil, err
	}
	for _, existing := range r.s.users {
		if existing.Email == u.Email {
			return nil, common.ErrorConflict
		}
	}
	u.ID, u.CreatedAt = r.s.next("u")
	u.UpdatedAt = u.CreatedAt
	cp := *u
	r.s.users[u.ID] = &cp
	return u, nil
}

func (r *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("users.GetByEmail"); err != nil {
		return nil, err
	}
	for _, u := range r.s.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

// --- refresh tokens ---

type fakeRefreshRepo struct{ s *fakeStore }

func (r *fakeRefreshRepo) Create(_ context.Context, t *models.RefreshToken) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("tokens.Create"); err != nil {
		return err
	}
	cp := *t
	r.s.tokens[t.ID] = &cp
	return nil
}

func (r *fakeRefreshRepo) Find(_ context.Context, jti string) (*models.RefreshToken, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[jti]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeRefreshRepo) Delete(_ context.Context, jti string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.tokens, jti)
	return nil
}

func (r *fakeRefreshRepo) DeleteExpired(_ context.Context) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for id, t := range r.s.tokens {
		if t.ExpiresAt.Before(time.Now()) {
			delete(r.s.tokens, id)
			n++
		}
	}
	return n, nil
}

// --- projects ---

type fakeProjectsRepo struct{ s *fakeStore }

func (r *fakeProjectsRepo) ListByUser(_ context.Context, userID string) ([]models.ProjectListItem, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("projects.ListByUser"); err != nil {
		return nil, err
	}
	items := make([]models.ProjectListItem, 0)
	for _, p := range r.s.projects {
		if p.UserID != userID {
			continue
		}
		item := models.ProjectListItem{Project: *p, Scenes: []models.SceneSummary{}}
		for _, sc := range r.s.sortedScenes(p.ID) {
			item.Scenes = append(item.Scenes, models.SceneSummary{
				ID: sc.ID, Name: sc.Name, IsActive: sc.IsActive, ViewCount: sc.ViewCount, CreatedAt: sc.CreatedAt,
			})
		}
		items = append(items, item)
	}
	sort.Slice(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *fakeProjectsRepo) GetOwned(_ context.Context, id, userID string) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("projects.GetOwned"); err != nil {
		return nil, err
	}
	p, ok := r.s.projects[id]
	if !ok || p.UserID != userID {
		return nil, common.ErrorNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectsRepo) Create(_ context.Context, p *models.Project) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID, p.CreatedAt = r.s.next("p")
	p.UpdatedAt = p.CreatedAt
	cp := *p
	r.s.projects[p.ID] = &cp
	return p, nil
}

func (r *fakeProjectsRepo) Update(_ context.Context, id string, patch models.ProjectPatch) (*models.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = patch.Description
	}
	_, p.UpdatedAt = r.s.next("")
	cp := *p
	return &cp, nil
}

func (r *fakeProjectsRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.projects[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.s.projects, id)
	for sid, sc := range r.s.scenes {
		if sc.ProjectID == id {
			r.s.deleteScene(sid)
		}
	}
	return nil
}

// --- scenes ---

type fakeScenesRepo struct{ s *fakeStore }

// sortedScenes returns the project's scenes newest first. Caller holds mu.
func (s *fakeStore) sortedScenes(projectID string) []models.Scene {
	out := make([]models.Scene, 0)
	for _, sc := range s.scenes {
		if sc.ProjectID == projectID {
			out = append(out, *sc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// deleteScene cascades to content. Caller holds mu.
func (s *fakeStore) deleteScene(id string) {
	delete(s.scenes, id)
	for cid, c := range s.contents {
		if c.SceneID == id {
			delete(s.contents, cid)
		}
	}
}

func (r *fakeScenesRepo) ListByProject(_ context.Context, projectID string) ([]models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.sortedScenes(projectID), nil
}

func (r *fakeScenesRepo) GetWithOwner(_ context.Context, id string) (*models.SceneOwner, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("scenes.GetWithOwner"); err != nil {
		return nil, err
	}
	sc, ok := r.s.scenes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	p := r.s.projects[sc.ProjectID]
	return &models.SceneOwner{Scene: *sc, ProjectName: p.Name, UserID: p.UserID}, nil
}

func (r *fakeScenesRepo) GetActive(_ context.Context, id string) (*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenes[id]
	if !ok || !sc.IsActive {
		return nil, common.ErrorNotFound
	}
	cp := *sc
	return &cp, nil
}

func (r *fakeScenesRepo) Create(_ context.Context, sc *models.Scene) (*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc.ID, sc.CreatedAt = r.s.next("s")
	sc.UpdatedAt = sc.CreatedAt
	cp := *sc
	r.s.scenes[sc.ID] = &cp
	return sc, nil
}

func (r *fakeScenesRepo) Update(_ context.Context, id string, patch models.ScenePatch) (*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if patch.Name != nil {
		sc.Name = *patch.Name
	}
	if patch.IsActive != nil {
		sc.IsActive = *patch.IsActive
	}
	if patch.TriggerImageURL.Set {
		sc.TriggerImageURL = patch.TriggerImageURL.Value
	}
	if patch.TriggerImageKey.Set {
		sc.TriggerImageKey = patch.TriggerImageKey.Value
	}
	if patch.TriggerCompiled != nil {
		sc.TriggerCompiled = *patch.TriggerCompiled
	}
	if patch.TriggerMindFile.Set {
		sc.TriggerMindFile = patch.TriggerMindFile.Value
	}
	cp := *sc
	return &cp, nil
}

func (r *fakeScenesRepo) ToggleActive(_ context.Context, id string) (*models.Scene, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenes[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	sc.IsActive = !sc.IsActive
	cp := *sc
	return &cp, nil
}

func (r *fakeScenesRepo) Delete(_ context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.scenes[id]; !ok {
		return common.ErrorNotFound
	}
	r.s.deleteScene(id)
	return nil
}

func (r *fakeScenesRepo) IncrementViewCount(_ context.Context, id string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sc, ok := r.s.scenes[id]
	if !ok {
		return 0, common.ErrorNotFound
	}
	sc.ViewCount++
	return sc.ViewCount, nil
}

// --- contents ---

type fakeContentsRepo struct{ s *fakeStore }

func (r *fakeContentsRepo) collect(match func(*models.Content) bool) []models.Content {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]models.Content, 0)
	for _, c := range r.s.contents {
		if match(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (r *fakeContentsRepo) ListByScene(_ context.Context, sceneID string) ([]models.Content, error) {
	return r.collect(func(c *models.Content) bool { return c.SceneID == sceneID }), nil
}

func (r *fakeContentsRepo) ListByProject(_ context.Context, projectID string) ([]models.Content, error) {
	r.s.mu.Lock()
	inProject := map[string]bool{}
	for id, sc := range r.s.scenes {
		if sc.ProjectID == projectID {
			inProject[id] = true
		}
	}
	r.s.mu.Unlock()
	return r.collect(func(c *models.Content) bool { return inProject[c.SceneID] }), nil
}

func (r *fakeContentsRepo) Create(_ context.Context, sceneID string, in models.ContentInput) (*models.Content, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c := &models.Content{
		SceneID:     sceneID,
		ContentType: in.ContentType,
		FileURL:     in.FileURL,
		FileName:    in.FileName,
		FileSize:    in.FileSize,
		TextContent: in.TextContent,
		Transform:   in.Transform,
		Config:      in.Config,
	}
	c.ID, c.CreatedAt = r.s.next("c")
	cp := *c
	r.s.contents[c.ID] = &cp
	return c, nil
}

func (r *fakeContentsRepo) Delete(_ context.Context, id, sceneID string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.contents[id]
	if !ok || c.SceneID != sceneID {
		return common.ErrorNotFound
	}
	delete(r.s.contents, id)
	return nil
}

// --- fixtures ---

func seedUser(s *fakeStore, email string) string {
	u, _ := (&fakeUsersRepo{s}).Create(context.Background(), &models.User{Email: email, Role: models.RoleUser})
	return u.ID
}

func seedProject(s *fakeStore, userID, name string) string {
	p, _ := (&fakeProjectsRepo{s}).Create(context.Background(), &models.Project{Name: name, UserID: userID})
	return p.ID
}

func seedScene(s *fakeStore, projectID, name string, active bool) string {
	sc, _ := (&fakeScenesRepo{s}).Create(context.Background(), &models.Scene{Name: name, ProjectID: projectID, IsActive: active})
	return sc.ID
}

func seedContent(s *fakeStore, sceneID string, kind models.ContentType) string {
	url := "https://cdn.example.com/" + string(kind)
	c, _ := (&fakeContentsRepo{s}).Create(context.Background(), sceneID, models.ContentInput{
		ContentType: kind, FileURL: &url, Transform: models.DefaultTransform(),
	})
	return c.ID
}
