package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pressly/goose/v3"

	"github.com/dmitrijs2005/arcms/internal/server/migrations"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/contents"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/projects"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/scenes"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/users"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	m := NewPostgresRepositoryManager()
	if m == nil {
		t.Fatal("nil manager")
	}
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if _, ok := m.Users(db).(*users.PostgresRepository); !ok {
		t.Fatal("Users() not postgres")
	}
	if _, ok := m.RefreshTokens(db).(*refreshtokens.PostgresRepository); !ok {
		t.Fatal("RefreshTokens() not postgres")
	}
	if _, ok := m.Projects(db).(*projects.PostgresRepository); !ok {
		t.Fatal("Projects() not postgres")
	}
	if _, ok := m.Scenes(db).(*scenes.PostgresRepository); !ok {
		t.Fatal("Scenes() not postgres")
	}
	if _, ok := m.Contents(db).(*contents.PostgresRepository); !ok {
		t.Fatal("Contents() not postgres")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	names, err := fs.Glob(migrations.Migrations, "*.sql")
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(names) == 0 {
		t.Fatal("no migrations embedded")
	}
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}
