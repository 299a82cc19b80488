package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/arcms/internal/dbx"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/contents"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/projects"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/scenes"
	"github.com/dmitrijs2005/arcms/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Projects(db dbx.DBTX) projects.Repository
	Scenes(db dbx.DBTX) scenes.Repository
	Contents(db dbx.DBTX) contents.Repository
}
