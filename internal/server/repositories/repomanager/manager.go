package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/framez/internal/dbx"
	"github.com/dmitrijs2005/framez/internal/server/repositories/posts"
	"github.com/dmitrijs2005/framez/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DB or a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Posts(db dbx.DBTX) posts.Repository
}
