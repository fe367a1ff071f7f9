package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/mybudget/internal/dbx"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/categories"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/expenses"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/roles"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/users"
	"github.com/dmitrijs2005/mybudget/internal/server/repositories/usertokens"
)

// RepositoryManager vends repositories bound to a DBTX, so the same code
// runs against the pool or inside a transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Roles(db dbx.DBTX) roles.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	UserTokens(db dbx.DBTX) usertokens.Repository
	Categories(db dbx.DBTX) categories.Repository
	Expenses(db dbx.DBTX) expenses.Repository
}
