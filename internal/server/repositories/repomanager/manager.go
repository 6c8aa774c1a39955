// Package repomanager wires concrete repositories to database handles.
// Services hold a manager plus a *sql.DB and can rebind repositories to a
// transaction handle when several writes must commit together.
package repomanager

import (
	"context"
	"database/sql"

	"taskkeeper/internal/dbx"
	"taskkeeper/internal/server/repositories/categories"
	"taskkeeper/internal/server/repositories/resettokens"
	"taskkeeper/internal/server/repositories/tasks"
	"taskkeeper/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Categories(db dbx.DBTX) categories.Repository
	ResetTokens(db dbx.DBTX) resettokens.Repository
}
