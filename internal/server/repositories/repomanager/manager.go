// Package repomanager wires repository implementations to a database handle
// and runs migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/capsync/internal/dbx"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/capsync/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Sessions(db dbx.DBTX) sessions.Repository
}
