// Package repomanager wires repository implementations to database handles.
// Services hold a manager and request repositories per call, passing either
// the root *sql.DB or a transaction (both satisfy dbx.DBTX).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/savelyev/securesms/internal/dbx"
	"github.com/savelyev/securesms/internal/server/repositories/students"
	"github.com/savelyev/securesms/internal/server/repositories/teachers"
	"github.com/savelyev/securesms/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Students(db dbx.DBTX) students.Repository
	Teachers(db dbx.DBTX) teachers.Repository
}
