package repomanager

import (
	"context"
	"database/sql"

	"github.com/savelyev/securesms/internal/dbx"
	"github.com/savelyev/securesms/internal/server/migrations"
	"github.com/savelyev/securesms/internal/server/repositories/students"
	"github.com/savelyev/securesms/internal/server/repositories/teachers"
	"github.com/savelyev/securesms/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return err
	}

	return nil
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Students(db dbx.DBTX) students.Repository {
	return students.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Teachers(db dbx.DBTX) teachers.Repository {
	return teachers.NewPostgresRepository(db)
}

// Open connects to Postgres through the pgx stdlib driver and verifies the
// connection before returning it.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
