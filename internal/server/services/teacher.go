package services

import (
	"context"
	"database/sql"

	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
)

// TeacherService implements teacher record CRUD. Teacher records carry no
// sensitive fields, so nothing here touches the cipher.
type TeacherService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
}

func NewTeacherService(db *sql.DB, m repomanager.RepositoryManager) *TeacherService {
	return &TeacherService{db: db, repomanager: m}
}

func (s *TeacherService) Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error) {
	return s.repomanager.Teachers(s.db).Create(ctx, teacher)
}

func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	return s.repomanager.Teachers(s.db).GetByID(ctx, id)
}

func (s *TeacherService) List(ctx context.Context) ([]*models.Teacher, error) {
	return s.repomanager.Teachers(s.db).List(ctx)
}

func (s *TeacherService) Update(ctx context.Context, teacher *models.Teacher) error {
	return s.repomanager.Teachers(s.db).Update(ctx, teacher)
}

func (s *TeacherService) Delete(ctx context.Context, id string) error {
	return s.repomanager.Teachers(s.db).Delete(ctx, id)
}
