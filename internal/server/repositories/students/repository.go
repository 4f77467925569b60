package students

import (
	"context"

	"github.com/savelyev/securesms/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, student *models.Student) (*models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	List(ctx context.Context) ([]*models.Student, error)
	Update(ctx context.Context, student *models.Student) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// Restore reinserts a record with its original id, for backup restore.
	Restore(ctx context.Context, student *models.Student) error
}
