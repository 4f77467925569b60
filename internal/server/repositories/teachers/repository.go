package teachers

import (
	"context"

	"github.com/savelyev/securesms/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, teacher *models.Teacher) (*models.Teacher, error)
	GetByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context) ([]*models.Teacher, error)
	Update(ctx context.Context, teacher *models.Teacher) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
	// Restore reinserts a record with its original id, for backup restore.
	Restore(ctx context.Context, teacher *models.Teacher) error
}
