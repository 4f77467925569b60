package users

import (
	"context"

	"github.com/savelyev/securesms/internal/server/models"
)

// Repository is the persistence port for account records. The multi-factor
// login flow consumes it read-only via GetByUsername.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	DeleteAll(ctx context.Context) error
	// Restore reinserts a record with its original id, for backup restore.
	Restore(ctx context.Context, user *models.User) error
}
