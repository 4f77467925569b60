package backup

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/savelyev/securesms/internal/dbx"
	"github.com/savelyev/securesms/internal/server/models"
	"github.com/savelyev/securesms/internal/server/repositories/repomanager"
)

// Image is the serialized form of the whole datastore. The codec never looks
// inside it; only the snapshotter interprets the schema.
type Image struct {
	Users    []*models.User    `json:"users"`
	Students []*models.Student `json:"students"`
	Teachers []*models.Teacher `json:"teachers"`
}

// Snapshotter produces and applies datastore images through the
// repositories. It is the "byte-image provider" collaborator of the codec.
type Snapshotter struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewSnapshotter(db *sql.DB, repos repomanager.RepositoryManager) *Snapshotter {
	return &Snapshotter{db: db, repos: repos}
}

// Snapshot reads every table and returns the dataset as JSON bytes.
func (s *Snapshotter) Snapshot(ctx context.Context) ([]byte, error) {
	img := &Image{}
	var err error

	if img.Users, err = s.repos.Users(s.db).List(ctx); err != nil {
		return nil, fmt.Errorf("snapshot users: %w", err)
	}
	if img.Students, err = s.repos.Students(s.db).List(ctx); err != nil {
		return nil, fmt.Errorf("snapshot students: %w", err)
	}
	if img.Teachers, err = s.repos.Teachers(s.db).List(ctx); err != nil {
		return nil, fmt.Errorf("snapshot teachers: %w", err)
	}

	return json.Marshal(img)
}

// Apply replaces the whole dataset with the image in one transaction, so a
// malformed image or any insert failure leaves the datastore untouched.
func (s *Snapshotter) Apply(ctx context.Context, raw []byte) error {
	img := &Image{}
	if err := json.Unmarshal(raw, img); err != nil {
		return fmt.Errorf("decoding backup image: %w", err)
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		usersRepo := s.repos.Users(tx)
		studentsRepo := s.repos.Students(tx)
		teachersRepo := s.repos.Teachers(tx)

		if err := studentsRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := teachersRepo.DeleteAll(ctx); err != nil {
			return err
		}
		if err := usersRepo.DeleteAll(ctx); err != nil {
			return err
		}

		for _, u := range img.Users {
			if err := usersRepo.Restore(ctx, u); err != nil {
				return err
			}
		}
		for _, st := range img.Students {
			if err := studentsRepo.Restore(ctx, st); err != nil {
				return err
			}
		}
		for _, tc := range img.Teachers {
			if err := teachersRepo.Restore(ctx, tc); err != nil {
				return err
			}
		}

		return nil
	})
}
