package services

import (
	"context"

	"github.com/savelyev/securesms/internal/server/backup"
)

// BackupService orchestrates full-database backups: snapshot, seal, and
// optionally park the sealed blob in object storage.
type BackupService struct {
	snapshotter *backup.Snapshotter
	codec       *backup.Codec
	store       *backup.S3Store
}

func NewBackupService(snapshotter *backup.Snapshotter, codec *backup.Codec, store *backup.S3Store) *BackupService {
	return &BackupService{snapshotter: snapshotter, codec: codec, store: store}
}

// Export snapshots the datastore and returns the sealed backup blob.
func (s *BackupService) Export(ctx context.Context) ([]byte, error) {
	image, err := s.snapshotter.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return s.codec.Export(ctx, image)
}

// Import opens a sealed backup and replaces the datastore with its contents.
func (s *BackupService) Import(ctx context.Context, sealed []byte) error {
	image, err := s.codec.Import(ctx, sealed)
	if err != nil {
		return err
	}
	return s.snapshotter.Apply(ctx, image)
}

// ExportToS3 uploads a fresh sealed backup and returns its object key.
func (s *BackupService) ExportToS3(ctx context.Context) (string, error) {
	sealed, err := s.Export(ctx)
	if err != nil {
		return "", err
	}
	return s.store.Upload(ctx, sealed)
}

// ImportFromS3 restores the datastore from a previously uploaded backup.
func (s *BackupService) ImportFromS3(ctx context.Context, key string) error {
	sealed, err := s.store.Download(ctx, key)
	if err != nil {
		return err
	}
	return s.Import(ctx, sealed)
}
