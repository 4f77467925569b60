package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	sc "github.com/savelyev/securesms/internal/server/config"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// S3Store keeps sealed backups in an S3-compatible bucket (MinIO in dev).
type S3Store struct {
	config *sc.Config
}

func NewS3Store(config *sc.Config) *S3Store {
	return &S3Store{config: config}
}

// backupStorageKey names an uploaded backup by date plus a random suffix.
func backupStorageKey() string {
	d := time.Now()
	return fmt.Sprintf("backups/%d/%d/%d/%v.enc", d.Year(), d.Month(), d.Day(), uuid.New())
}

func (s *S3Store) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.config.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,     // MINIO_ROOT_USER
			s.config.S3RootPassword, // MINIO_ROOT_PASSWORD
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		}
		o.UsePathStyle = true
	})

	return client, nil
}

// Upload stores a sealed backup and returns its object key.
func (s *S3Store) Upload(ctx context.Context, sealed []byte) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	bucket := s.config.S3Bucket
	key := backupStorageKey()

	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
		Body:   bytes.NewReader(sealed),
	})
	if err != nil {
		return "", fmt.Errorf("uploading backup: %w", err)
	}

	return key, nil
}

// Download fetches a sealed backup by object key.
func (s *S3Store) Download(ctx context.Context, key string) ([]byte, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return nil, fmt.Errorf("downloading backup: %w", err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
