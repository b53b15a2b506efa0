// Package storage stores generated report artifacts in MinIO.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"time"

	"clinicportal_backend/platform/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// DownloadURLTTL is how long a presigned download link stays valid.
const DownloadURLTTL = 15 * time.Minute

type MinIO struct {
	client *minio.Client
	bucket string
}

func NewMinIO(cfg config.StorageConfig) (*MinIO, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &MinIO{client: client, bucket: cfg.GetMinioBucketReports()}, nil
}

// EnsureBucket creates the reports bucket if it does not exist yet.
func (s *MinIO) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", s.bucket, err)
		}
	}
	return nil
}

// Upload stores an artifact under the clinic's folder and returns its key.
func (s *MinIO) Upload(ctx context.Context, clinicID uuid.UUID, fileName, contentType string, content []byte) (string, error) {
	fileKey := path.Join(clinicID.String(), fmt.Sprintf("%s_%s", uuid.New().String()[:8], fileName))

	_, err := s.client.PutObject(ctx, s.bucket, fileKey,
		bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", fileKey, err)
	}
	return fileKey, nil
}

// DownloadURL returns a presigned GET link for a stored artifact.
func (s *MinIO) DownloadURL(ctx context.Context, fileKey string) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucket, fileKey, DownloadURLTTL, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", fileKey, err)
	}
	return presigned.String(), nil
}
