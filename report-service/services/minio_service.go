package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/url"
	"time"

	"vinesight-backend/shared/config"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinIOService stores finished report exports and hands out short-lived
// download links. Exports are the only objects this service writes; raw
// farm data never leaves Postgres.
type MinIOService struct {
	client     *minio.Client
	bucketName string
}

func NewMinIOService() (*MinIOService, error) {
	cfg := config.GetConfig()

	// Parse endpoint URL to get host
	parsedURL, err := url.Parse(cfg.MinIOServerURL)
	if err != nil {
		return nil, fmt.Errorf("invalid MinIO endpoint: %v", err)
	}

	endpoint := parsedURL.Host
	useSSL := cfg.MinIOUseSSL

	log.Printf("🔗 Connecting to MinIO: %s (SSL: %v)", endpoint, useSSL)

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.MinIORootUser, cfg.MinIORootPassword, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %v", err)
	}

	service := &MinIOService{
		client:     minioClient,
		bucketName: cfg.MinIOExportsBucket,
	}

	if err := service.initializeBucket(); err != nil {
		return nil, err
	}

	return service, nil
}

func (s *MinIOService) initializeBucket() error {
	ctx := context.Background()

	exists, err := s.client.BucketExists(ctx, s.bucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %v", err)
	}

	if !exists {
		err = s.client.MakeBucket(ctx, s.bucketName, minio.MakeBucketOptions{})
		if err != nil {
			return fmt.Errorf("failed to create bucket: %v", err)
		}
		log.Printf("✅ MinIO bucket '%s' created successfully", s.bucketName)
	} else {
		log.Printf("✅ MinIO bucket '%s' already exists", s.bucketName)
	}

	return nil
}

// UploadExport stores a finished export under the organization's prefix
// and returns the object key.
func (s *MinIOService) UploadExport(ctx context.Context, orgPrefix, fileName string, content io.Reader, size int64, contentType string) (string, error) {
	objectKey := orgPrefix + "/" + fileName
	_, err := s.client.PutObject(ctx, s.bucketName, objectKey, content, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload export: %v", err)
	}
	return objectKey, nil
}

// PresignedDownloadURL returns a time-limited link to a stored export.
func (s *MinIOService) PresignedDownloadURL(ctx context.Context, objectKey string, expiry time.Duration) (string, error) {
	presigned, err := s.client.PresignedGetObject(ctx, s.bucketName, objectKey, expiry, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to presign download: %v", err)
	}
	return presigned.String(), nil
}

// RemoveExport deletes a stored export object.
func (s *MinIOService) RemoveExport(ctx context.Context, objectKey string) error {
	err := s.client.RemoveObject(ctx, s.bucketName, objectKey, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove export: %v", err)
	}
	return nil
}

// TestConnection verifies MinIO is reachable.
func (s *MinIOService) TestConnection() error {
	ctx := context.Background()

	buckets, err := s.client.ListBuckets(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to MinIO: %v", err)
	}

	log.Printf("✅ MinIO connection successful. Found %d buckets", len(buckets))
	return nil
}
