package repository

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

// MinIORepository archives grading audit bundles. Frames are never written
// here; only the inputs and outputs of a completed grading run.
type MinIORepository struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger

	ensureMu      sync.Mutex
	bucketEnsured bool
}

func NewMinIORepository(endpoint, accessKey, secretKey, bucket string, useSSL bool, logger zerolog.Logger) (*MinIORepository, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	repo := &MinIORepository{
		client: client,
		bucket: bucket,
		logger: logger,
	}

	// Best-effort bootstrap: a slow MinIO must not take the whole service down.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := repo.ensureBucket(ctx); err != nil {
		logger.Error().Err(err).
			Str("endpoint", endpoint).
			Str("bucket", bucket).
			Msg("MinIO not ready during startup; archiving will retry on demand")
	}

	logger.Info().
		Str("endpoint", endpoint).
		Str("bucket", bucket).
		Bool("ssl", useSSL).
		Msg("Connected to MinIO")

	return repo, nil
}

func (r *MinIORepository) ensureBucket(ctx context.Context) error {
	r.ensureMu.Lock()
	defer r.ensureMu.Unlock()
	if r.bucketEnsured {
		return nil
	}

	exists, err := r.client.BucketExists(ctx, r.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		if err := r.client.MakeBucket(ctx, r.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		r.logger.Info().Str("bucket", r.bucket).Msg("Created new bucket")
	}

	r.bucketEnsured = true
	return nil
}

// ArchiveGradingAudit stores the audit bundle JSON for a graded assessment.
func (r *MinIORepository) ArchiveGradingAudit(ctx context.Context, assessmentID string, payload []byte) error {
	if err := r.ensureBucket(ctx); err != nil {
		return err
	}

	objectName := fmt.Sprintf("%s/%d.json", assessmentID, time.Now().UnixNano())

	info, err := r.client.PutObject(ctx, r.bucket, objectName,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return fmt.Errorf("failed to upload audit bundle: %w", err)
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("object", objectName).
		Str("etag", info.ETag).
		Msg("Grading audit archived")

	return nil
}
