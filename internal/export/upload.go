package export

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/winter-telescope/wintertoo/internal/metrics"
)

// UploaderConfig points at the archive's object store.
type UploaderConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// Uploader pushes exported schedule files to the archive bucket.
type Uploader struct {
	client *minio.Client
	bucket string
	logger *slog.Logger
}

// NewUploader connects to the object store.
func NewUploader(cfg UploaderConfig, logger *slog.Logger) (*Uploader, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connecting to object store %s: %w", cfg.Endpoint, err)
	}
	return &Uploader{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

// Upload stores the file under its base name, creating the bucket on
// first use.
func (u *Uploader) Upload(ctx context.Context, path string) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %s: %w", u.bucket, err)
	}
	if !exists {
		if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("creating bucket %s: %w", u.bucket, err)
		}
	}

	object := filepath.Base(path)
	info, err := u.client.FPutObject(ctx, u.bucket, object, path, minio.PutObjectOptions{
		ContentType: "application/vnd.sqlite3",
	})
	if err != nil {
		return fmt.Errorf("uploading %s: %w", object, err)
	}

	u.logger.Info("schedule uploaded", "bucket", u.bucket, "object", object, "bytes", info.Size)
	metrics.ExportCompleted("minio")
	return nil
}
