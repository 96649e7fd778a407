// Package objectstore mirrors persisted dataset artifacts to an S3-compatible
// bucket.
package objectstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-data-etl/internal/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

const contentType = "text/csv; charset=utf-8"

// Mirror uploads local artifacts to a single bucket. It implements
// pipeline.Mirror.
type Mirror struct {
	client *minio.Client
	bucket string
	region string
	logger *slog.Logger
}

// NewMirror creates a MinIO client from the MINIO_* settings.
func NewMirror(cfg *config.Config, logger *slog.Logger) (*Mirror, error) {
	if cfg.MinioEndpoint == "" {
		return nil, errors.New("minio endpoint is required")
	}
	client, err := minio.New(cfg.MinioEndpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.MinioAccessKey, cfg.MinioSecretKey, ""),
		Secure:    cfg.MinioUseSSL,
		Region:    cfg.MinioRegion,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &Mirror{
		client: client,
		bucket: cfg.MinioBucket,
		region: cfg.MinioRegion,
		logger: logger,
	}, nil
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Mirror) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: m.region}); err != nil {
		return fmt.Errorf("create bucket %s: %w", m.bucket, err)
	}
	m.logger.Info("bucket created", "bucket", m.bucket)
	return nil
}

// Upload copies the file at localPath to key, replacing any existing object.
func (m *Mirror) Upload(ctx context.Context, key, localPath string) error {
	info, err := m.client.FPutObject(ctx, m.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("upload %s to %s/%s: %w", localPath, m.bucket, key, err)
	}
	m.logger.Debug("artifact mirrored",
		"bucket", m.bucket,
		"key", key,
		"size", info.Size,
	)
	return nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          16,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
