package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/qrail-tms/qrailgo/internal/config"
)

// MinioStore uploads voice notes to an S3-compatible bucket and hands back
// a URL the mobile clients can play directly.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStore connects to the configured endpoint and makes sure the
// bucket exists. An empty endpoint means uploads are disabled; callers get
// a nil store and must treat voice notes as unavailable.
func NewMinioStore(cfg config.StorageConfig) (*MinioStore, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	store := &MinioStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: strings.TrimRight(cfg.PublicURL, "/"),
	}
	if err := store.ensureBucket(context.Background()); err != nil {
		return nil, err
	}
	log.Printf("🗄️  Object storage ready (bucket %s)", cfg.Bucket)
	return store, nil
}

func (m *MinioStore) ensureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Upload stores one object under a date-partitioned, collision-free key
// and returns its public URL
func (m *MinioStore) Upload(ctx context.Context, name, contentType string, r io.Reader, size int64) (string, error) {
	ext := path.Ext(name)
	objectName := fmt.Sprintf("voice/%s/%s%s",
		time.Now().UTC().Format("2006/01/02"), uuid.NewString(), ext)

	_, err := m.client.PutObject(ctx, m.bucket, objectName, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", name, err)
	}

	if m.publicURL != "" {
		return fmt.Sprintf("%s/%s/%s", m.publicURL, m.bucket, objectName), nil
	}
	return fmt.Sprintf("%s/%s/%s", m.client.EndpointURL(), m.bucket, objectName), nil
}
