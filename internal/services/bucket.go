package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"github.com/MForte-AI/character-dev-1225/internal/config"
	"github.com/MForte-AI/character-dev-1225/internal/logger"
)

// ObjectStatus values reported by Stat.
const (
	ObjectPresent     = "present"
	ObjectMissing     = "missing"
	ObjectInvalidPath = "invalid_path"
)

type BucketService interface {
	UploadFile(ctx context.Context, key, contentType string, r io.Reader) error
	DeleteFile(ctx context.Context, key string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Stat(ctx context.Context, key string) (string, error)
}

type bucketService struct {
	log    *logger.Logger
	client *storage.Client
	bucket string
}

func NewBucketService(ctx context.Context, cfg *config.Config, log *logger.Logger) (BucketService, error) {
	serviceLog := log.With("service", "BucketService")
	if cfg.GCSBucket == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_STORAGE_BUCKET is not set")
	}
	var opts []option.ClientOption
	if cfg.GCPCredentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.GCPCredentialsPath))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		serviceLog.Error("Failed to create storage client", "error", err)
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	serviceLog.Info("Bucket client ready", "bucket", cfg.GCSBucket, "project", cfg.GCPProjectID)
	return &bucketService{log: serviceLog, client: client, bucket: cfg.GCSBucket}, nil
}

// ValidObjectPath rejects empty keys, keys naming a folder and keys that
// climb out of the bucket root.
func ValidObjectPath(key string) bool {
	key = strings.TrimSpace(key)
	if key == "" || strings.HasSuffix(key, "/") || strings.Contains(key, "..") {
		return false
	}
	return cleanKey(key) != ""
}

func cleanKey(key string) string {
	return strings.Trim(strings.TrimSpace(key), "/")
}

func (bs *bucketService) UploadFile(ctx context.Context, key, contentType string, r io.Reader) error {
	key = cleanKey(key)
	if key == "" {
		return fmt.Errorf("object key is required")
	}
	w := bs.client.Bucket(bs.bucket).Object(key).NewWriter(ctx)
	if contentType != "" {
		w.ContentType = contentType
	}
	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		bs.log.Error("Failed to write object", "key", key, "error", err)
		return fmt.Errorf("write object %q: %w", key, err)
	}
	if err := w.Close(); err != nil {
		bs.log.Error("Failed to finalize object", "key", key, "error", err)
		return fmt.Errorf("finalize object %q: %w", key, err)
	}
	bs.log.Info("Uploaded object", "key", key)
	return nil
}

// DeleteFile removes the object. A missing object is not an error.
func (bs *bucketService) DeleteFile(ctx context.Context, key string) error {
	key = cleanKey(key)
	if key == "" {
		return nil
	}
	err := bs.client.Bucket(bs.bucket).Object(key).Delete(ctx)
	if err == nil || errors.Is(err, storage.ErrObjectNotExist) {
		return nil
	}
	bs.log.Error("Failed to delete object", "key", key, "error", err)
	return fmt.Errorf("delete object %q: %w", key, err)
}

func (bs *bucketService) SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	key = cleanKey(key)
	if key == "" {
		return "", fmt.Errorf("object key is required")
	}
	url, err := bs.client.Bucket(bs.bucket).SignedURL(key, &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(ttl),
	})
	if err != nil {
		bs.log.Error("Failed to sign url", "key", key, "error", err)
		return "", fmt.Errorf("sign url for %q: %w", key, err)
	}
	return url, nil
}

// Stat classifies key as present, missing or invalid_path.
func (bs *bucketService) Stat(ctx context.Context, key string) (string, error) {
	if !ValidObjectPath(key) {
		return ObjectInvalidPath, nil
	}
	key = cleanKey(key)
	_, err := bs.client.Bucket(bs.bucket).Object(key).Attrs(ctx)
	switch {
	case err == nil:
		return ObjectPresent, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return ObjectMissing, nil
	default:
		return "", fmt.Errorf("stat object %q: %w", key, err)
	}
}
