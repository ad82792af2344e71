package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/joseph-ayodele/contract-extractor/constants"
	"github.com/joseph-ayodele/contract-extractor/internal/common"
	"github.com/joseph-ayodele/contract-extractor/internal/schema"
)

// MinioStore talks to S3 or any S3-compatible endpoint.
type MinioStore struct {
	client *minio.Client
	logger *slog.Logger
}

// NewMinioStore uses static keys when configured and falls back to the
// instance role otherwise.
func NewMinioStore(cfg common.StorageConfig, logger *slog.Logger) (*MinioStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	creds := credentials.NewIAM("")
	if cfg.AccessKey != "" {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}
	return &MinioStore{client: client, logger: logger}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := s.client.BucketExists(ctx, bucket)
	if err != nil {
		return transportErr("check bucket", bucket, "", err)
	}
	if !exists {
		if err := s.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return transportErr("create bucket", bucket, "", err)
		}
	}
	return nil
}

func (s *MinioStore) Download(ctx context.Context, bucket, key, dst string) error {
	s.logger.Debug("storage.download", "bucket", bucket, "key", key, "dst", dst)
	if err := s.client.FGetObject(ctx, bucket, key, dst, minio.GetObjectOptions{}); err != nil {
		return transportErr("download", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) PutJSON(ctx context.Context, bucket, key string, v any) error {
	b, err := schema.Encode(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.client.PutObject(ctx, bucket, key, bytes.NewReader(b), int64(len(b)), minio.PutObjectOptions{
		ContentType: constants.JSONContentType,
	})
	if err != nil {
		return transportErr("upload", bucket, key, err)
	}
	s.logger.Info("storage.put_json", "bucket", bucket, "key", key, "size_bytes", len(b))
	return nil
}

func (s *MinioStore) GetJSON(ctx context.Context, bucket, key string, v any) error {
	obj, err := s.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return transportErr("get", bucket, key, err)
	}
	defer obj.Close()

	b, err := io.ReadAll(obj)
	if err != nil {
		return transportErr("read", bucket, key, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("decode %s/%s: %w", bucket, key, err)
	}
	return nil
}

func (s *MinioStore) List(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	var keys []string
	for obj := range s.client.ListObjects(ctx, bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, transportErr("list", bucket, prefix, obj.Err)
		}
		if suffix != "" && !strings.HasSuffix(obj.Key, suffix) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	s.logger.Debug("storage.list", "bucket", bucket, "prefix", prefix, "count", len(keys))
	return keys, nil
}

func (s *MinioStore) Exists(ctx context.Context, bucket, key string) (bool, error) {
	_, err := s.client.StatObject(ctx, bucket, key, minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNotFound(err) {
		return false, nil
	}
	return false, transportErr("stat", bucket, key, err)
}

func (s *MinioStore) Delete(ctx context.Context, bucket, key string) error {
	if err := s.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return transportErr("delete", bucket, key, err)
	}
	return nil
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.StatusCode == http.StatusNotFound || resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket"
}

// transportErr classifies a client error as not-found or transport.
func transportErr(op, bucket, key string, err error) error {
	sentinel := common.ErrTransport
	if isNotFound(err) {
		sentinel = common.ErrNotFound
	}
	return fmt.Errorf("%s s3://%s/%s: %w", op, bucket, key, errors.Join(sentinel, err))
}
