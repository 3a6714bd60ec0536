package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"mintwatch/internal/config"
	"mintwatch/internal/logging"
)

// S3Options configures an S3 uploader.
type S3Options struct {
	Endpoint      string
	Bucket        string
	Region        string
	AccessKey     string
	SecretKey     string
	UseSSL        bool
	PublicBaseURL string
	Logger        *slog.Logger
}

// S3 stores payloads in an S3-compatible bucket under their SHA-256 digest, so
// re-uploading the same bytes is a no-op.
type S3 struct {
	*fetcher
	client     *minio.Client
	bucket     string
	publicBase string
	logger     *slog.Logger
}

// NewS3 connects to the object store described by opts.
func NewS3(opts S3Options, fetch *fetcher) (*S3, error) {
	client, err := minio.New(strings.TrimSpace(opts.Endpoint), &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("minio connection: %w", err)
	}
	if fetch == nil {
		fetch = newFetcher(config.Storage{}, opts.Logger)
	}
	return &S3{
		fetcher:    fetch,
		client:     client,
		bucket:     opts.Bucket,
		publicBase: PublicBaseURL(opts.PublicBaseURL, opts.Endpoint, opts.Bucket, opts.UseSSL),
		logger:     logging.NewComponentLogger(opts.Logger, "storage"),
	}, nil
}

// Upload writes data under its content address and returns the public URL.
func (s *S3) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	key := ObjectKey(data, filename)
	uri := s.publicBase + key

	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{}); err == nil && info.Size == int64(len(data)) {
		s.logger.Debug("object already stored", logging.String("key", key))
		return uri, nil
	} else if err != nil && minio.ToErrorResponse(err).Code != "NoSuchKey" {
		s.logger.Debug("stat object failed; uploading anyway", logging.String("key", key), logging.Error(err))
	}

	_, err := s.client.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: map[string]string{"original-name": filename},
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	s.logger.Debug("object stored",
		logging.String("key", key),
		logging.Int64("payload_bytes", int64(len(data))),
	)
	return uri, nil
}

// ObjectKey returns the content address for data, keeping filename's extension.
func ObjectKey(data []byte, filename string) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]) + strings.ToLower(filepath.Ext(filename))
}

// PublicBaseURL returns the URL prefix objects are served from, ending in "/".
// Without an explicit base the path-style bucket URL on the endpoint is used.
func PublicBaseURL(explicit, endpoint, bucket string, useSSL bool) string {
	base := strings.TrimSpace(explicit)
	if base == "" {
		scheme := "http"
		if useSSL {
			scheme = "https"
		}
		base = fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSpace(endpoint), strings.TrimSpace(bucket))
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base
}

// BucketExists reports whether the configured bucket is reachable.
func (s *S3) BucketExists(ctx context.Context) (bool, error) {
	return s.client.BucketExists(ctx, s.bucket)
}
