// Package publish uploads sorted archives to S3-compatible object storage.
package publish

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"foldersort/internal/config"
)

// ErrBucketMissing is returned by Check when the configured bucket does not exist.
var ErrBucketMissing = errors.New("bucket does not exist")

// Artifact describes an uploaded object.
type Artifact struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
	Size   int64  `json:"size"`
	ETag   string `json:"etag,omitempty"`
}

// Publisher stores a finished archive somewhere outside the job directory.
type Publisher interface {
	Publish(ctx context.Context, runID, localPath string) (Artifact, error)
	Enabled() bool
}

// New returns the publisher described by cfg: a Nop when publishing is
// disabled, otherwise an S3Publisher.
func New(cfg config.Publish) (Publisher, error) {
	if !cfg.Enabled {
		return Nop{}, nil
	}
	return NewS3(cfg)
}

// Nop discards every publish request.
type Nop struct{}

func (Nop) Publish(context.Context, string, string) (Artifact, error) { return Artifact{}, nil }

func (Nop) Enabled() bool { return false }

// S3Publisher uploads to an S3-compatible bucket.
type S3Publisher struct {
	api    *minio.Client
	bucket string
	prefix string
}

var _ Publisher = (*S3Publisher)(nil)

// NewS3 builds a client for cfg. No request is made until Publish or Check.
func NewS3(cfg config.Publish) (*S3Publisher, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}
	return &S3Publisher{
		api:    client,
		bucket: cfg.Bucket,
		prefix: strings.Trim(cfg.Prefix, "/"),
	}, nil
}

func (p *S3Publisher) Enabled() bool { return true }

// ObjectKey returns where a file is stored for a run.
func (p *S3Publisher) ObjectKey(runID, localPath string) string {
	return ObjectKey(p.prefix, runID, filepath.Base(localPath))
}

// ObjectKey joins prefix, run id and file name into an object key.
func ObjectKey(prefix, runID, name string) string {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return path.Join(runID, name)
	}
	return path.Join(prefix, runID, name)
}

// Publish uploads localPath and returns the stored object.
func (p *S3Publisher) Publish(ctx context.Context, runID, localPath string) (Artifact, error) {
	key := p.ObjectKey(runID, localPath)
	info, err := p.api.FPutObject(ctx, p.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: "application/zip",
		UserMetadata: map[string]string{
			"run-id": runID,
		},
	})
	if err != nil {
		return Artifact{}, fmt.Errorf("upload %s to %s/%s: %w", filepath.Base(localPath), p.bucket, key, err)
	}
	return Artifact{Bucket: p.bucket, Key: info.Key, Size: info.Size, ETag: info.ETag}, nil
}

// Check verifies the bucket is reachable and exists.
func (p *S3Publisher) Check(ctx context.Context) error {
	ok, err := p.api.BucketExists(ctx, p.bucket)
	if err != nil {
		return fmt.Errorf("check bucket %s: %w", p.bucket, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrBucketMissing, p.bucket)
	}
	return nil
}
