package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// GCSStore implements Store using Google Cloud Storage. It uses Application
// Default Credentials (works with Workload Identity, SA keys, gcloud auth).
type GCSStore struct {
	client *gcs.Client
	bucket string
}

// NewGCSStore creates a GCS-backed Store for the given bucket.
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket}, nil
}

// EnsureBucket verifies the bucket exists. GCS buckets are provisioned out
// of band, so a missing bucket is an error rather than created here.
func (s *GCSStore) EnsureBucket(ctx context.Context) error {
	_, err := s.client.Bucket(s.bucket).Attrs(ctx)
	if errors.Is(err, gcs.ErrBucketNotExist) {
		return ErrBucketMissing
	}
	return err
}

// Put writes data under key.
func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("gcs write %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("gcs close %s: %w", key, err)
	}
	return s.URI(key), nil
}

// GetBytes retrieves an object's content.
func (s *GCSStore) GetBytes(ctx context.Context, key string) ([]byte, error) {
	r, err := s.client.Bucket(s.bucket).Object(key).NewReader(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("gcs read %s: %w", key, err)
	}
	defer r.Close()
	return io.ReadAll(r)
}

// Exists reports whether an object is present.
func (s *GCSStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stat returns object metadata.
func (s *GCSStore) Stat(ctx context.Context, key string) (*Object, error) {
	attrs, err := s.client.Bucket(s.bucket).Object(key).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &Object{
		Key:          attrs.Name,
		Bucket:       s.bucket,
		Size:         attrs.Size,
		ContentType:  attrs.ContentType,
		LastModified: attrs.Updated,
	}, nil
}

// Delete removes an object by key.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}

// DeletePrefix removes all objects with the given prefix.
func (s *GCSStore) DeletePrefix(ctx context.Context, prefix string) error {
	it := s.client.Bucket(s.bucket).Objects(ctx, &gcs.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := s.Delete(ctx, attrs.Name); err != nil {
			return err
		}
	}
}

// PresignedGetURL generates a V4 signed URL for downloading an object.
func (s *GCSStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return s.client.Bucket(s.bucket).SignedURL(key, &gcs.SignedURLOptions{
		Method:  "GET",
		Expires: time.Now().Add(expiry),
		Scheme:  gcs.SigningSchemeV4,
	})
}

// URI returns the canonical gs:// URI for a key.
func (s *GCSStore) URI(key string) string {
	return FormatURI("gs", s.bucket, key)
}

// Ensure GCSStore implements Store.
var _ Store = (*GCSStore)(nil)
