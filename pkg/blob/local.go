package blob

import (
	"context"
	"os"
	"path/filepath"
	"time"
)

// LocalStore implements Store using the local filesystem. Useful for
// development and tests; presigned URLs degrade to file:// paths.
type LocalStore struct {
	baseDir string
	bucket  string
}

// NewLocalStore creates a LocalStore rooted at baseDir/bucket.
func NewLocalStore(baseDir, bucket string) *LocalStore {
	return &LocalStore{baseDir: baseDir, bucket: bucket}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.baseDir, s.bucket, filepath.FromSlash(key))
}

// EnsureBucket creates the bucket directory.
func (s *LocalStore) EnsureBucket(ctx context.Context) error {
	return os.MkdirAll(filepath.Join(s.baseDir, s.bucket), 0o755)
}

// Put writes data under key.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	p := s.path(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return s.URI(key), nil
}

// GetBytes retrieves an object's content.
func (s *LocalStore) GetBytes(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	return data, err
}

// Exists reports whether an object is present.
func (s *LocalStore) Exists(ctx context.Context, key string) (bool, error) {
	_, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Stat returns object metadata. Content type is not tracked locally.
func (s *LocalStore) Stat(ctx context.Context, key string) (*Object, error) {
	info, err := os.Stat(s.path(key))
	if os.IsNotExist(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return &Object{
		Key:          key,
		Bucket:       s.bucket,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}, nil
}

// Delete removes an object by key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(s.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// DeletePrefix removes all objects with the given prefix.
func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) error {
	err := os.RemoveAll(s.path(prefix))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// PresignedGetURL returns a file:// URL; there is nothing to sign locally.
func (s *LocalStore) PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "file://" + s.path(key), nil
}

// URI returns the canonical file:// URI for a key.
func (s *LocalStore) URI(key string) string {
	return FormatURI("file", s.bucket, key)
}

// Ensure LocalStore implements Store.
var _ Store = (*LocalStore)(nil)
