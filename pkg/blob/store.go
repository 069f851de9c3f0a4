// Package blob provides object storage for uploaded pitch files and the
// result artifacts written by the external analysis job.
package blob

import (
	"context"
	"time"
)

// Object describes a stored object.
type Object struct {
	Key          string    `json:"key"`           // object key (e.g. "uploads/abc123/deck.pdf")
	Bucket       string    `json:"bucket"`        // bucket name
	Size         int64     `json:"size"`          // size in bytes
	ContentType  string    `json:"content_type"`  // MIME type
	LastModified time.Time `json:"last_modified"` // last modification time
}

// Store defines the interface for object storage operations. Implementations
// are bound to a single bucket; keys are opaque slash-separated paths.
type Store interface {
	// Put writes data under key and returns the canonical URI
	// (e.g. "s3://bucket/uploads/abc123/deck.pdf").
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)

	// GetBytes retrieves an object's content. Returns ErrNotFound when the
	// object does not exist.
	GetBytes(ctx context.Context, key string) ([]byte, error)

	// Exists reports whether an object is present. This is a metadata call,
	// never a download.
	Exists(ctx context.Context, key string) (bool, error)

	// Stat returns object metadata. Returns ErrNotFound when absent.
	Stat(ctx context.Context, key string) (*Object, error)

	// Delete removes an object. Deleting a missing object is not an error.
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes all objects under prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	// PresignedGetURL generates a time-limited download URL.
	PresignedGetURL(ctx context.Context, key string, expiry time.Duration) (string, error)

	// URI returns the canonical URI for a key without touching the store.
	URI(key string) string

	// EnsureBucket ensures the bucket exists, creating it if necessary.
	EnsureBucket(ctx context.Context) error
}

// UploadPrefix returns the key prefix for a report's uploaded files.
func UploadPrefix(reportID string) string {
	return "uploads/" + reportID + "/"
}

// UploadKey returns the full key for one uploaded file.
func UploadKey(reportID, filename string) string {
	return UploadPrefix(reportID) + filename
}

// ArtifactKey returns the well-known key the external analysis job writes
// its result to. It is computable before the artifact exists.
func ArtifactKey(artifactRoot, reportID string) string {
	return artifactRoot + "/" + reportID + ".json"
}
