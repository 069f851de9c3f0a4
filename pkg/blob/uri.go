package blob

import (
	"fmt"
	"strings"
)

// URI identifies an object across backends, e.g. "gs://bucket/runs/x.json"
// or "s3://bucket/uploads/x/deck.pdf".
type URI struct {
	Scheme string
	Bucket string
	Key    string
}

// ParseURI parses a scheme://bucket/key object URI.
func ParseURI(s string) (URI, error) {
	scheme, rest, ok := strings.Cut(s, "://")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("invalid object URI %q", s)
	}

	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" || key == "" {
		return URI{}, fmt.Errorf("invalid object URI %q", s)
	}

	return URI{Scheme: scheme, Bucket: bucket, Key: key}, nil
}

func (u URI) String() string {
	return u.Scheme + "://" + u.Bucket + "/" + u.Key
}

// FormatURI builds the canonical URI for a backend scheme, bucket and key.
func FormatURI(scheme, bucket, key string) string {
	return URI{Scheme: scheme, Bucket: bucket, Key: key}.String()
}
