package storage

import (
	"context"
	"io"
	"time"
)

// ObjectStat holds the metadata returned by a HEAD-style probe.
type ObjectStat struct {
	ContentType   string
	ContentLength int64
	LastModified  time.Time
	ETag          string
}

// ObjectSummary is a single listing entry.
type ObjectSummary struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// ListOptions controls a single listing request.
type ListOptions struct {
	Prefix            string
	MaxKeys           int // 0 leaves the backend default
	ContinuationToken string
}

// ListPage is one page of listing results.
type ListPage struct {
	Objects               []ObjectSummary
	IsTruncated           bool
	NextContinuationToken string
}

// ObjectStorage defines the interface for object storage operations.
// Implementations are bound to a single bucket and are safe for concurrent use.
type ObjectStorage interface {
	// Bucket returns the bucket this storage is bound to
	Bucket() string

	// Upload uploads an object to storage, replacing any existing object under key
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error

	// Download opens the object body; callers must close it.
	// Returns an error wrapping domain.ErrObjectNotFound if the key is absent.
	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete deletes an object from storage
	Delete(ctx context.Context, key string) error

	// List returns a single page of objects
	List(ctx context.Context, opts ListOptions) (*ListPage, error)

	// Stat returns object metadata without reading the body.
	// Returns an error wrapping domain.ErrObjectNotFound if the key is absent.
	Stat(ctx context.Context, key string) (*ObjectStat, error)

	// PresignGet returns a signed GET URL valid for expires
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)

	// EnsureBucket creates the bucket if the backend allows it
	EnsureBucket(ctx context.Context) error

	// Ping checks that the bucket is reachable
	Ping(ctx context.Context) error
}
