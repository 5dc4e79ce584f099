package source

import "context"

// Item is a single file to be uploaded.
type Item struct {
	Key         string // object key relative to the source root, slash-separated
	LocalPath   string
	Size        int64
	ContentType string // empty when unknown
}

// Source yields files for bulk upload.
type Source interface {
	// GetSourceID returns a stable identifier used in logs.
	GetSourceID() string

	// FetchBatch fetches up to limit items starting from cursor ("" for the
	// first batch). nextCursor is empty when there are no more items.
	FetchBatch(ctx context.Context, cursor string, limit int) (items []Item, nextCursor string, err error)
}
