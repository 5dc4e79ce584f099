package domain

import "time"

// ObjectResult is returned by write-style operations (upload, delete).
type ObjectResult struct {
	Success bool   `json:"success"`
	Key     string `json:"key"`
}

// ObjectInfo describes the outcome of a metadata-only probe.
// Only Exists is set when the object is absent.
type ObjectInfo struct {
	Exists        bool       `json:"exists"`
	ContentType   string     `json:"contentType,omitempty"`
	ContentLength *int64     `json:"contentLength,omitempty"`
	LastModified  *time.Time `json:"lastModified,omitempty"`
	ETag          string     `json:"etag,omitempty"`
}

// ListedObject is a single entry of a listing page.
type ListedObject struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
}

// ListResult is one page of a bucket listing.
type ListResult struct {
	Files                 []ListedObject `json:"files"`
	IsTruncated           bool           `json:"isTruncated"`
	NextContinuationToken string         `json:"nextContinuationToken,omitempty"`
}

// PresignedURL is a time-limited download URL.
type PresignedURL struct {
	URL       string `json:"url"`
	ExpiresIn int    `json:"expiresIn"`
}
