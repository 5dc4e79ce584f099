// Package storagetest provides ObjectStorage doubles for tests.
package storagetest

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/timmy/r2gate/internal/domain"
	"github.com/timmy/r2gate/internal/storage"
)

type memoryObject struct {
	data         []byte
	contentType  string
	lastModified time.Time
	etag         string
}

// Memory is an in-memory ObjectStorage. Keys are listed in lexical order,
// matching S3 ListObjectsV2.
type Memory struct {
	mu      sync.RWMutex
	bucket  string
	objects map[string]memoryObject
	now     func() time.Time
}

var _ storage.ObjectStorage = (*Memory)(nil)

// NewMemory returns an empty in-memory bucket.
func NewMemory(bucket string) *Memory {
	return &Memory{
		bucket:  bucket,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

func (m *Memory) Bucket() string { return m.bucket }

func (m *Memory) EnsureBucket(ctx context.Context) error { return nil }

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(reader)
	if err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}
	sum := md5.Sum(data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{
		data:         data,
		contentType:  contentType,
		lastModified: m.now().UTC(),
		etag:         `"` + hex.EncodeToString(sum[:]) + `"`,
	}
	return nil
}

func (m *Memory) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("failed to download object: %w", domain.ErrObjectNotFound)
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

// Delete is idempotent, like S3 DeleteObject.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *Memory) List(ctx context.Context, opts storage.ListOptions) (*storage.ListPage, error) {
	maxKeys := opts.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	m.mu.RLock()
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		if strings.HasPrefix(k, opts.Prefix) && k > opts.ContinuationToken {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	page := &storage.ListPage{Objects: make([]storage.ObjectSummary, 0)}
	for _, k := range keys {
		if len(page.Objects) == maxKeys {
			page.IsTruncated = true
			page.NextContinuationToken = page.Objects[len(page.Objects)-1].Key
			break
		}
		obj := m.objects[k]
		page.Objects = append(page.Objects, storage.ObjectSummary{
			Key:          k,
			Size:         int64(len(obj.data)),
			LastModified: obj.lastModified,
		})
	}
	m.mu.RUnlock()
	return page, nil
}

func (m *Memory) Stat(ctx context.Context, key string) (*storage.ObjectStat, error) {
	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("failed to check object existence: %w", domain.ErrObjectNotFound)
	}
	return &storage.ObjectStat{
		ContentType:   obj.contentType,
		ContentLength: int64(len(obj.data)),
		LastModified:  obj.lastModified,
		ETag:          obj.etag,
	}, nil
}

// PresignGet returns a fake URL carrying the expiry; it does not check the key.
func (m *Memory) PresignGet(ctx context.Context, key string, expires time.Duration) (string, error) {
	q := url.Values{}
	q.Set("X-Amz-Expires", fmt.Sprintf("%d", int64(expires/time.Second)))
	return fmt.Sprintf("https://%s.memory.local/%s?%s", m.bucket, key, q.Encode()), nil
}
