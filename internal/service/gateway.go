package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/timmy/r2gate/internal/domain"
	"github.com/timmy/r2gate/internal/logger"
	"github.com/timmy/r2gate/internal/metrics"
	"github.com/timmy/r2gate/internal/storage"
)

// DefaultPresignExpiry is the presigned URL lifetime used when none is given.
const DefaultPresignExpiry = 3600

// Operation errors. Each wraps the underlying cause, so
// errors.Is(err, domain.ErrObjectNotFound) still works on a failed download.
var (
	ErrUpload   = errors.New("failed to upload file")
	ErrDownload = errors.New("failed to download file")
	ErrDelete   = errors.New("failed to delete file")
	ErrList     = errors.New("failed to list files")
	ErrExists   = errors.New("failed to check file")
	ErrPresign  = errors.New("failed to generate presigned URL")
)

// GatewayConfig holds configuration for the storage gateway.
type GatewayConfig struct {
	PresignExpiry int // seconds, used when a caller passes 0
}

// ListOptions selects one page of a listing.
type ListOptions struct {
	Prefix            string
	MaxKeys           int
	ContinuationToken string
}

// StorageGateway exposes the object store as a small set of typed operations.
// It holds no per-request state and is safe for concurrent use.
type StorageGateway struct {
	storage       storage.ObjectStorage
	metrics       *metrics.Metrics
	presignExpiry int
}

// NewStorageGateway creates a new storage gateway.
// Parameters:
//   - store: object storage bound to the target bucket.
//   - m: metrics collector; nil disables metrics.
//   - cfg: gateway configuration; nil uses defaults.
// Returns:
//   - *StorageGateway: initialized gateway.
func NewStorageGateway(store storage.ObjectStorage, m *metrics.Metrics, cfg *GatewayConfig) *StorageGateway {
	expiry := DefaultPresignExpiry
	if cfg != nil && cfg.PresignExpiry > 0 {
		expiry = cfg.PresignExpiry
	}
	return &StorageGateway{
		storage:       store,
		metrics:       m,
		presignExpiry: expiry,
	}
}

// Bucket returns the bucket name the gateway writes to.
func (g *StorageGateway) Bucket() string {
	return g.storage.Bucket()
}

// Upload writes payload under key, silently replacing any existing object.
func (g *StorageGateway) Upload(ctx context.Context, key string, payload []byte, contentType string) (*domain.ObjectResult, error) {
	ctx, done := g.begin(ctx, "upload", key)

	err := g.storage.Upload(ctx, key, bytes.NewReader(payload), int64(len(payload)), contentType)
	done(err, logger.Fields{logger.FieldSize: len(payload)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	g.metrics.AddBytes("in", len(payload))
	return &domain.ObjectResult{Success: true, Key: key}, nil
}

// Download reads the whole object into memory.
func (g *StorageGateway) Download(ctx context.Context, key string) ([]byte, error) {
	ctx, done := g.begin(ctx, "download", key)

	data, err := g.readAll(ctx, key)
	done(err, logger.Fields{logger.FieldSize: len(data)})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDownload, err)
	}

	g.metrics.AddBytes("out", len(data))
	return data, nil
}

func (g *StorageGateway) readAll(ctx context.Context, key string) ([]byte, error) {
	body, err := g.storage.Download(ctx, key)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object body: %w", err)
	}
	return data, nil
}

// Delete removes the object. Whether a missing key is an error is up to the store;
// S3 and R2 report success.
func (g *StorageGateway) Delete(ctx context.Context, key string) (*domain.ObjectResult, error) {
	ctx, done := g.begin(ctx, "delete", key)

	err := g.storage.Delete(ctx, key)
	done(err, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDelete, err)
	}
	return &domain.ObjectResult{Success: true, Key: key}, nil
}

// List returns a single page of objects in the store's native (lexical) order.
func (g *StorageGateway) List(ctx context.Context, opts ListOptions) (*domain.ListResult, error) {
	ctx, done := g.begin(ctx, "list", opts.Prefix)

	page, err := g.storage.List(ctx, storage.ListOptions{
		Prefix:            opts.Prefix,
		MaxKeys:           opts.MaxKeys,
		ContinuationToken: opts.ContinuationToken,
	})
	if err != nil {
		done(err, nil)
		return nil, fmt.Errorf("%w: %w", ErrList, err)
	}
	done(nil, logger.Fields{logger.FieldCount: len(page.Objects)})

	result := &domain.ListResult{
		Files:                 make([]domain.ListedObject, 0, len(page.Objects)),
		IsTruncated:           page.IsTruncated,
		NextContinuationToken: page.NextContinuationToken,
	}
	for _, obj := range page.Objects {
		result.Files = append(result.Files, domain.ListedObject{
			Key:          obj.Key,
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}
	return result, nil
}

// Exists probes object metadata. A missing object is reported as
// {Exists: false} with a nil error.
func (g *StorageGateway) Exists(ctx context.Context, key string) (*domain.ObjectInfo, error) {
	ctx, done := g.begin(ctx, "exists", key)

	stat, err := g.storage.Stat(ctx, key)
	if errors.Is(err, domain.ErrObjectNotFound) {
		done(nil, logger.Fields{"exists": false})
		return &domain.ObjectInfo{Exists: false}, nil
	}
	done(err, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExists, err)
	}

	info := &domain.ObjectInfo{
		Exists:        true,
		ContentType:   stat.ContentType,
		ContentLength: &stat.ContentLength,
		ETag:          stat.ETag,
	}
	if !stat.LastModified.IsZero() {
		lastModified := stat.LastModified
		info.LastModified = &lastModified
	}
	return info, nil
}

// PresignedURL returns a signed GET URL valid for expiresIn seconds
// (the configured default when expiresIn <= 0). The key is not checked.
func (g *StorageGateway) PresignedURL(ctx context.Context, key string, expiresIn int) (string, error) {
	if expiresIn <= 0 {
		expiresIn = g.presignExpiry
	}
	ctx, done := g.begin(ctx, "presign", key)

	url, err := g.storage.PresignGet(ctx, key, time.Duration(expiresIn)*time.Second)
	done(err, logger.Fields{"expires_in": expiresIn})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPresign, err)
	}
	return url, nil
}

// PresignExpiry returns the lifetime used when callers pass 0.
func (g *StorageGateway) PresignExpiry() int {
	return g.presignExpiry
}

// begin tags ctx with the operation fields and returns a func that logs and
// records the outcome.
func (g *StorageGateway) begin(ctx context.Context, op, key string) (context.Context, func(error, logger.Fields)) {
	start := time.Now()
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "gateway",
		logger.FieldOperation: op,
		logger.FieldObjectKey: key,
		logger.FieldBucket:    g.storage.Bucket(),
	})

	return ctx, func(err error, extra logger.Fields) {
		elapsed := time.Since(start)
		g.metrics.ObserveStorage(op, elapsed, err)

		entry := logger.With(logger.Fields{logger.FieldDurationMs: elapsed.Milliseconds()}).With(extra)
		if err != nil {
			entry.With(logger.Fields{"error": err.Error()}).Warn(ctx, "Storage %s failed", op)
			return
		}
		entry.Debug(ctx, "Storage %s completed", op)
	}
}
