package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/timmy/r2gate/internal/logger"
	"github.com/timmy/r2gate/internal/source"
)

const defaultIngestBatchSize = 100

// IngestService pushes files from a source into the bucket through the gateway.
type IngestService struct {
	gateway   *StorageGateway
	workers   int
	batchSize int
}

// IngestConfig holds configuration for the ingest service
type IngestConfig struct {
	Workers   int
	BatchSize int
}

// NewIngestService creates a new ingest service
func NewIngestService(gateway *StorageGateway, cfg *IngestConfig) *IngestService {
	s := &IngestService{
		gateway:   gateway,
		workers:   4,
		batchSize: defaultIngestBatchSize,
	}
	if cfg != nil {
		if cfg.Workers > 0 {
			s.workers = cfg.Workers
		}
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
	}
	return s
}

// IngestStats holds statistics for an ingestion run
type IngestStats struct {
	TotalItems    int64
	UploadedItems int64
	SkippedItems  int64
	FailedItems   int64
	UploadedBytes int64
	StartTime     time.Time
	EndTime       time.Time
}

// IngestOptions holds options for ingestion
type IngestOptions struct {
	Prefix       string // prepended to every item key
	SkipExisting bool   // probe each key first and leave existing objects alone
	DryRun       bool   // log what would be uploaded without touching the bucket
}

// IngestFromSource uploads up to limit items (0 = all) from src. Per-item
// failures are counted, not returned; the error is non-nil only when the
// source itself fails or ctx is cancelled.
func (s *IngestService) IngestFromSource(ctx context.Context, src source.Source, limit int, opts *IngestOptions) (*IngestStats, error) {
	if opts == nil {
		opts = &IngestOptions{}
	}

	stats := &IngestStats{StartTime: time.Now()}
	ctx = logger.WithFields(ctx, logger.Fields{
		logger.FieldComponent: "ingest",
		"source":              src.GetSourceID(),
	})

	logger.With(logger.Fields{
		"limit":         limit,
		"prefix":        opts.Prefix,
		"skip_existing": opts.SkipExisting,
		"dry_run":       opts.DryRun,
		"workers":       s.workers,
	}).Info(ctx, "Starting ingestion")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	cursor := ""
	fetched := 0
	var fetchErr error
	for {
		batch := s.batchSize
		if limit > 0 && limit-fetched < batch {
			batch = limit - fetched
		}
		if batch <= 0 {
			break
		}

		items, next, err := src.FetchBatch(gctx, cursor, batch)
		if err != nil {
			fetchErr = fmt.Errorf("failed to fetch batch: %w", err)
			break
		}

		for _, item := range items {
			if gctx.Err() != nil {
				break
			}
			atomic.AddInt64(&stats.TotalItems, 1)
			g.Go(func() error {
				s.processItem(gctx, item, opts, stats)
				return nil
			})
		}

		fetched += len(items)
		if next == "" || len(items) == 0 || gctx.Err() != nil {
			break
		}
		cursor = next
	}

	_ = g.Wait()
	stats.EndTime = time.Now()

	logger.With(logger.Fields{
		"total":    stats.TotalItems,
		"uploaded": stats.UploadedItems,
		"skipped":  stats.SkippedItems,
		"failed":   stats.FailedItems,
		"bytes":    stats.UploadedBytes,
		"duration": stats.EndTime.Sub(stats.StartTime).String(),
	}).Info(ctx, "Ingestion completed")

	if fetchErr != nil {
		return stats, fetchErr
	}
	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func (s *IngestService) processItem(ctx context.Context, item source.Item, opts *IngestOptions, stats *IngestStats) {
	key := ObjectKey(opts.Prefix, item.Key)
	ctx = logger.SetObjectKey(ctx, key)

	if opts.SkipExisting {
		info, err := s.gateway.Exists(ctx, key)
		if err != nil {
			atomic.AddInt64(&stats.FailedItems, 1)
			logger.With(logger.Fields{"error": err.Error()}).Warn(ctx, "Existence check failed")
			return
		}
		if info.Exists {
			atomic.AddInt64(&stats.SkippedItems, 1)
			logger.CtxDebug(ctx, "Object already exists, skipping")
			return
		}
	}

	if opts.DryRun {
		atomic.AddInt64(&stats.SkippedItems, 1)
		logger.With(logger.Fields{logger.FieldSize: item.Size}).Info(ctx, "Dry run: would upload %s", item.LocalPath)
		return
	}

	data, err := os.ReadFile(item.LocalPath)
	if err != nil {
		atomic.AddInt64(&stats.FailedItems, 1)
		logger.With(logger.Fields{"error": err.Error()}).Warn(ctx, "Failed to read %s", item.LocalPath)
		return
	}

	if _, err := s.gateway.Upload(ctx, key, data, item.ContentType); err != nil {
		atomic.AddInt64(&stats.FailedItems, 1)
		if !errors.Is(err, context.Canceled) {
			logger.With(logger.Fields{"error": err.Error()}).Error(ctx, "Upload failed")
		}
		return
	}

	atomic.AddInt64(&stats.UploadedItems, 1)
	atomic.AddInt64(&stats.UploadedBytes, int64(len(data)))
}

// ObjectKey joins prefix and key with one slash between them. The key is kept
// verbatim apart from a leading slash.
func ObjectKey(prefix, key string) string {
	key = strings.TrimPrefix(key, "/")
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		return key
	}
	return prefix + "/" + key
}
