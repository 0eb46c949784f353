package cron

import (
	"context"
	"fmt"

	"github.com/victorsanmartin/ferromart-backend/internal/ingest"
	"github.com/victorsanmartin/ferromart-backend/pkg/logger"
)

// synchronizer is the ingest surface the job drives.
type synchronizer interface {
	Sync(ctx context.Context, sourceFolderID string, report ingest.ProgressFunc) (ingest.Stats, error)
}

// runCounter tracks completed sync passes across worker restarts.
type runCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	CounterKey(name string) string
}

// PhotoSyncJob runs the photo ingestion pipeline over the configured source
// folder.
type PhotoSyncJob struct {
	logg         *logger.Logger
	sync         synchronizer
	counter      runCounter
	sourceFolder string
}

// NewPhotoSyncJob wires the job. The counter is optional.
func NewPhotoSyncJob(logg *logger.Logger, sync synchronizer, counter runCounter, sourceFolder string) (*PhotoSyncJob, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if sync == nil {
		return nil, fmt.Errorf("synchronizer required")
	}
	if sourceFolder == "" {
		return nil, fmt.Errorf("source folder id required")
	}
	return &PhotoSyncJob{logg: logg, sync: sync, counter: counter, sourceFolder: sourceFolder}, nil
}

// Name identifies the job in logs and metrics.
func (j *PhotoSyncJob) Name() string {
	return "photo_sync"
}

// Run executes one sync pass and logs each progress event.
func (j *PhotoSyncJob) Run(ctx context.Context) error {
	stats, err := j.sync.Sync(ctx, j.sourceFolder, j.logProgress)
	if err != nil {
		return fmt.Errorf("photo sync: %w", err)
	}
	doneCtx := j.logg.WithFields(ctx, map[string]any{
		"processed": stats.Processed,
		"errors":    stats.Errors,
		"no_sku":    stats.NoSKU,
	})
	if j.counter != nil {
		runs, err := j.counter.Incr(ctx, j.counter.CounterKey(j.Name()+":runs"))
		if err != nil {
			j.logg.Warn(j.logg.WithField(ctx, "error", err.Error()), "failed to bump run counter")
		} else {
			doneCtx = j.logg.WithField(doneCtx, "runs", runs)
		}
	}
	j.logg.Info(doneCtx, "photo sync pass finished")
	return nil
}

func (j *PhotoSyncJob) logProgress(ctx context.Context, event ingest.Progress) {
	eventCtx := j.logg.WithFields(ctx, map[string]any{
		"status":    event.Status.String(),
		"current":   event.Current,
		"total":     event.Total,
		"remaining": event.Remaining,
	})
	if event.Error != "" {
		eventCtx = j.logg.WithField(eventCtx, "error", event.Error)
	}
	j.logg.Debug(eventCtx, "sync progress")
}
