package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/advanceai-medora/Medora-AI-sub000/internal/ports"
)

// Jobs couples the interval driver with the ingestion and cleaning passes.
// The cleaner always runs after ingestion completes within the same tick;
// interleaving the two would race the cleaner's duplicate check.
type Jobs struct {
	driver   ports.Scheduler
	ingestor *Ingestor
	cleaner  *Cleaner
	opts     CleanOptions
	logger   *slog.Logger
}

// NewJobs returns a helper to start/stop the recurring pipeline.
func NewJobs(driver ports.Scheduler, ingestor *Ingestor, cleaner *Cleaner, opts CleanOptions, logger *slog.Logger) *Jobs {
	return &Jobs{driver: driver, ingestor: ingestor, cleaner: cleaner, opts: opts, logger: logger}
}

// Start registers the ingest-then-clean job with the driver.
func (j *Jobs) Start(ctx context.Context) error {
	if j.driver == nil {
		return nil
	}

	job := func(time.Time) {
		if _, err := j.ingestor.Run(ctx); err != nil {
			j.logger.Error("scheduled ingestion failed", "error", err)
			return
		}
		if _, err := j.cleaner.Run(ctx, j.opts); err != nil {
			j.logger.Error("scheduled cleaning failed", "error", err)
		}
	}

	return j.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying driver.
func (j *Jobs) Stop(ctx context.Context) error {
	if j.driver == nil {
		return nil
	}
	return j.driver.Stop(ctx)
}
