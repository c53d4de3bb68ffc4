package queue

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"summitclips-server/internal/models"
)

const (
	// errorBackoff pauses the loop after a store failure
	errorBackoff = time.Second
	// finalizeTimeout bounds the last status write of a job
	finalizeTimeout = 10 * time.Second
)

// ErrWorkerShutdown is recorded on jobs interrupted by a stopping worker
var ErrWorkerShutdown = errors.New("worker shut down before the analysis finished")

// JobStore is the queue surface a worker uses
type JobStore interface {
	Dequeue(ctx context.Context) (*Job, error)
	MarkRunning(ctx context.Context, jobID string) error
	Complete(ctx context.Context, jobID string, result *models.AnalysisResult) error
	Fail(ctx context.Context, jobID string, msg string) error
}

// Analyzer runs the analysis pipeline
type Analyzer interface {
	Process(ctx context.Context, videoPath string) *models.AnalysisResult
}

// Worker drains analysis jobs
type Worker struct {
	store    JobStore
	analyzer Analyzer
	logger   zerolog.Logger
}

// NewWorker creates a worker
func NewWorker(store JobStore, analyzer Analyzer, logger zerolog.Logger) *Worker {
	return &Worker{store: store, analyzer: analyzer, logger: logger}
}

// Run processes jobs until ctx is cancelled
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info().Msg("worker stopped")
			return nil
		}
		if _, err := w.ProcessNext(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				continue
			}
			w.logger.Error().Err(err).Msg("job processing error")
			select {
			case <-ctx.Done():
			case <-time.After(errorBackoff):
			}
		}
	}
}

// ProcessNext handles at most one job. It reports whether a job was taken.
func (w *Worker) ProcessNext(ctx context.Context) (bool, error) {
	job, err := w.store.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if job == nil {
		return false, nil
	}

	logger := w.logger.With().Str("job_id", job.ID).Str("video", job.VideoPath).Logger()
	logger.Info().Msg("processing job")

	if err := w.store.MarkRunning(ctx, job.ID); err != nil {
		return true, err
	}

	// final job state must land even when the worker is stopping
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), finalizeTimeout)
	defer cancel()

	if _, err := os.Stat(job.VideoPath); err != nil {
		msg := models.NotFound("video file not found: %s", job.VideoPath).Error()
		logger.Warn().Msg(msg)
		return true, w.store.Fail(writeCtx, job.ID, msg)
	}

	result := w.analyzer.Process(ctx, job.VideoPath)
	if ctx.Err() != nil {
		logger.Warn().Msg("worker shutting down, job interrupted")
		return true, w.store.Fail(writeCtx, job.ID, ErrWorkerShutdown.Error())
	}
	if err := w.store.Complete(writeCtx, job.ID, result); err != nil {
		return true, err
	}
	logger.Info().Bool("fallback", result.Fallback).Int("scenes", len(result.Scenes)).Msg("job completed")
	return true, nil
}
