package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
	"github.com/ezpz4akash/docu-check/internal/core/ports"
)

// SubmitJobUseCase creates a job record, persists the uploaded bundle, and
// dispatches processing: inline on the accepting goroutine by default, or via
// the message queue when one is configured.
type SubmitJobUseCase struct {
	store     ports.JobStore
	storage   ports.BundleStorage
	queue     ports.MessageQueue
	processor ports.JobProcessor
	logger    *slog.Logger
}

func NewSubmitJobUseCase(
	store ports.JobStore,
	storage ports.BundleStorage,
	queue ports.MessageQueue,
	processor ports.JobProcessor,
	logger *slog.Logger,
) *SubmitJobUseCase {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubmitJobUseCase{
		store:     store,
		storage:   storage,
		queue:     queue,
		processor: processor,
		logger:    logger,
	}
}

func (uc *SubmitJobUseCase) Submit(
	ctx context.Context,
	metadata domain.JobMetadata,
	filename string,
	file io.Reader,
) (*domain.Job, error) {
	job, err := uc.store.Create(ctx, metadata)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	paths, err := uc.storage.SaveAndExtract(ctx, job.ID, filename, file)
	if err != nil {
		wrapped := domain.WrapError(domain.ErrStorage, "save upload", err)
		uc.failJob(ctx, job.ID, wrapped)
		return job, wrapped
	}

	if err := uc.store.SetSavedPaths(ctx, job.ID, paths); err != nil {
		uc.failJob(ctx, job.ID, err)
		return job, fmt.Errorf("record saved paths: %w", err)
	}

	if uc.queue != nil {
		if err := uc.queue.PublishJobQueued(ctx, job.ID); err != nil {
			uc.failJob(ctx, job.ID, err)
			return job, fmt.Errorf("publish job: %w", err)
		}
		return uc.store.Load(ctx, job.ID)
	}

	processErr := uc.processor.ProcessByID(ctx, job.ID)

	// The processor has already recorded DONE or FAILED; return the final
	// record either way so the caller sees a definite status.
	final, loadErr := uc.store.Load(ctx, job.ID)
	if loadErr != nil {
		return job, fmt.Errorf("load processed job: %w", loadErr)
	}
	return final, processErr
}

func (uc *SubmitJobUseCase) failJob(ctx context.Context, jobID string, cause error) {
	if err := uc.store.UpdateStatus(ctx, jobID, domain.StatusFailed, nil, cause.Error()); err != nil {
		uc.logger.Error("mark job failed", "job_id", jobID, "error", err)
	}
}
