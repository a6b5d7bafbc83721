package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/ezpz4akash/docu-check/internal/core/classify"
	"github.com/ezpz4akash/docu-check/internal/core/domain"
	"github.com/ezpz4akash/docu-check/internal/core/ports"
)

// ProcessJobUseCase is the pipeline orchestrator: text source -> blending
// classifier -> aggregator -> job store, for one submission.
type ProcessJobUseCase struct {
	store      ports.JobStore
	source     ports.TextSource
	classifier *classify.Classifier
}

func NewProcessJobUseCase(
	store ports.JobStore,
	source ports.TextSource,
	classifier *classify.Classifier,
) *ProcessJobUseCase {
	return &ProcessJobUseCase{
		store:      store,
		source:     source,
		classifier: classifier,
	}
}

func (uc *ProcessJobUseCase) ProcessByID(ctx context.Context, jobID string) error {
	if err := uc.store.UpdateStatus(ctx, jobID, domain.StatusInProgress, nil, ""); err != nil {
		return fmt.Errorf("set status=in_progress: %w", err)
	}

	results, err := uc.runPipeline(ctx, jobID)
	if err != nil {
		if failErr := uc.store.UpdateStatus(ctx, jobID, domain.StatusFailed, nil, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.store.UpdateStatus(ctx, jobID, domain.StatusDone, results, ""); err != nil {
		return fmt.Errorf("set status=done: %w", err)
	}
	return nil
}

func (uc *ProcessJobUseCase) runPipeline(ctx context.Context, jobID string) (*domain.JobResults, error) {
	job, err := uc.store.Load(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load job: %w", err)
	}

	units, err := uc.extractUnits(ctx, job.SavedPaths)
	if err != nil {
		return nil, err
	}

	// No usable text anywhere in the bundle is a valid outcome, not an
	// error: the job completes with an empty summary.
	findings := make([]domain.Finding, 0, len(units))
	for _, unit := range units {
		findings = append(findings, uc.classifier.Classify(ctx, unit))
	}

	return &domain.JobResults{
		Found:   findings,
		Summary: classify.Summarize(findings),
	}, nil
}

// extractUnits collects text units across all saved paths, dropping units
// whose extracted text is empty after trimming.
func (uc *ProcessJobUseCase) extractUnits(ctx context.Context, paths []string) ([]domain.TextUnit, error) {
	var units []domain.TextUnit
	for _, path := range paths {
		extracted, err := uc.source.Extract(ctx, path)
		if err != nil {
			return nil, domain.WrapError(domain.ErrExtraction, fmt.Sprintf("extract %s", path), err)
		}
		for _, unit := range extracted {
			if strings.TrimSpace(unit.Text) == "" {
				continue
			}
			units = append(units, unit)
		}
	}
	return units, nil
}
