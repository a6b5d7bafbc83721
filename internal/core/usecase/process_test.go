package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ezpz4akash/docu-check/internal/core/classify"
	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

type statusCall struct {
	status  domain.JobStatus
	results *domain.JobResults
	errMsg  string
}

type storeFake struct {
	job         *domain.Job
	loadErr     error
	statusErr   error
	pathsErr    error
	createErr   error
	statusCalls []statusCall
	savedPaths  []string
}

func (f *storeFake) Create(context.Context, domain.JobMetadata) (*domain.Job, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.job.Clone(), nil
}

func (f *storeFake) SetSavedPaths(_ context.Context, _ string, paths []string) error {
	if f.pathsErr != nil {
		return f.pathsErr
	}
	f.savedPaths = paths
	return nil
}

func (f *storeFake) UpdateStatus(_ context.Context, _ string, status domain.JobStatus, results *domain.JobResults, errMsg string) error {
	f.statusCalls = append(f.statusCalls, statusCall{status: status, results: results, errMsg: errMsg})
	if f.statusErr != nil {
		return f.statusErr
	}
	f.job.Status = status
	if results != nil {
		f.job.Results = results
	}
	if errMsg != "" {
		f.job.Error = errMsg
	}
	return nil
}

func (f *storeFake) Load(context.Context, string) (*domain.Job, error) {
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.job.Clone(), nil
}

type sourceFake struct {
	units map[string][]domain.TextUnit
	err   error
}

func (f *sourceFake) Extract(_ context.Context, path string) ([]domain.TextUnit, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.units[path], nil
}

func newProcessUC(store *storeFake, source *sourceFake) *ProcessJobUseCase {
	return NewProcessJobUseCase(store, source, classify.New(nil, nil, nil))
}

func TestProcessByIDSuccess(t *testing.T) {
	store := &storeFake{job: &domain.Job{
		ID:         "job-1",
		Status:     domain.StatusQueued,
		SavedPaths: []string{"w2.png"},
	}}
	source := &sourceFake{units: map[string][]domain.TextUnit{
		"w2.png": {{Name: "w2.png", Text: "Form W-2 Wage and Tax Statement"}},
	}}

	if err := newProcessUC(store, source).ProcessByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	if len(store.statusCalls) != 2 {
		t.Fatalf("status calls = %d, want 2", len(store.statusCalls))
	}
	if store.statusCalls[0].status != domain.StatusInProgress {
		t.Fatalf("first transition = %s, want IN_PROGRESS", store.statusCalls[0].status)
	}
	done := store.statusCalls[1]
	if done.status != domain.StatusDone || done.results == nil {
		t.Fatalf("final transition = %s, results nil = %v", done.status, done.results == nil)
	}
	if len(done.results.Found) != 1 || done.results.Found[0].Type != domain.LabelW2 {
		t.Fatalf("findings = %+v", done.results.Found)
	}
	if done.results.Summary.FileCount != 1 || done.results.Summary.Counts[domain.LabelW2] != 1 {
		t.Fatalf("summary = %+v", done.results.Summary)
	}
}

func TestProcessByIDEmptyTextIsDoneNotFailed(t *testing.T) {
	store := &storeFake{job: &domain.Job{
		ID:         "job-1",
		Status:     domain.StatusQueued,
		SavedPaths: []string{"blank.png"},
	}}
	source := &sourceFake{units: map[string][]domain.TextUnit{
		"blank.png": {{Name: "blank.png", Text: "   \n "}},
	}}

	if err := newProcessUC(store, source).ProcessByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}

	done := store.statusCalls[len(store.statusCalls)-1]
	if done.status != domain.StatusDone {
		t.Fatalf("final status = %s, want DONE", done.status)
	}
	if done.results.Summary.FileCount != 0 {
		t.Fatalf("file count = %d, want 0", done.results.Summary.FileCount)
	}
	if len(done.results.Summary.FoundTypes) != 0 {
		t.Fatalf("found types = %v, want empty", done.results.Summary.FoundTypes)
	}
}

func TestProcessByIDNoSavedPathsIsDone(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	source := &sourceFake{}

	if err := newProcessUC(store, source).ProcessByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	done := store.statusCalls[len(store.statusCalls)-1]
	if done.status != domain.StatusDone || done.results.Summary.FileCount != 0 {
		t.Fatalf("final = %+v", done)
	}
}

func TestProcessByIDExtractionFailureMarksFailed(t *testing.T) {
	store := &storeFake{job: &domain.Job{
		ID:         "job-1",
		Status:     domain.StatusQueued,
		SavedPaths: []string{"broken.pdf"},
	}}
	source := &sourceFake{err: errors.New("tesseract exited 1")}

	err := newProcessUC(store, source).ProcessByID(context.Background(), "job-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrExtraction) {
		t.Fatalf("expected ErrExtraction kind, got %v", err)
	}

	final := store.statusCalls[len(store.statusCalls)-1]
	if final.status != domain.StatusFailed {
		t.Fatalf("final status = %s, want FAILED", final.status)
	}
	if final.errMsg == "" {
		t.Fatalf("FAILED without error message")
	}
	if final.results != nil {
		t.Fatalf("results stored on failure")
	}
}

func TestProcessByIDFailedMarkFailureIsReported(t *testing.T) {
	store := &storeFake{
		job:     &domain.Job{ID: "job-1", Status: domain.StatusQueued, SavedPaths: []string{"x"}},
		loadErr: errors.New("store offline"),
	}
	err := newProcessUC(store, &sourceFake{}).ProcessByID(context.Background(), "job-1")
	if err == nil {
		t.Fatalf("expected error")
	}
	// Pipeline failure still attempts the FAILED transition.
	final := store.statusCalls[len(store.statusCalls)-1]
	if final.status != domain.StatusFailed {
		t.Fatalf("final status = %s, want FAILED", final.status)
	}
}

func TestProcessByIDMultiPageAggregation(t *testing.T) {
	store := &storeFake{job: &domain.Job{
		ID:         "job-1",
		Status:     domain.StatusQueued,
		SavedPaths: []string{"bundle.pdf"},
	}}
	source := &sourceFake{units: map[string][]domain.TextUnit{
		"bundle.pdf": {
			{Name: "bundle.pdf:page:1", Text: "Form W-2 Wage and Tax Statement"},
			{Name: "bundle.pdf:page:2", Text: "Gross pay Net pay Pay period year-to-date earnings paystub"},
			{Name: "bundle.pdf:page:3", Text: ""},
		},
	}}

	if err := newProcessUC(store, source).ProcessByID(context.Background(), "job-1"); err != nil {
		t.Fatalf("ProcessByID() error = %v", err)
	}
	done := store.statusCalls[len(store.statusCalls)-1]
	if done.results.Summary.FileCount != 2 {
		t.Fatalf("file count = %d, want 2 (empty page dropped)", done.results.Summary.FileCount)
	}
	if done.results.Summary.Counts[domain.LabelW2] != 1 || done.results.Summary.Counts[domain.LabelPaystub] != 1 {
		t.Fatalf("counts = %v", done.results.Summary.Counts)
	}
}
