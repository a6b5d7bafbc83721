package usecase

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

type bundleStorageFake struct {
	paths    []string
	err      error
	filename string
}

func (f *bundleStorageFake) SaveAndExtract(_ context.Context, _ string, filename string, data io.Reader) ([]string, error) {
	f.filename = filename
	_, _ = io.ReadAll(data)
	if f.err != nil {
		return nil, f.err
	}
	return f.paths, nil
}

type processorFake struct {
	err   error
	calls []string
	apply func(jobID string)
}

func (f *processorFake) ProcessByID(_ context.Context, jobID string) error {
	f.calls = append(f.calls, jobID)
	if f.apply != nil {
		f.apply(jobID)
	}
	return f.err
}

type queueFake struct {
	published []string
	err       error
}

func (f *queueFake) PublishJobQueued(_ context.Context, jobID string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, jobID)
	return nil
}

func (f *queueFake) SubscribeJobQueued(context.Context, func(context.Context, string) error) error {
	return nil
}

var meta = domain.JobMetadata{LoanIntakeID: "loan-9", Program: "conv", Milestone: "intake"}

func TestSubmitInlineSuccess(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	storage := &bundleStorageFake{paths: []string{"/data/job-1/w2.png"}}
	processor := &processorFake{apply: func(string) { store.job.Status = domain.StatusDone }}

	uc := NewSubmitJobUseCase(store, storage, nil, processor, nil)
	job, err := uc.Submit(context.Background(), meta, "w2.png", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Status != domain.StatusDone {
		t.Fatalf("status = %s, want DONE", job.Status)
	}
	if len(processor.calls) != 1 || processor.calls[0] != "job-1" {
		t.Fatalf("processor calls = %v", processor.calls)
	}
	if len(store.savedPaths) != 1 {
		t.Fatalf("saved paths not recorded: %v", store.savedPaths)
	}
}

func TestSubmitStorageFailureMarksFailed(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	storage := &bundleStorageFake{err: errors.New("disk full")}
	processor := &processorFake{}

	uc := NewSubmitJobUseCase(store, storage, nil, processor, nil)
	job, err := uc.Submit(context.Background(), meta, "w2.png", strings.NewReader("bytes"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrStorage) {
		t.Fatalf("expected ErrStorage kind, got %v", err)
	}
	if job == nil || job.ID != "job-1" {
		t.Fatalf("caller should still learn the job id")
	}
	if len(store.statusCalls) != 1 || store.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("status calls = %+v, want one FAILED transition", store.statusCalls)
	}
	if store.statusCalls[0].errMsg == "" {
		t.Fatalf("FAILED without error message")
	}
	if len(processor.calls) != 0 {
		t.Fatalf("processor must not run after storage failure")
	}
}

func TestSubmitQueueModePublishesWithoutProcessing(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	storage := &bundleStorageFake{paths: []string{"/data/job-1/doc.pdf"}}
	processor := &processorFake{}
	queue := &queueFake{}

	uc := NewSubmitJobUseCase(store, storage, queue, processor, nil)
	job, err := uc.Submit(context.Background(), meta, "doc.pdf", strings.NewReader("bytes"))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if job.Status != domain.StatusQueued {
		t.Fatalf("status = %s, want QUEUED", job.Status)
	}
	if len(queue.published) != 1 || queue.published[0] != "job-1" {
		t.Fatalf("published = %v", queue.published)
	}
	if len(processor.calls) != 0 {
		t.Fatalf("inline processor ran in queue mode")
	}
}

func TestSubmitQueuePublishFailureMarksFailed(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	storage := &bundleStorageFake{paths: []string{"/data/job-1/doc.pdf"}}
	queue := &queueFake{err: errors.New("no servers")}

	uc := NewSubmitJobUseCase(store, storage, queue, &processorFake{}, nil)
	_, err := uc.Submit(context.Background(), meta, "doc.pdf", strings.NewReader("bytes"))
	if err == nil {
		t.Fatalf("expected error")
	}
	final := store.statusCalls[len(store.statusCalls)-1]
	if final.status != domain.StatusFailed {
		t.Fatalf("final status = %s, want FAILED", final.status)
	}
}

func TestSubmitInlineProcessorFailureSurfacesFinalState(t *testing.T) {
	store := &storeFake{job: &domain.Job{ID: "job-1", Status: domain.StatusQueued}}
	storage := &bundleStorageFake{paths: []string{"/data/job-1/doc.pdf"}}
	processor := &processorFake{
		err:   errors.New("extraction blew up"),
		apply: func(string) { store.job.Status = domain.StatusFailed; store.job.Error = "extraction blew up" },
	}

	uc := NewSubmitJobUseCase(store, storage, nil, processor, nil)
	job, err := uc.Submit(context.Background(), meta, "doc.pdf", strings.NewReader("bytes"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if job.Status != domain.StatusFailed || job.Error == "" {
		t.Fatalf("job = %+v, want FAILED with message", job)
	}
}
