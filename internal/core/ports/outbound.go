package ports

import (
	"context"
	"io"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// JobStore persists job lifecycle state. All implementations must serialize
// mutations so concurrent submissions never lose updates, and must reject
// transitions out of a terminal status.
type JobStore interface {
	Create(ctx context.Context, metadata domain.JobMetadata) (*domain.Job, error)
	SetSavedPaths(ctx context.Context, id string, paths []string) error
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus, results *domain.JobResults, errMessage string) error
	Load(ctx context.Context, id string) (*domain.Job, error)
}

// BundleStorage saves one upload for a job and returns the paths of the
// regular files it produced: archive members are flattened and hidden/system
// entries skipped.
type BundleStorage interface {
	SaveAndExtract(ctx context.Context, jobID, filename string, data io.Reader) ([]string, error)
}

// TextSource produces one text unit per image or PDF page, in natural page
// order. An unreadable file yields an empty slice, not an error.
type TextSource interface {
	Extract(ctx context.Context, path string) ([]domain.TextUnit, error)
}

// EmbeddingScorer is the embedding backend's single similarity query: its own
// best label guess with a similarity rescaled to [0,1].
type EmbeddingScorer interface {
	BestLabel(ctx context.Context, text string) (domain.Label, float64, error)
}

// MessageQueue hands queued job ids to the worker in queue mode.
type MessageQueue interface {
	PublishJobQueued(ctx context.Context, jobID string) error
	SubscribeJobQueued(ctx context.Context, handler func(context.Context, string) error) error
}
