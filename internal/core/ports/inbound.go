package ports

import (
	"context"
	"io"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// JobSubmitter is the inbound contract for accepting a document bundle. The
// returned job reflects the final state in inline mode and QUEUED in queue
// mode; a non-nil error may still carry a job whose id the caller can poll.
type JobSubmitter interface {
	Submit(ctx context.Context, metadata domain.JobMetadata, filename string, file io.Reader) (*domain.Job, error)
}

// JobProcessor runs the classification pipeline for one created job.
type JobProcessor interface {
	ProcessByID(ctx context.Context, jobID string) error
}

// JobReader is the read model for the status/results query surface.
type JobReader interface {
	Load(ctx context.Context, id string) (*domain.Job, error)
}
