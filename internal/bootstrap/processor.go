package bootstrap

import (
	"context"
	"time"

	"github.com/ezpz4akash/docu-check/internal/core/ports"
	"github.com/ezpz4akash/docu-check/internal/observability/metrics"
)

// instrumentedProcessor records per-job metrics around the pipeline without
// the use case knowing about Prometheus.
type instrumentedProcessor struct {
	inner   ports.JobProcessor
	store   ports.JobStore
	metrics *metrics.JobMetrics
	service string
}

func (p *instrumentedProcessor) ProcessByID(ctx context.Context, jobID string) error {
	start := time.Now()
	p.metrics.StartJob()

	err := p.inner.ProcessByID(ctx, jobID)
	p.metrics.FinishJob(p.service, time.Since(start), err)

	if err == nil {
		if job, loadErr := p.store.Load(ctx, jobID); loadErr == nil && job.Results != nil {
			for _, finding := range job.Results.Found {
				p.metrics.RecordFinding(p.service, string(finding.Type))
			}
			p.metrics.ObserveTextUnits(p.service, len(job.Results.Found))
		}
	}
	return err
}
