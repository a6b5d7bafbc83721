package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ezpz4akash/docu-check/internal/config"
	"github.com/ezpz4akash/docu-check/internal/core/classify"
	"github.com/ezpz4akash/docu-check/internal/core/ports"
	"github.com/ezpz4akash/docu-check/internal/core/usecase"
	"github.com/ezpz4akash/docu-check/internal/export"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/embedding/ollama"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/jobstore/memory"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/jobstore/postgres"
	natsqueue "github.com/ezpz4akash/docu-check/internal/infrastructure/queue/nats"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/resilience"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/storage/localfs"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/textsource"
	"github.com/ezpz4akash/docu-check/internal/observability/metrics"
)

type App struct {
	Config config.Config
	Logger *slog.Logger

	Store     ports.JobStore
	Queue     *natsqueue.Queue
	SubmitUC  ports.JobSubmitter
	Processor ports.JobProcessor
	Reader    ports.JobReader
	Exporter  *export.Service

	HTTPMetrics *metrics.HTTPServerMetrics
	JobMetrics  *metrics.JobMetrics

	closeFn func()
}

// New wires the full dependency graph for one process. The service name
// labels metrics ("api" or "worker"). Embedding availability is decided here,
// once: a failed prototype warm-up downgrades the whole process to
// heuristics-only scoring instead of failing per job.
func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, closeStore, err := openJobStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("init bundle storage: %w", err)
	}

	source := textsource.New(textsource.Config{
		TesseractBin: cfg.TesseractBin,
		PdftoppmBin:  cfg.PdftoppmBin,
		OCRDPI:       cfg.OCRDPI,
	}, logger)

	signatures, err := config.LoadSignatures(cfg.LabelsConfigPath)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("load label signatures: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultPolicy(), logger)

	var embedder classify.EmbeddingScorer
	if cfg.EmbeddingEnabled {
		scorer := ollama.NewScorer(
			ollama.NewClient(cfg.OllamaURL, cfg.OllamaEmbedModel),
			executor,
			ollama.ScorerConfig{
				CallTimeout:    time.Duration(cfg.EmbedTimeoutSeconds) * time.Second,
				RequestsPerSec: cfg.EmbedRequestsPerSec,
			},
			logger,
		)
		if err := scorer.WarmUp(ctx); err != nil {
			logger.Warn("embedding warm-up failed, running heuristics-only", "error", err)
		} else {
			embedder = scorer
		}
	}

	classifier := classify.New(signatures, embedder, logger)

	httpMetrics := metrics.NewHTTPServerMetrics(service)
	jobMetrics := metrics.NewJobMetrics(service, httpMetrics.Registry())
	jobMetrics.SetEmbeddingEnabled(classifier.EmbeddingEnabled())

	processor := usecase.NewProcessJobUseCase(store, source, classifier)
	instrumented := &instrumentedProcessor{
		inner:   processor,
		store:   store,
		metrics: jobMetrics,
		service: service,
	}

	var (
		queue        *natsqueue.Queue
		submitQueue  ports.MessageQueue
		closeQueueFn = func() {}
	)
	if cfg.ProcessMode == "queue" {
		queue, err = natsqueue.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, natsqueue.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			closeStore()
			return nil, fmt.Errorf("init message queue: %w", err)
		}
		submitQueue = queue
		closeQueueFn = queue.Close
	}

	submitUC := usecase.NewSubmitJobUseCase(store, storage, submitQueue, instrumented, logger)

	return &App{
		Config: cfg,
		Logger: logger,

		Store:     store,
		Queue:     queue,
		SubmitUC:  submitUC,
		Processor: instrumented,
		Reader:    store,
		Exporter:  export.NewService(logger),

		HTTPMetrics: httpMetrics,
		JobMetrics:  jobMetrics,

		closeFn: func() {
			closeQueueFn()
			closeStore()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func openJobStore(ctx context.Context, cfg config.Config) (ports.JobStore, func(), error) {
	switch cfg.JobStoreDriver {
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		store := postgres.NewStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return store, func() { _ = db.Close() }, nil
	case "memory", "":
		store, err := memory.New(cfg.SnapshotPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open memory job store: %w", err)
		}
		return store, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown jobstore driver %q", cfg.JobStoreDriver)
	}
}
