package ollama

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"golang.org/x/time/rate"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/resilience"
)

// ScorerConfig tunes the embedding round trips; zero values get safe defaults.
type ScorerConfig struct {
	CallTimeout    time.Duration
	RequestsPerSec float64
}

func (c *ScorerConfig) applyDefaults() {
	if c.CallTimeout <= 0 {
		c.CallTimeout = 15 * time.Second
	}
	if c.RequestsPerSec <= 0 {
		c.RequestsPerSec = 4
	}
}

// Scorer answers "which label does this text look most like" by comparing the
// text's embedding against per-label prototype vectors built during WarmUp.
type Scorer struct {
	client     *Client
	executor   *resilience.Executor
	limiter    *rate.Limiter
	timeout    time.Duration
	prototypes map[domain.Label][]float32
	logger     *slog.Logger
}

func NewScorer(client *Client, executor *resilience.Executor, cfg ScorerConfig, logger *slog.Logger) *Scorer {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Scorer{
		client:   client,
		executor: executor,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSec), 1),
		timeout:  cfg.CallTimeout,
		logger:   logger,
	}
}

// WarmUp embeds every prototype text and mean-pools the vectors per label.
// It must succeed before BestLabel is usable; callers decide at startup
// whether a warm-up failure disables embedding scoring for the process.
func (s *Scorer) WarmUp(ctx context.Context) error {
	protoTexts := domain.DefaultPrototypes()

	prototypes := make(map[domain.Label][]float32, len(protoTexts))
	for _, label := range domain.Labels() {
		texts := protoTexts[label]
		if len(texts) == 0 {
			return fmt.Errorf("no prototype texts for label %s", label)
		}

		vectors, err := s.embed(ctx, texts)
		if err != nil {
			return fmt.Errorf("embed prototypes for %s: %w", label, err)
		}
		prototypes[label] = meanPool(vectors)
	}

	s.prototypes = prototypes
	s.logger.Info("embedding prototypes ready", "labels", len(prototypes))
	return nil
}

// BestLabel returns the label whose prototype is closest to the text, with a
// similarity rescaled from cosine [-1,1] into [0,1].
func (s *Scorer) BestLabel(ctx context.Context, text string) (domain.Label, float64, error) {
	if len(s.prototypes) == 0 {
		return "", 0, domain.WrapError(domain.ErrEmbedding, "best label", fmt.Errorf("scorer not warmed up"))
	}

	vectors, err := s.embed(ctx, []string{text})
	if err != nil {
		return "", 0, domain.WrapError(domain.ErrEmbedding, "best label", err)
	}
	query := vectors[0]

	var (
		best      domain.Label
		bestScore = math.Inf(-1)
	)
	for _, label := range domain.Labels() {
		proto, ok := s.prototypes[label]
		if !ok {
			continue
		}
		score := (cosine(query, proto) + 1) / 2
		if score > bestScore {
			best = label
			bestScore = score
		}
	}
	return best, clamp01(bestScore), nil
}

func (s *Scorer) embed(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var vectors [][]float32
	err := s.executor.Execute(ctx, "ollama_embed", func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()

		out, err := s.client.Embed(callCtx, texts)
		if err != nil {
			return err
		}
		vectors = out
		return nil
	}, classifyEmbedError)
	if err != nil {
		return nil, wrapTemporaryIfNeeded("ollama_embed", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: %d != %d", len(vectors), len(texts))
	}
	return vectors, nil
}

func meanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	out := make([]float32, len(vectors[0]))
	for _, vec := range vectors {
		for i := range out {
			if i < len(vec) {
				out[i] += vec[i]
			}
		}
	}
	n := float32(len(vectors))
	for i := range out {
		out[i] /= n
	}
	return out
}

func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
