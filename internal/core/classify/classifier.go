package classify

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// Blending weights. Tunable constants; they must sum to 1.0 so the blended
// score stays in [0,1].
const (
	heuristicWeight = 0.55
	embeddingWeight = 0.45

	// An embedding preference below this similarity is not worth annotating.
	disagreementThreshold = 0.6

	snippetMaxChars = 400
)

// EmbeddingScorer is the single similarity query the classifier consumes: the
// backend's own best label guess with a similarity already rescaled to [0,1].
type EmbeddingScorer interface {
	BestLabel(ctx context.Context, text string) (domain.Label, float64, error)
}

// Classifier turns one text unit into a labeled, scored, explainable finding.
//
// Embedding availability is decided once at construction: a nil scorer means
// heuristics-only for the lifetime of the process. A per-call embedding
// failure degrades that call to no vote and never fails the unit.
type Classifier struct {
	signatures []domain.Signature
	embedder   EmbeddingScorer
	logger     *slog.Logger
}

func New(signatures []domain.Signature, embedder EmbeddingScorer, logger *slog.Logger) *Classifier {
	if len(signatures) == 0 {
		signatures = domain.DefaultSignatures()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		signatures: signatures,
		embedder:   embedder,
		logger:     logger,
	}
}

// EmbeddingEnabled reports the process-wide blending mode.
func (c *Classifier) EmbeddingEnabled() bool {
	return c.embedder != nil
}

func (c *Classifier) Classify(ctx context.Context, unit domain.TextUnit) domain.Finding {
	scores := make([]float64, len(c.signatures))
	matches := make([][]string, len(c.signatures))
	for i, sig := range c.signatures {
		scores[i], matches[i] = Score(unit.Text, sig.Keywords)
	}

	var (
		bestIdx   int
		bestScore float64
		embLabel  domain.Label
		embScore  float64
	)

	if c.embedder == nil {
		bestIdx, bestScore = argmax(scores)
	} else {
		embLabel, embScore = c.embeddingVote(ctx, unit)

		blended := make([]float64, len(c.signatures))
		for i, sig := range c.signatures {
			vote := 0.0
			if embLabel == sig.Label {
				vote = embScore
			}
			blended[i] = heuristicWeight*scores[i] + embeddingWeight*vote
		}
		bestIdx, bestScore = argmax(blended)
	}

	best := c.signatures[bestIdx].Label
	reasons := matches[bestIdx]
	if c.embedder != nil && embLabel != "" && embLabel != best && embScore > disagreementThreshold {
		reasons = append(reasons, fmt.Sprintf("embedding_prefers:%s(%s)", embLabel, formatScore(embScore)))
	}

	return domain.Finding{
		File:       unit.Name,
		Type:       best,
		Confidence: clamp01(round3(bestScore)),
		Reasons:    reasons,
		Snippet:    Snippet(unit.Text, snippetMaxChars),
	}
}

// embeddingVote queries the backend once per unit. Failure or timeout means
// no vote for this call only; the process stays in blended mode.
func (c *Classifier) embeddingVote(ctx context.Context, unit domain.TextUnit) (domain.Label, float64) {
	label, score, err := c.embedder.BestLabel(ctx, unit.Text)
	if err != nil {
		c.logger.Warn("embedding scorer failed, unit scored by heuristics only",
			"unit", unit.Name,
			"error", err,
		)
		return "", 0
	}
	return label, score
}

// argmax returns the first index holding the maximum value; ties resolve to
// the earliest label by deliberate, reproducible convention.
func argmax(values []float64) (int, float64) {
	bestIdx, bestVal := 0, math.Inf(-1)
	for i, v := range values {
		if v > bestVal {
			bestIdx, bestVal = i, v
		}
	}
	return bestIdx, bestVal
}

// Snippet whitespace-normalizes text and truncates it to max characters,
// appending an ellipsis marker when truncated.
func Snippet(text string, max int) string {
	clean := strings.Join(strings.Fields(text), " ")
	runes := []rune(clean)
	if len(runes) <= max {
		return clean
	}
	return string(runes[:max]) + "..."
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
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

func formatScore(v float64) string {
	return strconv.FormatFloat(round3(v), 'g', -1, 64)
}
