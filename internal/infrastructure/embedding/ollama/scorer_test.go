package ollama

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
	"github.com/ezpz4akash/docu-check/internal/infrastructure/resilience"
)

// protoServer serves /api/embed with one-hot vectors: every text containing
// a marker word for a label gets that label's axis set.
func protoServer(t *testing.T) *httptest.Server {
	t.Helper()

	labels := domain.Labels()
	axis := func(text string) []float32 {
		vec := make([]float32, len(labels))
		lower := strings.ToLower(text)
		for i, label := range labels {
			for _, kw := range markerWords(label) {
				if strings.Contains(lower, kw) {
					vec[i] = 1
				}
			}
		}
		return vec
	}

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		vectors := make([][]float32, 0, len(req.Input))
		for _, text := range req.Input {
			vectors = append(vectors, axis(text))
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"embeddings": vectors})
	}))
}

func markerWords(label domain.Label) []string {
	switch label {
	case domain.LabelW2:
		return []string{"w-2", "wage"}
	case domain.LabelPaystub:
		return []string{"pay", "earnings"}
	case domain.LabelBankStatement:
		return []string{"balance", "statement period", "account"}
	case domain.LabelID:
		return []string{"license", "birth", "identification", "id card"}
	case domain.LabelTWN:
		return []string{"work number", "employment verification"}
	case domain.LabelURLA:
		return []string{"1003", "urla", "residential loan"}
	case domain.LabelCreditReport:
		return []string{"credit", "equifax", "transunion", "experian"}
	default:
		return nil
	}
}

func newTestScorer(t *testing.T, url string) *Scorer {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	exec := resilience.NewExecutor(resilience.Policy{MaxAttempts: 2, InitialBackoff: time.Millisecond, BreakerEnabled: false}, logger)
	return NewScorer(NewClient(url, "test-embed"), exec, ScorerConfig{RequestsPerSec: 1000}, logger)
}

func TestWarmUpAndBestLabel(t *testing.T) {
	server := protoServer(t)
	defer server.Close()

	scorer := newTestScorer(t, server.URL)
	if err := scorer.WarmUp(context.Background()); err != nil {
		t.Fatalf("warm up: %v", err)
	}
	if len(scorer.prototypes) != len(domain.Labels()) {
		t.Fatalf("expected prototypes for every label, got %d", len(scorer.prototypes))
	}

	label, score, err := scorer.BestLabel(context.Background(), "statement period ending balance account number")
	if err != nil {
		t.Fatalf("best label: %v", err)
	}
	if label != domain.LabelBankStatement {
		t.Fatalf("expected BankStatement, got %s", label)
	}
	if score <= 0.5 || score > 1 {
		t.Fatalf("expected rescaled similarity in (0.5, 1], got %v", score)
	}
}

func TestBestLabelBeforeWarmUp(t *testing.T) {
	server := protoServer(t)
	defer server.Close()

	scorer := newTestScorer(t, server.URL)
	if _, _, err := scorer.BestLabel(context.Background(), "anything"); !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding error before warm up, got %v", err)
	}
}

func TestBestLabelServerErrorIsTemporary(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	scorer := newTestScorer(t, server.URL)
	scorer.prototypes = map[domain.Label][]float32{domain.LabelW2: {1}}

	_, _, err := scorer.BestLabel(context.Background(), "anything")
	if !domain.IsKind(err, domain.ErrEmbedding) {
		t.Fatalf("expected embedding kind, got %v", err)
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind for 503, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected one retry for 503, got %d calls", calls)
	}
}

func TestBestLabelBadRequestNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "unknown model", http.StatusBadRequest)
	}))
	defer server.Close()

	scorer := newTestScorer(t, server.URL)
	scorer.prototypes = map[domain.Label][]float32{domain.LabelW2: {1}}

	_, _, err := scorer.BestLabel(context.Background(), "anything")
	if err == nil {
		t.Fatalf("expected error for 400")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("400 must not be temporary: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retries for 400, got %d calls", calls)
	}
}

func TestMeanPool(t *testing.T) {
	got := meanPool([][]float32{{1, 0, 3}, {3, 2, 1}})
	want := []float32{2, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("meanPool[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestCosineBounds(t *testing.T) {
	if c := cosine([]float32{1, 0}, []float32{1, 0}); c != 1 {
		t.Fatalf("identical vectors: %v", c)
	}
	if c := cosine([]float32{1, 0}, []float32{-1, 0}); c != -1 {
		t.Fatalf("opposite vectors: %v", c)
	}
	if c := cosine([]float32{0, 0}, []float32{1, 0}); c != 0 {
		t.Fatalf("zero vector: %v", c)
	}
}
