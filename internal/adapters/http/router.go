package httpadapter

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
	"github.com/ezpz4akash/docu-check/internal/core/ports"
	"github.com/ezpz4akash/docu-check/internal/export"
	"github.com/ezpz4akash/docu-check/internal/observability/metrics"
)

const maxUploadBytes = 64 << 20

type Router struct {
	submitter ports.JobSubmitter
	reader    ports.JobReader
	exporter  *export.Service
	metrics   *metrics.HTTPServerMetrics
	logger    *slog.Logger
}

func NewRouter(
	submitter ports.JobSubmitter,
	reader ports.JobReader,
	exporter *export.Service,
	httpMetrics *metrics.HTTPServerMetrics,
	logger *slog.Logger,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		submitter: submitter,
		reader:    reader,
		exporter:  exporter,
		metrics:   httpMetrics,
		logger:    logger,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", rt.healthz)
	mux.HandleFunc("POST /v1/jobs", rt.submitJob)
	mux.HandleFunc("GET /v1/jobs/{id}/status", rt.jobStatus)
	mux.HandleFunc("GET /v1/jobs/{id}/results", rt.jobResults)
	mux.HandleFunc("GET /v1/jobs/{id}/export", rt.jobExport)
	if rt.metrics != nil {
		mux.Handle("GET /metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware("api", handler)
	}
	return requestIDMiddleware(accessLogMiddleware(rt.logger, handler))
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type jobResponse struct {
	JobID   string             `json:"jobId"`
	Status  domain.JobStatus   `json:"status"`
	Error   string             `json:"error,omitempty"`
	Results *domain.JobResults `json:"results,omitempty"`
}

func (rt *Router) submitJob(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	metadata := domain.JobMetadata{
		LoanIntakeID: strings.TrimSpace(r.FormValue("loanIntakeId")),
		Program:      strings.TrimSpace(r.FormValue("program")),
		Milestone:    strings.TrimSpace(r.FormValue("milestone")),
	}

	job, err := rt.submitter.Submit(r.Context(), metadata, fileHeader.Filename, file)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		payload := map[string]string{"error": err.Error()}
		if job != nil {
			payload["jobId"] = job.ID
		}
		writeJSON(w, status, payload)
		return
	}

	code := http.StatusCreated
	if job.Status == domain.StatusQueued {
		code = http.StatusAccepted
	}
	writeJSON(w, code, jobResponse{JobID: job.ID, Status: job.Status, Error: job.Error})
}

func (rt *Router) jobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := rt.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{JobID: job.ID, Status: job.Status, Error: job.Error})
}

func (rt *Router) jobResults(w http.ResponseWriter, r *http.Request) {
	job, ok := rt.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, jobResponse{
		JobID:   job.ID,
		Status:  job.Status,
		Error:   job.Error,
		Results: job.Results,
	})
}

func (rt *Router) jobExport(w http.ResponseWriter, r *http.Request) {
	job, ok := rt.loadJob(w, r)
	if !ok {
		return
	}

	raw, err := rt.exporter.JobXLSX(job)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "job-"+job.ID+".xlsx"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(raw)
}

func (rt *Router) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "job id is required"})
		return nil, false
	}

	job, err := rt.reader.Load(r.Context(), id)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return nil, false
	}
	return job, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
