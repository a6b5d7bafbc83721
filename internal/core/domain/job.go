package domain

import "time"

type JobStatus string

const (
	StatusQueued     JobStatus = "QUEUED"
	StatusInProgress JobStatus = "IN_PROGRESS"
	StatusDone       JobStatus = "DONE"
	StatusFailed     JobStatus = "FAILED"
)

// Terminal reports whether the status admits no further transitions.
func (s JobStatus) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransitionTo enforces the forward-only lifecycle
// QUEUED -> IN_PROGRESS -> {DONE, FAILED}. A job may fail straight from
// QUEUED when the upload cannot be saved.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	switch s {
	case StatusQueued:
		return next == StatusInProgress || next == StatusFailed
	case StatusInProgress:
		return next == StatusDone || next == StatusFailed
	default:
		return false
	}
}

// JobMetadata is the caller-supplied loan context attached at submission.
type JobMetadata struct {
	LoanIntakeID string `json:"loanIntakeId"`
	Program      string `json:"program"`
	Milestone    string `json:"milestone"`
}

// TextUnit is one extracted page or image worth of text. Units are ephemeral;
// only the Findings derived from them are persisted.
type TextUnit struct {
	Name string
	Text string
}

// Finding is the classification result for a single text unit. Immutable once
// produced. Reasons holds the matched heuristic keywords for the winning
// label, plus at most one note naming a disagreeing embedding preference.
type Finding struct {
	File       string   `json:"file"`
	Type       Label    `json:"type"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
	Snippet    string   `json:"snippet"`
}

// JobSummary aggregates a job's findings. FoundTypes is in discovery order.
type JobSummary struct {
	FoundTypes []Label       `json:"found_types"`
	FileCount  int           `json:"file_count"`
	Counts     map[Label]int `json:"counts"`
}

type JobResults struct {
	Found   []Finding  `json:"found"`
	Summary JobSummary `json:"summary"`
}

// Job is owned exclusively by the job store. Results is non-nil iff the
// status is DONE; Error is non-empty only when the status is FAILED.
type Job struct {
	ID         string      `json:"id"`
	Status     JobStatus   `json:"status"`
	Metadata   JobMetadata `json:"metadata"`
	SavedPaths []string    `json:"saved_paths,omitempty"`
	Results    *JobResults `json:"results,omitempty"`
	Error      string      `json:"error,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Clone returns a deep copy of the results payload.
func (r *JobResults) Clone() *JobResults {
	if r == nil {
		return nil
	}
	out := JobResults{
		Found:   append([]Finding(nil), r.Found...),
		Summary: r.Summary,
	}
	for i, f := range out.Found {
		if f.Reasons != nil {
			out.Found[i].Reasons = append([]string(nil), f.Reasons...)
		}
	}
	if r.Summary.FoundTypes != nil {
		out.Summary.FoundTypes = append([]Label(nil), r.Summary.FoundTypes...)
	}
	if r.Summary.Counts != nil {
		counts := make(map[Label]int, len(r.Summary.Counts))
		for label, n := range r.Summary.Counts {
			counts[label] = n
		}
		out.Summary.Counts = counts
	}
	return &out
}

// Clone returns a deep copy so store readers never observe a record that a
// concurrent writer is mutating.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	out := *j
	if j.SavedPaths != nil {
		out.SavedPaths = append([]string(nil), j.SavedPaths...)
	}
	out.Results = j.Results.Clone()
	return &out
}
