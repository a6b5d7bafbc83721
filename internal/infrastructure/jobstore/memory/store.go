package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// Store is the in-process job table: a flat map keyed by job id behind one
// process-wide writer lock. With a snapshot path configured, every mutation
// rewrites a JSON file in the same map-keyed-by-id shape, so partially
// completed jobs survive restarts.
type Store struct {
	mu           sync.RWMutex
	jobs         map[string]*domain.Job
	snapshotPath string
	now          func() time.Time
}

func New(snapshotPath string) (*Store, error) {
	s := &Store{
		jobs:         make(map[string]*domain.Job),
		snapshotPath: snapshotPath,
		now:          func() time.Time { return time.Now().UTC() },
	}
	if snapshotPath != "" {
		if err := s.restore(); err != nil {
			return nil, fmt.Errorf("restore job snapshot: %w", err)
		}
	}
	return s, nil
}

func (s *Store) Create(_ context.Context, metadata domain.JobMetadata) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.StatusQueued,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.jobs[job.ID] = job
	if err := s.persistLocked(); err != nil {
		delete(s.jobs, job.ID)
		return nil, err
	}
	return job.Clone(), nil
}

func (s *Store) SetSavedPaths(_ context.Context, id string, paths []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "set saved paths", fmt.Errorf("id %s", id))
	}
	job.SavedPaths = append([]string(nil), paths...)
	job.UpdatedAt = s.now()
	return s.persistLocked()
}

func (s *Store) UpdateStatus(
	_ context.Context,
	id string,
	status domain.JobStatus,
	results *domain.JobResults,
	errMessage string,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return domain.WrapError(domain.ErrJobNotFound, "update status", fmt.Errorf("id %s", id))
	}
	if !job.Status.CanTransitionTo(status) {
		kind := domain.ErrInvalidInput
		if job.Status.Terminal() {
			kind = domain.ErrTerminalState
		}
		return domain.WrapError(kind, "update status", fmt.Errorf("%s -> %s", job.Status, status))
	}

	prev := *job
	job.Status = status
	if status == domain.StatusDone && results != nil {
		job.Results = results.Clone()
	}
	if status == domain.StatusFailed && errMessage != "" {
		job.Error = errMessage
	}
	job.UpdatedAt = s.now()

	if err := s.persistLocked(); err != nil {
		*job = prev
		return err
	}
	return nil
}

func (s *Store) Load(_ context.Context, id string) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, domain.WrapError(domain.ErrJobNotFound, "load job", fmt.Errorf("id %s", id))
	}
	return job.Clone(), nil
}

// persistLocked writes the whole table atomically: temp file then rename, so
// a crash mid-write never leaves a torn snapshot.
func (s *Store) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.jobs, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal job table: %w", err)
	}
	tmp := s.snapshotPath + ".tmp"
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write job snapshot: %w", err)
	}
	if err := os.Rename(tmp, s.snapshotPath); err != nil {
		return fmt.Errorf("replace job snapshot: %w", err)
	}
	return nil
}

func (s *Store) restore() error {
	data, err := os.ReadFile(s.snapshotPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	jobs := make(map[string]*domain.Job)
	if err := json.Unmarshal(data, &jobs); err != nil {
		return fmt.Errorf("decode job snapshot: %w", err)
	}
	s.jobs = jobs
	return nil
}
