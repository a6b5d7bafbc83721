package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/ezpz4akash/docu-check/internal/core/domain"
)

// Store is the pgx-backed job table. The terminal-state guard lives in the
// UPDATE's WHERE clause, so the transition check and the write are one atomic
// per-row statement.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (s *Store) EnsureSchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083101)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS jobs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	saved_paths JSONB NOT NULL DEFAULT '[]'::jsonb,
	results JSONB,
	error_message TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, metadata domain.JobMetadata) (*domain.Job, error) {
	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}

	now := time.Now().UTC()
	job := &domain.Job{
		ID:        uuid.NewString(),
		Status:    domain.StatusQueued,
		Metadata:  metadata,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO jobs (id, status, metadata, saved_paths, results, error_message, created_at, updated_at)
VALUES ($1, $2, $3, '[]'::jsonb, NULL, '', $4, $4)
`, job.ID, string(job.Status), metaJSON, now)
	if err != nil {
		return nil, fmt.Errorf("insert job: %w", err)
	}
	return job, nil
}

func (s *Store) SetSavedPaths(ctx context.Context, id string, paths []string) error {
	if paths == nil {
		paths = []string{}
	}
	pathsJSON, err := json.Marshal(paths)
	if err != nil {
		return fmt.Errorf("marshal saved paths: %w", err)
	}

	res, err := s.db.ExecContext(ctx, `
UPDATE jobs
SET saved_paths = $2, updated_at = $3
WHERE id = $1
`, id, pathsJSON, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update saved paths: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saved paths rows affected: %w", err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrJobNotFound, "set saved paths", fmt.Errorf("id %s", id))
	}
	return nil
}

// allowedPrev maps each target status to the statuses the lifecycle permits
// it to be reached from.
func allowedPrev(status domain.JobStatus) []domain.JobStatus {
	switch status {
	case domain.StatusInProgress:
		return []domain.JobStatus{domain.StatusQueued}
	case domain.StatusDone:
		return []domain.JobStatus{domain.StatusInProgress}
	case domain.StatusFailed:
		return []domain.JobStatus{domain.StatusQueued, domain.StatusInProgress}
	default:
		return nil
	}
}

func (s *Store) UpdateStatus(
	ctx context.Context,
	id string,
	status domain.JobStatus,
	results *domain.JobResults,
	errMessage string,
) error {
	prev := allowedPrev(status)
	if len(prev) == 0 {
		return domain.WrapError(domain.ErrInvalidInput, "update status", fmt.Errorf("target %s", status))
	}

	var resultsJSON any
	if status == domain.StatusDone && results != nil {
		data, err := json.Marshal(results)
		if err != nil {
			return fmt.Errorf("marshal results: %w", err)
		}
		resultsJSON = data
	}
	if status != domain.StatusFailed {
		errMessage = ""
	}

	query := fmt.Sprintf(`
UPDATE jobs
SET status = $2, results = COALESCE($3, results), error_message = $4, updated_at = $5
WHERE id = $1 AND status IN (%s)
`, statusList(prev))

	res, err := s.db.ExecContext(ctx, query, id, string(status), resultsJSON, errMessage, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update job status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("status rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	// Nothing matched: distinguish a missing job from an illegal transition.
	current, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	kind := domain.ErrInvalidInput
	if current.Status.Terminal() {
		kind = domain.ErrTerminalState
	}
	return domain.WrapError(kind, "update status", fmt.Errorf("%s -> %s", current.Status, status))
}

func (s *Store) Load(ctx context.Context, id string) (*domain.Job, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, status, metadata, saved_paths, results, error_message, created_at, updated_at
FROM jobs
WHERE id = $1
`, id)

	var (
		job       domain.Job
		status    string
		metaRaw   []byte
		pathsRaw  []byte
		resultRaw []byte
	)
	err := row.Scan(&job.ID, &status, &metaRaw, &pathsRaw, &resultRaw, &job.Error, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrJobNotFound, "load job", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}

	job.Status = domain.JobStatus(status)
	if err := json.Unmarshal(metaRaw, &job.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	if err := json.Unmarshal(pathsRaw, &job.SavedPaths); err != nil {
		return nil, fmt.Errorf("unmarshal saved paths: %w", err)
	}
	if len(resultRaw) > 0 {
		var results domain.JobResults
		if err := json.Unmarshal(resultRaw, &results); err != nil {
			return nil, fmt.Errorf("unmarshal results: %w", err)
		}
		job.Results = &results
	}
	return &job, nil
}

func statusList(statuses []domain.JobStatus) string {
	out := ""
	for i, st := range statuses {
		if i > 0 {
			out += ", "
		}
		out += "'" + string(st) + "'"
	}
	return out
}
