package jobs

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// ErrNotFound marks lookups of unknown job IDs.
var ErrNotFound = errors.New("job not found")

// Repository persists virtual jobs in jobs.db. Member details and the
// serialized circuits travel as a msgpack blob; the indexed columns
// cover what queries filter on.
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a job repository.
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repo", "jobs").Logger(),
	}
}

// Save inserts or replaces a virtual job.
func (r *Repository) Save(job *Job) error {
	now := time.Now().UTC().Format(time.RFC3339)
	if job.CreatedAt == "" {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	payload, err := msgpack.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to encode job payload: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO quantum_jobs (id, target, shots, method, status, payload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`, job.ID, job.Target, job.Shots, job.Method, job.Status, payload, job.CreatedAt, job.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save job %s: %w", job.ID, err)
	}
	return nil
}

// Get loads a virtual job by ID.
func (r *Repository) Get(id string) (*Job, error) {
	var payload []byte
	err := r.db.QueryRow("SELECT payload FROM quantum_jobs WHERE id = ?", id).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("job %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}

	var job Job
	if err := msgpack.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	return &job, nil
}

// List returns jobs newest first, optionally filtered by status.
func (r *Repository) List(status string, limit int) ([]*Job, error) {
	if limit <= 0 {
		limit = 50
	}

	query := "SELECT payload FROM quantum_jobs"
	args := []interface{}{}
	if status != "" {
		query += " WHERE status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var job Job
		if err := msgpack.Unmarshal(payload, &job); err != nil {
			r.log.Warn().Err(err).Msg("Skipping undecodable job payload")
			continue
		}
		result = append(result, &job)
	}
	return result, rows.Err()
}

// ListNonTerminal returns jobs whose status can still change.
func (r *Repository) ListNonTerminal() ([]*Job, error) {
	rows, err := r.db.Query(`
		SELECT payload FROM quantum_jobs
		WHERE status NOT IN (?, ?, ?)
		ORDER BY created_at ASC
	`, StatusDone, StatusError, StatusCanceled)
	if err != nil {
		return nil, fmt.Errorf("failed to list non-terminal jobs: %w", err)
	}
	defer rows.Close()

	var result []*Job
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var job Job
		if err := msgpack.Unmarshal(payload, &job); err != nil {
			r.log.Warn().Err(err).Msg("Skipping undecodable job payload")
			continue
		}
		result = append(result, &job)
	}
	return result, rows.Err()
}
