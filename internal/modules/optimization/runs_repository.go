package optimization

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// StoredRun is a persisted optimization run.
type StoredRun struct {
	ID             string       `json:"id"`
	Symbols        []string     `json:"symbols"`
	Allocations    []Allocation `json:"allocations"`
	ExpectedReturn float64      `json:"expected_return"`
	Volatility     float64      `json:"volatility"`
	SharpeRatio    float64      `json:"sharpe_ratio"`
	Energy         float64      `json:"energy"`
	NumReads       int          `json:"num_reads"`
	BitsPerAsset   int          `json:"bits_per_asset"`
	CreatedAt      string       `json:"created_at"`
}

// RunRepository persists optimization runs in jobs.db.
type RunRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRunRepository creates a run repository.
func NewRunRepository(db *sql.DB, log zerolog.Logger) *RunRepository {
	return &RunRepository{
		db:  db,
		log: log.With().Str("repo", "optimization_runs").Logger(),
	}
}

// SaveRun writes one run.
func (r *RunRepository) SaveRun(result *Result, symbols []string) error {
	weightsJSON, err := json.Marshal(result.Allocations)
	if err != nil {
		return fmt.Errorf("failed to marshal allocations: %w", err)
	}

	_, err = r.db.Exec(`
		INSERT INTO optimization_runs
			(id, symbols, weights_json, expected_return, volatility, sharpe_ratio, energy, reads, bits_per_asset, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID,
		strings.Join(symbols, ","),
		string(weightsJSON),
		result.ExpectedReturn,
		result.Volatility,
		result.SharpeRatio,
		result.Energy,
		result.NumReads,
		result.BitsPerAsset,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (r *RunRepository) ListRuns(limit int) ([]StoredRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, symbols, weights_json, expected_return, volatility, sharpe_ratio, energy, reads, bits_per_asset, created_at
		FROM optimization_runs
		ORDER BY created_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []StoredRun
	for rows.Next() {
		var run StoredRun
		var symbols, weightsJSON string
		if err := rows.Scan(
			&run.ID, &symbols, &weightsJSON,
			&run.ExpectedReturn, &run.Volatility, &run.SharpeRatio,
			&run.Energy, &run.NumReads, &run.BitsPerAsset, &run.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		run.Symbols = strings.Split(symbols, ",")
		if err := json.Unmarshal([]byte(weightsJSON), &run.Allocations); err != nil {
			r.log.Warn().Err(err).Str("run_id", run.ID).Msg("Failed to decode allocations")
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRun returns a single run by ID.
func (r *RunRepository) GetRun(id string) (*StoredRun, error) {
	var run StoredRun
	var symbols, weightsJSON string
	err := r.db.QueryRow(`
		SELECT id, symbols, weights_json, expected_return, volatility, sharpe_ratio, energy, reads, bits_per_asset, created_at
		FROM optimization_runs WHERE id = ?
	`, id).Scan(
		&run.ID, &symbols, &weightsJSON,
		&run.ExpectedReturn, &run.Volatility, &run.SharpeRatio,
		&run.Energy, &run.NumReads, &run.BitsPerAsset, &run.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}
	run.Symbols = strings.Split(symbols, ",")
	if err := json.Unmarshal([]byte(weightsJSON), &run.Allocations); err != nil {
		return nil, fmt.Errorf("failed to decode allocations: %w", err)
	}
	return &run, nil
}
