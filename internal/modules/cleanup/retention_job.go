package cleanup

import (
	"fmt"
	"time"

	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/rs/zerolog"
)

// RetentionJob implements automatic pruning of aged rows.
// Runs daily to trim the sync log, drop price bars beyond the retention
// window, and remove finished quantum jobs that nobody will query again.
type RetentionJob struct {
	historyDB *database.DB
	jobsDB    *database.DB
	log       zerolog.Logger

	// Retention windows. Zero values fall back to defaults in Run.
	SyncLogRetention   time.Duration
	PriceRetention     time.Duration
	FinishedJobsMaxAge time.Duration
}

const (
	defaultSyncLogRetention   = 30 * 24 * time.Hour
	defaultPriceRetention     = 5 * 365 * 24 * time.Hour
	defaultFinishedJobsMaxAge = 90 * 24 * time.Hour
)

// NewRetentionJob creates a new retention job.
func NewRetentionJob(historyDB, jobsDB *database.DB, log zerolog.Logger) *RetentionJob {
	return &RetentionJob{
		historyDB: historyDB,
		jobsDB:    jobsDB,
		log:       log.With().Str("job", "retention").Logger(),
	}
}

// Name returns the job name for scheduler logging.
func (j *RetentionJob) Name() string {
	return "retention"
}

// Run executes the retention job.
func (j *RetentionJob) Run() error {
	j.log.Info().Msg("Starting retention job")
	startTime := time.Now()

	syncCutoff := cutoff(j.SyncLogRetention, defaultSyncLogRetention)
	priceCutoff := cutoff(j.PriceRetention, defaultPriceRetention)
	jobsCutoff := cutoff(j.FinishedJobsMaxAge, defaultFinishedJobsMaxAge)

	syncPruned, err := j.pruneSyncLog(syncCutoff)
	if err != nil {
		return fmt.Errorf("failed to prune sync log: %w", err)
	}

	pricesPruned, err := j.prunePrices(priceCutoff)
	if err != nil {
		return fmt.Errorf("failed to prune price history: %w", err)
	}

	jobsPruned, err := j.pruneFinishedJobs(jobsCutoff)
	if err != nil {
		return fmt.Errorf("failed to prune finished jobs: %w", err)
	}

	j.log.Info().
		Int64("sync_log_rows", syncPruned).
		Int64("price_rows", pricesPruned).
		Int64("job_rows", jobsPruned).
		Dur("duration_ms", time.Since(startTime)).
		Msg("Retention job completed")

	return nil
}

// pruneSyncLog removes sync log entries older than the cutoff.
func (j *RetentionJob) pruneSyncLog(before time.Time) (int64, error) {
	res, err := j.historyDB.Exec(
		`DELETE FROM sync_log WHERE synced_at < ?`,
		before.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// prunePrices removes daily price bars older than the cutoff.
func (j *RetentionJob) prunePrices(before time.Time) (int64, error) {
	res, err := j.historyDB.Exec(
		`DELETE FROM daily_prices WHERE date < ?`,
		before.UTC().Format("2006-01-02"),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// pruneFinishedJobs removes quantum jobs in a terminal state that have not
// been touched since the cutoff. Pending jobs are never deleted.
func (j *RetentionJob) pruneFinishedJobs(before time.Time) (int64, error) {
	res, err := j.jobsDB.Exec(
		`DELETE FROM quantum_jobs WHERE status IN ('Done', 'Error', 'Canceled') AND updated_at < ?`,
		before.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func cutoff(retention, fallback time.Duration) time.Time {
	if retention <= 0 {
		retention = fallback
	}
	return time.Now().Add(-retention)
}
