package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/jobs"
)

// JobRefreshJob polls the remote status of pending quantum jobs so
// completed results are available locally without an explicit request.
type JobRefreshJob struct {
	service *jobs.Service
	timeout time.Duration
	log     zerolog.Logger
}

// NewJobRefreshJob creates a job refresh job.
func NewJobRefreshJob(service *jobs.Service, timeout time.Duration, log zerolog.Logger) *JobRefreshJob {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &JobRefreshJob{
		service: service,
		timeout: timeout,
		log:     log.With().Str("job", "job_refresh").Logger(),
	}
}

// Name returns the job identifier.
func (j *JobRefreshJob) Name() string {
	return "job_refresh"
}

// Run refreshes every non-terminal job.
func (j *JobRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	changed, err := j.service.RefreshAll(ctx)
	if err != nil {
		return err
	}
	if changed > 0 {
		j.log.Info().Int("changed", changed).Msg("Job statuses updated")
	}
	return nil
}
