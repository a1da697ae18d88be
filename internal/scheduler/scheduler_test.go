package scheduler

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingJob struct {
	name string
	runs atomic.Int64
	err  error
}

func (j *countingJob) Run() error {
	j.runs.Add(1)
	return j.err
}

func (j *countingJob) Name() string { return j.name }

func TestSchedulerRunsRegisteredJob(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}

	require.NoError(t, s.AddJob("@every 100ms", job))
	s.Start()
	defer s.Stop()

	assert.Eventually(t, func() bool {
		return job.runs.Load() >= 2
	}, 3*time.Second, 50*time.Millisecond)
}

func TestSchedulerRejectsBadSchedule(t *testing.T) {
	s := New(zerolog.Nop())
	err := s.AddJob("not a schedule", &countingJob{name: "bad"})
	assert.Error(t, err)
}

func TestSchedulerRunNow(t *testing.T) {
	s := New(zerolog.Nop())

	ok := &countingJob{name: "ok"}
	require.NoError(t, s.RunNow(ok))
	assert.Equal(t, int64(1), ok.runs.Load())

	failing := &countingJob{name: "failing", err: fmt.Errorf("boom")}
	assert.Error(t, s.RunNow(failing))
}

func TestSchedulerStopWaitsForJobs(t *testing.T) {
	s := New(zerolog.Nop())
	job := &countingJob{name: "tick"}
	require.NoError(t, s.AddJob("@every 50ms", job))

	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	after := job.runs.Load()
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, after, job.runs.Load(), "no runs after Stop returns")
}
