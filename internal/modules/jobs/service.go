package jobs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/circuit"
	"github.com/1ucian0/client-superstaq/internal/clients/superstaq"
)

// LocalSimulatorTarget runs circuits in-process instead of submitting
// them to the remote service.
const LocalSimulatorTarget = "local_simulator"

// SuperstaqClient is the remote API surface the service depends on.
type SuperstaqClient interface {
	CreateJob(ctx context.Context, req superstaq.CreateJobRequest) (*superstaq.CreateJobResponse, error)
	GetJob(ctx context.Context, jobID string) (*superstaq.JobResult, error)
	GetBalance(ctx context.Context) (*superstaq.BalanceResponse, error)
	GetTargets(ctx context.Context) (*superstaq.TargetsResponse, error)
	GetTargetInfo(ctx context.Context, target string) (*superstaq.TargetInfo, error)
}

// Service submits circuits and tracks the resulting virtual jobs.
type Service struct {
	client        SuperstaqClient
	repo          *Repository
	defaultTarget string
	defaultShots  int
	log           zerolog.Logger
}

// NewService creates a job service.
func NewService(client SuperstaqClient, repo *Repository, defaultTarget string, defaultShots int, log zerolog.Logger) *Service {
	return &Service{
		client:        client,
		repo:          repo,
		defaultTarget: defaultTarget,
		defaultShots:  defaultShots,
		log:           log.With().Str("component", "jobs").Logger(),
	}
}

// Submit validates and serializes the circuits, creates the remote jobs
// (one per circuit) and stores them as a single virtual job whose ID is
// the comma-joined member IDs.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*Job, error) {
	if len(req.Circuits) == 0 {
		return nil, fmt.Errorf("at least one circuit required")
	}
	for i, c := range req.Circuits {
		if err := c.ValidateForSubmission(); err != nil {
			return nil, fmt.Errorf("circuit %d: %w", i, err)
		}
	}

	target := req.Target
	if target == "" {
		target = s.defaultTarget
	}
	shots := req.Shots
	if shots <= 0 {
		shots = s.defaultShots
	}

	serialized, err := circuit.Serialize(req.Circuits...)
	if err != nil {
		return nil, err
	}

	if target == LocalSimulatorTarget {
		return s.submitLocal(req.Circuits, serialized, shots)
	}

	resp, err := s.client.CreateJob(ctx, superstaq.CreateJobRequest{
		SerializedCircuits: map[string]string{"circuits": serialized},
		Repetitions:        shots,
		Target:             target,
		Method:             req.Method,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}
	if len(resp.JobIDs) == 0 {
		return nil, fmt.Errorf("remote accepted the job but returned no job IDs")
	}

	status := resp.Status
	if status == "" {
		status = StatusSubmitted
	}

	members := make([]MemberJob, len(resp.JobIDs))
	for i, id := range resp.JobIDs {
		members[i] = MemberJob{JobID: id, Status: status}
	}

	job := &Job{
		ID:       strings.Join(resp.JobIDs, ","),
		Target:   target,
		Shots:    shots,
		Method:   req.Method,
		Status:   status,
		Circuits: serialized,
		Members:  members,
	}
	if err := s.repo.Save(job); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("job_id", job.ID).
		Str("target", target).
		Int("circuits", len(req.Circuits)).
		Int("shots", shots).
		Msg("Job submitted")
	return job, nil
}

// submitLocal samples the circuits with the in-process simulator and
// records an already-done job.
func (s *Service) submitLocal(circuits []*circuit.Circuit, serialized string, shots int) (*Job, error) {
	sim := circuit.NewSimulator(time.Now().UnixNano())

	members := make([]MemberJob, len(circuits))
	ids := make([]string, len(circuits))
	for i, c := range circuits {
		samples, err := sim.Run(c, shots)
		if err != nil {
			return nil, fmt.Errorf("local simulation of circuit %d failed: %w", i, err)
		}
		ids[i] = "local-" + uuid.NewString()
		members[i] = MemberJob{JobID: ids[i], Status: StatusDone, Samples: samples}
	}

	job := &Job{
		ID:       strings.Join(ids, ","),
		Target:   LocalSimulatorTarget,
		Shots:    shots,
		Status:   StatusDone,
		Circuits: serialized,
		Members:  members,
	}
	if err := s.repo.Save(job); err != nil {
		return nil, err
	}

	s.log.Info().Str("job_id", job.ID).Int("circuits", len(circuits)).Msg("Job simulated locally")
	return job, nil
}

// Get returns the stored state of a virtual job without polling.
func (s *Service) Get(id string) (*Job, error) {
	return s.repo.Get(id)
}

// List returns stored jobs, optionally filtered by status.
func (s *Service) List(status string, limit int) ([]*Job, error) {
	return s.repo.List(status, limit)
}

// Refresh polls the remote state of every non-terminal member and
// re-aggregates the virtual job's status.
func (s *Service) Refresh(ctx context.Context, id string) (*Job, error) {
	job, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(job.Status) {
		return job, nil
	}

	changed := false
	for i := range job.Members {
		member := &job.Members[i]
		if IsTerminal(member.Status) {
			continue
		}

		remote, err := s.client.GetJob(ctx, member.JobID)
		if err != nil {
			s.log.Warn().Err(err).Str("job_id", member.JobID).Msg("Failed to poll job")
			continue
		}

		if remote.Status != member.Status {
			member.Status = remote.Status
			changed = true
		}
		if remote.Status == StatusDone && remote.Samples != nil {
			member.Samples = remote.Samples
			changed = true
		}
	}

	statuses := make([]string, len(job.Members))
	for i, m := range job.Members {
		statuses[i] = m.Status
	}
	if aggregated := AggregateStatus(statuses); aggregated != job.Status {
		job.Status = aggregated
		changed = true
	}

	if changed {
		if err := s.repo.Save(job); err != nil {
			return nil, err
		}
	}
	return job, nil
}

// RefreshAll polls every stored non-terminal job. It returns the number
// of jobs whose status changed.
func (s *Service) RefreshAll(ctx context.Context) (int, error) {
	pending, err := s.repo.ListNonTerminal()
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, job := range pending {
		before := job.Status
		refreshed, err := s.Refresh(ctx, job.ID)
		if err != nil {
			s.log.Warn().Err(err).Str("job_id", job.ID).Msg("Refresh failed")
			continue
		}
		if refreshed.Status != before {
			changed++
		}
	}
	return changed, nil
}

// Result refreshes a job and returns per-circuit counts. Sample keys
// are reversed into qubit order (qubit 0 first).
func (s *Service) Result(ctx context.Context, id string) ([]CountsResult, error) {
	job, err := s.Refresh(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status != StatusDone {
		return nil, fmt.Errorf("job %s is not complete (status %s)", id, job.Status)
	}

	results := make([]CountsResult, len(job.Members))
	for i, member := range job.Members {
		counts := make(map[string]int, len(member.Samples))
		for key, count := range member.Samples {
			counts[ReverseBits(key)] += count
		}
		results[i] = CountsResult{JobID: member.JobID, Counts: counts}
	}
	return results, nil
}

// Cancel marks a non-terminal virtual job and its pending members as
// canceled locally.
func (s *Service) Cancel(id string) (*Job, error) {
	job, err := s.repo.Get(id)
	if err != nil {
		return nil, err
	}
	if IsTerminal(job.Status) {
		return nil, fmt.Errorf("job %s is already %s", id, job.Status)
	}

	for i := range job.Members {
		if !IsTerminal(job.Members[i].Status) {
			job.Members[i].Status = StatusCanceled
		}
	}
	job.Status = StatusCanceled
	if err := s.repo.Save(job); err != nil {
		return nil, err
	}

	s.log.Info().Str("job_id", id).Msg("Job canceled")
	return job, nil
}

// Balance returns the remote account balance.
func (s *Service) Balance(ctx context.Context) (*superstaq.BalanceResponse, error) {
	return s.client.GetBalance(ctx)
}

// Targets returns the remote target catalog.
func (s *Service) Targets(ctx context.Context) (*superstaq.TargetsResponse, error) {
	return s.client.GetTargets(ctx)
}

// TargetInfo returns metadata about one target.
func (s *Service) TargetInfo(ctx context.Context, target string) (*superstaq.TargetInfo, error) {
	return s.client.GetTargetInfo(ctx, target)
}
