package jobs

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ucian0/client-superstaq/internal/circuit"
	"github.com/1ucian0/client-superstaq/internal/clients/superstaq"
	"github.com/1ucian0/client-superstaq/internal/database"
)

// fakeClient is an in-memory remote: submissions get sequential IDs and
// job states advance as the test dictates.
type fakeClient struct {
	nextID    int
	states    map[string]*superstaq.JobResult
	createErr error
	getCalls  map[string]int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		states:   make(map[string]*superstaq.JobResult),
		getCalls: make(map[string]int),
	}
}

func (f *fakeClient) CreateJob(ctx context.Context, req superstaq.CreateJobRequest) (*superstaq.CreateJobResponse, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}

	circuits, err := circuit.Deserialize(req.SerializedCircuits["circuits"])
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(circuits))
	for i := range circuits {
		f.nextID++
		id := fmt.Sprintf("remote-%d", f.nextID)
		ids[i] = id
		f.states[id] = &superstaq.JobResult{JobID: id, Status: StatusQueued, Target: req.Target, Shots: req.Repetitions}
	}
	return &superstaq.CreateJobResponse{JobIDs: ids, Status: StatusSubmitted}, nil
}

func (f *fakeClient) GetJob(ctx context.Context, jobID string) (*superstaq.JobResult, error) {
	f.getCalls[jobID]++
	state, ok := f.states[jobID]
	if !ok {
		return nil, &superstaq.APIError{StatusCode: 404, Message: "job not found"}
	}
	return state, nil
}

func (f *fakeClient) GetBalance(ctx context.Context) (*superstaq.BalanceResponse, error) {
	return &superstaq.BalanceResponse{}, nil
}

func (f *fakeClient) GetTargets(ctx context.Context) (*superstaq.TargetsResponse, error) {
	return &superstaq.TargetsResponse{CompileAndRun: []string{"ibmq_qasm_simulator"}}, nil
}

func (f *fakeClient) GetTargetInfo(ctx context.Context, target string) (*superstaq.TargetInfo, error) {
	return &superstaq.TargetInfo{}, nil
}

func (f *fakeClient) setStatus(id, status string) {
	f.states[id].Status = status
}

func (f *fakeClient) setDone(id string, samples map[string]int) {
	f.states[id].Status = StatusDone
	f.states[id].Samples = samples
}

func newTestService(t *testing.T) (*Service, *fakeClient) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "jobs.db"),
		Profile: database.ProfileStandard,
		Name:    "jobs",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	client := newFakeClient()
	repo := NewRepository(db.Conn(), zerolog.Nop())
	return NewService(client, repo, "ibmq_qasm_simulator", 100, zerolog.Nop()), client
}

func TestAggregateStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []string
		want     string
	}{
		{"all done", []string{StatusDone, StatusDone}, StatusDone},
		{"one still queued", []string{StatusDone, StatusQueued}, StatusQueued},
		{"submitted beats running", []string{StatusRunning, StatusSubmitted}, StatusSubmitted},
		{"queued beats running", []string{StatusRunning, StatusQueued, StatusDone}, StatusQueued},
		{"error beats canceled", []string{StatusCanceled, StatusError, StatusDone}, StatusError},
		{"error reported only when nothing pending", []string{StatusError, StatusQueued}, StatusQueued},
		{"single", []string{StatusRunning}, StatusRunning},
		{"empty", nil, StatusError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, AggregateStatus(tt.statuses))
		})
	}
}

func TestMemberIDs(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, MemberIDs("a,b,c"))
	assert.Equal(t, []string{"solo"}, MemberIDs("solo"))
	assert.Empty(t, MemberIDs(""))
}

func TestReverseBits(t *testing.T) {
	assert.Equal(t, "011", ReverseBits("110"))
	assert.Equal(t, "1", ReverseBits("1"))
	assert.Equal(t, "", ReverseBits(""))
}

func TestSubmitSingleCircuit(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
		Shots:    500,
	})
	require.NoError(t, err)

	assert.Equal(t, "remote-1", job.ID)
	assert.Equal(t, "ibmq_qasm_simulator", job.Target, "default target applies")
	assert.Equal(t, 500, job.Shots)
	assert.Equal(t, StatusSubmitted, job.Status)
	require.Len(t, job.Members, 1)
}

func TestSubmitMultipleCircuitsJoinsIDs(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell(), circuit.New(1).X(0).MeasureAll()},
	})
	require.NoError(t, err)

	assert.Equal(t, "remote-1,remote-2", job.ID)
	assert.Equal(t, 100, job.Shots, "default shots apply")
	require.Len(t, job.Members, 2)

	// The stored job round-trips through the msgpack payload.
	loaded, err := service.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, loaded.ID)
	assert.Len(t, loaded.Members, 2)
	assert.NotEmpty(t, loaded.Circuits)
}

func TestSubmitRejectsUnmeasuredCircuit(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.New(2).H(0)},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no measurements")
}

func TestRefreshAggregatesWorstStatus(t *testing.T) {
	service, client := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell(), circuit.Bell()},
	})
	require.NoError(t, err)

	// One member finishes, the other is still queued: virtual status
	// must stay non-terminal.
	client.setDone("remote-1", map[string]int{"00": 50, "11": 50})
	client.setStatus("remote-2", StatusRunning)

	refreshed, err := service.Refresh(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, refreshed.Status)

	// Second member completes: now the job is done.
	client.setDone("remote-2", map[string]int{"00": 100})
	refreshed, err = service.Refresh(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, refreshed.Status)
}

func TestRefreshSkipsTerminalMembers(t *testing.T) {
	service, client := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell(), circuit.Bell()},
	})
	require.NoError(t, err)

	client.setDone("remote-1", map[string]int{"00": 100})
	_, err = service.Refresh(context.Background(), job.ID)
	require.NoError(t, err)
	callsAfterFirst := client.getCalls["remote-1"]

	client.setDone("remote-2", map[string]int{"11": 100})
	_, err = service.Refresh(context.Background(), job.ID)
	require.NoError(t, err)

	assert.Equal(t, callsAfterFirst, client.getCalls["remote-1"], "done members must not be re-polled")
}

func TestResultReversesBitOrder(t *testing.T) {
	service, client := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.New(3).X(0).MeasureAll()},
	})
	require.NoError(t, err)

	// Remote reports highest qubit first: qubit 0 set reads "001".
	client.setDone("remote-1", map[string]int{"001": 100})

	results, err := service.Result(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, map[string]int{"100": 100}, results[0].Counts)
}

func TestResultFailsWhileIncomplete(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
	})
	require.NoError(t, err)

	_, err = service.Result(context.Background(), job.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not complete")
}

func TestLocalSimulatorTarget(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
		Target:   LocalSimulatorTarget,
		Shots:    200,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusDone, job.Status)

	results, err := service.Result(context.Background(), job.ID)
	require.NoError(t, err)
	require.Len(t, results, 1)

	total := 0
	for key, count := range results[0].Counts {
		assert.Contains(t, []string{"00", "11"}, key)
		total += count
	}
	assert.Equal(t, 200, total)
}

func TestCancel(t *testing.T) {
	service, _ := newTestService(t)

	job, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
	})
	require.NoError(t, err)

	canceled, err := service.Cancel(job.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCanceled, canceled.Status)

	// A canceled job cannot be canceled again.
	_, err = service.Cancel(job.ID)
	assert.Error(t, err)
}

func TestRefreshAll(t *testing.T) {
	service, client := newTestService(t)

	first, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
	})
	require.NoError(t, err)
	second, err := service.Submit(context.Background(), SubmitRequest{
		Circuits: []*circuit.Circuit{circuit.Bell()},
	})
	require.NoError(t, err)

	client.setDone(first.ID, map[string]int{"00": 100})

	changed, err := service.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, changed, "one job went Done, the other Submitted->Queued")

	updated, err := service.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDone, updated.Status)

	stillPending, err := service.Get(second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusQueued, stillPending.Status)
}

func TestGetUnknownJob(t *testing.T) {
	service, _ := newTestService(t)

	_, err := service.Get("missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}
