package annealing

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ucian0/client-superstaq/internal/modules/qubo"
)

func testSampler(config Config) *Sampler {
	return NewSampler(config, zerolog.Nop())
}

func TestSampleFindsSingleVariableMinimum(t *testing.T) {
	// E(x) = -2x: minimum at x=1 with energy -2.
	model := qubo.NewModel(1)
	model.AddLinear(0, -2.0)

	sampler := testSampler(Config{NumReads: 10, SweepsPerRead: 100, Seed: 1})
	result, err := sampler.Sample(context.Background(), model)
	require.NoError(t, err)

	best := result.Best()
	assert.Equal(t, []int{1}, best.Sample)
	assert.InDelta(t, -2.0, best.Energy, 1e-12)
}

func TestSampleFindsAntiferromagneticGround(t *testing.T) {
	// Two variables with a strong positive coupling and equal negative
	// bias: exactly one of them should be set.
	model := qubo.NewModel(2)
	model.AddLinear(0, -1.0)
	model.AddLinear(1, -1.0)
	model.AddQuadratic(0, 1, 3.0)

	sampler := testSampler(Config{NumReads: 20, SweepsPerRead: 200, Seed: 7})
	result, err := sampler.Sample(context.Background(), model)
	require.NoError(t, err)

	best := result.Best()
	assert.InDelta(t, -1.0, best.Energy, 1e-12)
	assert.Equal(t, 1, best.Sample[0]+best.Sample[1])
}

func TestSampleMatchesBruteForceOnRandomModel(t *testing.T) {
	// A fixed small model with mixed signs; annealing with enough reads
	// must reach the enumerated optimum.
	model := qubo.NewModel(6)
	linears := []float64{-1.2, 0.8, -0.3, 0.5, -0.9, 0.1}
	for i, l := range linears {
		model.AddLinear(i, l)
	}
	model.AddQuadratic(0, 1, 1.5)
	model.AddQuadratic(1, 2, -0.7)
	model.AddQuadratic(2, 3, 0.4)
	model.AddQuadratic(3, 4, -1.1)
	model.AddQuadratic(4, 5, 0.9)
	model.AddQuadratic(0, 5, -0.2)

	bestEnergy := 0.0
	x := make([]int, 6)
	for mask := 0; mask < 1<<6; mask++ {
		for i := range x {
			x[i] = (mask >> i) & 1
		}
		e, err := model.Energy(x)
		require.NoError(t, err)
		if e < bestEnergy {
			bestEnergy = e
		}
	}

	sampler := testSampler(Config{NumReads: 50, SweepsPerRead: 300, Seed: 42})
	result, err := sampler.Sample(context.Background(), model)
	require.NoError(t, err)
	assert.InDelta(t, bestEnergy, result.Best().Energy, 1e-9)
}

func TestSampleReadsSortedByEnergy(t *testing.T) {
	model := qubo.NewModel(4)
	model.AddLinear(0, -1.0)
	model.AddQuadratic(1, 2, 2.0)

	sampler := testSampler(Config{NumReads: 25, SweepsPerRead: 50, Seed: 3})
	result, err := sampler.Sample(context.Background(), model)
	require.NoError(t, err)

	require.Len(t, result.Reads, 25)
	for i := 1; i < len(result.Reads); i++ {
		assert.LessOrEqual(t, result.Reads[i-1].Energy, result.Reads[i].Energy)
	}
}

func TestSampleDeterministicWithSeed(t *testing.T) {
	model := qubo.NewModel(3)
	model.AddLinear(0, -0.5)
	model.AddQuadratic(0, 2, 1.0)

	config := Config{NumReads: 5, SweepsPerRead: 50, Seed: 11, Workers: 2}

	first, err := testSampler(config).Sample(context.Background(), model)
	require.NoError(t, err)
	second, err := testSampler(config).Sample(context.Background(), model)
	require.NoError(t, err)

	assert.Equal(t, first.Reads, second.Reads)
}

func TestSampleRespectsContextCancellation(t *testing.T) {
	model := qubo.NewModel(50)
	for i := 0; i < 50; i++ {
		model.AddLinear(i, -1.0)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sampler := testSampler(Config{NumReads: 100, SweepsPerRead: 10_000, Seed: 1})
	start := time.Now()
	_, err := sampler.Sample(ctx, model)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSampleEmptyModel(t *testing.T) {
	_, err := testSampler(Config{Seed: 1}).Sample(context.Background(), qubo.NewModel(0))
	assert.Error(t, err)
}
