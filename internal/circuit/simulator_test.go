package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSimulatorBellState(t *testing.T) {
	sim := NewSimulator(42)

	samples, err := sim.Run(Bell(), 1000)
	require.NoError(t, err)

	total := 0
	for key, count := range samples {
		total += count
		assert.Contains(t, []string{"00", "11"}, key, "Bell state must only produce correlated outcomes")
	}
	assert.Equal(t, 1000, total)

	// Both outcomes should be roughly balanced.
	assert.Greater(t, samples["00"], 380)
	assert.Greater(t, samples["11"], 380)
}

func TestSimulatorDeterministicOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		circuit *Circuit
		want    string
	}{
		{
			name:    "identity",
			circuit: New(2).MeasureAll(),
			want:    "00",
		},
		{
			name:    "x flips qubit zero",
			circuit: New(2).X(0).MeasureAll(),
			want:    "01",
		},
		{
			name:    "x flips qubit one",
			circuit: New(2).X(1).MeasureAll(),
			want:    "10",
		},
		{
			name:    "cx propagates flip",
			circuit: New(2).X(0).CX(0, 1).MeasureAll(),
			want:    "11",
		},
		{
			name:    "swap moves excitation",
			circuit: New(2).X(0).SWAP(0, 1).MeasureAll(),
			want:    "10",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			samples, err := NewSimulator(1).Run(tt.circuit, 100)
			require.NoError(t, err)
			assert.Equal(t, map[string]int{tt.want: 100}, samples)
		})
	}
}

func TestSimulatorPhaseGatesPreserveDistribution(t *testing.T) {
	// Z, RZ and CZ only change phases, so measuring right after them in
	// the computational basis must not change outcome probabilities.
	c := New(2).X(0).Z(0).RZ(0, 1.3).CZ(0, 1).MeasureAll()

	samples, err := NewSimulator(7).Run(c, 200)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"01": 200}, samples)
}

func TestSimulatorPartialMeasurement(t *testing.T) {
	// Entangle, then measure only qubit 1: marginal is still 50/50.
	c := New(2).H(0).CX(0, 1).Measure(1)

	samples, err := NewSimulator(3).Run(c, 1000)
	require.NoError(t, err)

	assert.Equal(t, 1000, samples["0"]+samples["1"])
	assert.Greater(t, samples["0"], 380)
	assert.Greater(t, samples["1"], 380)
}

func TestSimulatorSeedReproducibility(t *testing.T) {
	c := Bell()

	first, err := NewSimulator(99).Run(c, 500)
	require.NoError(t, err)
	second, err := NewSimulator(99).Run(c, 500)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSimulatorRejectsBadInput(t *testing.T) {
	sim := NewSimulator(1)

	_, err := sim.Run(New(1).H(0), 100)
	require.Error(t, err)

	_, err = sim.Run(Bell(), 0)
	require.Error(t, err)

	_, err = sim.Run(New(30).MeasureAll(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "limited to 24 qubits")
}
