// Package qubo formulates portfolio selection as a quadratic
// unconstrained binary optimization problem and decodes solver samples
// back into asset weights.
package qubo

import (
	"fmt"
)

// Model is a QUBO over n binary variables: E(x) = Σᵢ lᵢxᵢ + Σᵢ<ⱼ qᵢⱼxᵢxⱼ.
// Quadratic terms are stored upper-triangular (i < j).
type Model struct {
	numVariables int
	linear       []float64
	quadratic    map[[2]int]float64
	offset       float64
}

// NewModel creates an empty model over numVariables binary variables.
func NewModel(numVariables int) *Model {
	return &Model{
		numVariables: numVariables,
		linear:       make([]float64, numVariables),
		quadratic:    make(map[[2]int]float64),
	}
}

// NumVariables returns the size of the binary vector.
func (m *Model) NumVariables() int {
	return m.numVariables
}

// AddLinear accumulates a linear coefficient on variable i.
func (m *Model) AddLinear(i int, value float64) {
	m.linear[i] += value
}

// AddQuadratic accumulates a coupling between variables i and j. Pairs
// are normalized to upper-triangular; i == j folds into the linear term
// since x² = x for binary x.
func (m *Model) AddQuadratic(i, j int, value float64) {
	if i == j {
		m.linear[i] += value
		return
	}
	if i > j {
		i, j = j, i
	}
	m.quadratic[[2]int{i, j}] += value
}

// AddOffset accumulates a constant energy offset.
func (m *Model) AddOffset(value float64) {
	m.offset += value
}

// Linear returns the linear coefficient of variable i.
func (m *Model) Linear(i int) float64 {
	return m.linear[i]
}

// Quadratic returns the coupling between i and j (zero if absent).
func (m *Model) Quadratic(i, j int) float64 {
	if i > j {
		i, j = j, i
	}
	return m.quadratic[[2]int{i, j}]
}

// Couplings returns the non-zero upper-triangular couplings. The map is
// the model's own storage; callers must not mutate it.
func (m *Model) Couplings() map[[2]int]float64 {
	return m.quadratic
}

// Energy evaluates the model at a binary assignment.
func (m *Model) Energy(x []int) (float64, error) {
	if len(x) != m.numVariables {
		return 0, fmt.Errorf("assignment has %d variables, model has %d", len(x), m.numVariables)
	}

	energy := m.offset
	for i, bit := range x {
		if bit != 0 {
			energy += m.linear[i]
		}
	}
	for pair, coupling := range m.quadratic {
		if x[pair[0]] != 0 && x[pair[1]] != 0 {
			energy += coupling
		}
	}
	return energy, nil
}

// Neighbours returns, for each variable, the list of its coupled
// partners with coupling values. Annealers use this to compute flip
// deltas without scanning the full coupling map.
func (m *Model) Neighbours() [][]Coupling {
	adj := make([][]Coupling, m.numVariables)
	for pair, value := range m.quadratic {
		i, j := pair[0], pair[1]
		adj[i] = append(adj[i], Coupling{Variable: j, Value: value})
		adj[j] = append(adj[j], Coupling{Variable: i, Value: value})
	}
	return adj
}

// Coupling is one edge of the adjacency view built by Neighbours.
type Coupling struct {
	Variable int
	Value    float64
}
