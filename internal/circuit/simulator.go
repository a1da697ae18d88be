package circuit

import (
	"fmt"
	"math"
	"math/cmplx"
	"math/rand"
	"sort"
)

// Simulator samples measurement outcomes of a circuit by evolving the
// full statevector. It is exact (no noise) and deliberately small: it
// exists to serve simulator targets and offline testing, not to compete
// with a real backend.
type Simulator struct {
	rng *rand.Rand
}

// NewSimulator returns a sampler seeded for reproducible runs.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{rng: rand.New(rand.NewSource(seed))}
}

// singleQubitMatrix returns the 2x2 unitary for a one-qubit gate.
func singleQubitMatrix(op Op) ([2][2]complex128, error) {
	inv2 := complex(1/math.Sqrt2, 0)
	half := op.Param / 2
	cos := complex(math.Cos(half), 0)
	isin := complex(0, math.Sin(half))

	switch op.Gate {
	case GateH:
		return [2][2]complex128{{inv2, inv2}, {inv2, -inv2}}, nil
	case GateX:
		return [2][2]complex128{{0, 1}, {1, 0}}, nil
	case GateY:
		return [2][2]complex128{{0, -1i}, {1i, 0}}, nil
	case GateZ:
		return [2][2]complex128{{1, 0}, {0, -1}}, nil
	case GateRX:
		return [2][2]complex128{{cos, -isin}, {-isin, cos}}, nil
	case GateRY:
		sin := complex(math.Sin(half), 0)
		return [2][2]complex128{{cos, -sin}, {sin, cos}}, nil
	case GateRZ:
		return [2][2]complex128{
			{cmplx.Exp(complex(0, -half)), 0},
			{0, cmplx.Exp(complex(0, half))},
		}, nil
	}
	return [2][2]complex128{}, fmt.Errorf("gate %q is not a single-qubit unitary", op.Gate)
}

// applySingle applies a one-qubit gate in place. Qubit q corresponds to
// bit q of the statevector index.
func applySingle(state []complex128, q int, m [2][2]complex128) {
	mask := 1 << q
	for i := range state {
		if i&mask != 0 {
			continue
		}
		j := i | mask
		a, b := state[i], state[j]
		state[i] = m[0][0]*a + m[0][1]*b
		state[j] = m[1][0]*a + m[1][1]*b
	}
}

// applyOp dispatches a single operation onto the statevector.
func applyOp(state []complex128, op Op) error {
	switch op.Gate {
	case GateH, GateX, GateY, GateZ, GateRX, GateRY, GateRZ:
		m, err := singleQubitMatrix(op)
		if err != nil {
			return err
		}
		applySingle(state, op.Qubits[0], m)

	case GateCX:
		cMask := 1 << op.Qubits[0]
		tMask := 1 << op.Qubits[1]
		for i := range state {
			if i&cMask != 0 && i&tMask == 0 {
				j := i | tMask
				state[i], state[j] = state[j], state[i]
			}
		}

	case GateCZ:
		cMask := 1 << op.Qubits[0]
		tMask := 1 << op.Qubits[1]
		for i := range state {
			if i&cMask != 0 && i&tMask != 0 {
				state[i] = -state[i]
			}
		}

	case GateSWAP:
		aMask := 1 << op.Qubits[0]
		bMask := 1 << op.Qubits[1]
		for i := range state {
			if i&aMask != 0 && i&bMask == 0 {
				j := (i &^ aMask) | bMask
				state[i], state[j] = state[j], state[i]
			}
		}

	case GateM:
		// Terminal measurements are handled at sampling time.

	default:
		return fmt.Errorf("unknown gate %q", op.Gate)
	}
	return nil
}

// Run evolves the circuit and draws shots samples from the final
// distribution. Keys are bitstrings over the measured qubits with the
// highest-index qubit first, matching the convention of remote results
// before any endianness adjustment.
func (s *Simulator) Run(c *Circuit, shots int) (map[string]int, error) {
	if err := c.ValidateForSubmission(); err != nil {
		return nil, err
	}
	if shots <= 0 {
		return nil, fmt.Errorf("shots must be positive, got %d", shots)
	}
	if c.NumQubits > 24 {
		return nil, fmt.Errorf("simulator limited to 24 qubits, got %d", c.NumQubits)
	}

	dim := 1 << c.NumQubits
	state := make([]complex128, dim)
	state[0] = 1

	for i, op := range c.Ops {
		if err := applyOp(state, op); err != nil {
			return nil, fmt.Errorf("op %d: %w", i, err)
		}
	}

	// Marginal distribution over the measured qubits.
	measured := c.MeasuredQubits()
	probs := make(map[string]float64)
	for i, amp := range state {
		p := real(amp)*real(amp) + imag(amp)*imag(amp)
		if p == 0 {
			continue
		}
		probs[bitKey(i, measured)] += p
	}

	// Stable key order makes sampling deterministic for a fixed seed.
	keys := make([]string, 0, len(probs))
	for k := range probs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	samples := make(map[string]int)
	for shot := 0; shot < shots; shot++ {
		r := s.rng.Float64()
		acc := 0.0
		for _, k := range keys {
			acc += probs[k]
			if r < acc {
				samples[k]++
				break
			}
		}
		if acc <= r {
			// Floating point slack on the final bucket.
			samples[keys[len(keys)-1]]++
		}
	}

	return samples, nil
}

// bitKey extracts the measured qubits of basis state idx as a bitstring,
// highest qubit index first.
func bitKey(idx int, measured []int) string {
	buf := make([]byte, len(measured))
	for i, q := range measured {
		pos := len(measured) - 1 - i
		if idx&(1<<q) != 0 {
			buf[pos] = '1'
		} else {
			buf[pos] = '0'
		}
	}
	return string(buf)
}
