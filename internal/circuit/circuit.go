// Package circuit defines the gate-list circuit model used as the wire
// format for job submission, plus a local statevector sampler for
// simulator targets and tests.
package circuit

import (
	"fmt"
)

// Gate identifies a supported operation.
type Gate string

const (
	GateH    Gate = "h"
	GateX    Gate = "x"
	GateY    Gate = "y"
	GateZ    Gate = "z"
	GateRX   Gate = "rx"
	GateRY   Gate = "ry"
	GateRZ   Gate = "rz"
	GateCX   Gate = "cx"
	GateCZ   Gate = "cz"
	GateSWAP Gate = "swap"
	GateM    Gate = "measure"
)

// arity maps each gate to the number of qubits it acts on. Measure is
// variadic and handled separately.
var arity = map[Gate]int{
	GateH:    1,
	GateX:    1,
	GateY:    1,
	GateZ:    1,
	GateRX:   1,
	GateRY:   1,
	GateRZ:   1,
	GateCX:   2,
	GateCZ:   2,
	GateSWAP: 2,
}

// parametric marks gates that take a rotation angle.
var parametric = map[Gate]bool{
	GateRX: true,
	GateRY: true,
	GateRZ: true,
}

// Op is a single gate application.
type Op struct {
	Gate   Gate    `json:"gate"`
	Qubits []int   `json:"qubits"`
	Param  float64 `json:"param,omitempty"`
}

// Circuit is an ordered list of operations on a fixed qubit register.
type Circuit struct {
	NumQubits int  `json:"num_qubits"`
	Ops       []Op `json:"ops"`
}

// New creates an empty circuit over numQubits qubits.
func New(numQubits int) *Circuit {
	return &Circuit{NumQubits: numQubits}
}

// append adds an op and returns the circuit for chaining.
func (c *Circuit) append(gate Gate, param float64, qubits ...int) *Circuit {
	c.Ops = append(c.Ops, Op{Gate: gate, Qubits: qubits, Param: param})
	return c
}

// H applies a Hadamard gate.
func (c *Circuit) H(q int) *Circuit { return c.append(GateH, 0, q) }

// X applies a Pauli-X gate.
func (c *Circuit) X(q int) *Circuit { return c.append(GateX, 0, q) }

// Y applies a Pauli-Y gate.
func (c *Circuit) Y(q int) *Circuit { return c.append(GateY, 0, q) }

// Z applies a Pauli-Z gate.
func (c *Circuit) Z(q int) *Circuit { return c.append(GateZ, 0, q) }

// RX applies a rotation about the X axis by theta radians.
func (c *Circuit) RX(q int, theta float64) *Circuit { return c.append(GateRX, theta, q) }

// RY applies a rotation about the Y axis by theta radians.
func (c *Circuit) RY(q int, theta float64) *Circuit { return c.append(GateRY, theta, q) }

// RZ applies a rotation about the Z axis by theta radians.
func (c *Circuit) RZ(q int, theta float64) *Circuit { return c.append(GateRZ, theta, q) }

// CX applies a controlled-X gate.
func (c *Circuit) CX(control, target int) *Circuit { return c.append(GateCX, 0, control, target) }

// CZ applies a controlled-Z gate.
func (c *Circuit) CZ(control, target int) *Circuit { return c.append(GateCZ, 0, control, target) }

// SWAP exchanges two qubits.
func (c *Circuit) SWAP(a, b int) *Circuit { return c.append(GateSWAP, 0, a, b) }

// Measure records a terminal measurement of the given qubits.
func (c *Circuit) Measure(qubits ...int) *Circuit { return c.append(GateM, 0, qubits...) }

// MeasureAll measures every qubit in the register.
func (c *Circuit) MeasureAll() *Circuit {
	qubits := make([]int, c.NumQubits)
	for i := range qubits {
		qubits[i] = i
	}
	return c.Measure(qubits...)
}

// HasMeasurement reports whether the circuit measures at least one qubit.
func (c *Circuit) HasMeasurement() bool {
	for _, op := range c.Ops {
		if op.Gate == GateM && len(op.Qubits) > 0 {
			return true
		}
	}
	return false
}

// MeasuredQubits returns the sorted set of measured qubits.
func (c *Circuit) MeasuredQubits() []int {
	seen := make(map[int]bool)
	for _, op := range c.Ops {
		if op.Gate != GateM {
			continue
		}
		for _, q := range op.Qubits {
			seen[q] = true
		}
	}

	qubits := make([]int, 0, len(seen))
	for q := 0; q < c.NumQubits; q++ {
		if seen[q] {
			qubits = append(qubits, q)
		}
	}
	return qubits
}

// Validate checks structural correctness: positive register size, known
// gates with correct arity, in-range and distinct qubit operands.
func (c *Circuit) Validate() error {
	if c.NumQubits <= 0 {
		return fmt.Errorf("circuit must have at least one qubit, got %d", c.NumQubits)
	}

	for i, op := range c.Ops {
		if op.Gate == GateM {
			if len(op.Qubits) == 0 {
				return fmt.Errorf("op %d: measurement of no qubits", i)
			}
		} else {
			want, ok := arity[op.Gate]
			if !ok {
				return fmt.Errorf("op %d: unknown gate %q", i, op.Gate)
			}
			if len(op.Qubits) != want {
				return fmt.Errorf("op %d: gate %q expects %d qubits, got %d", i, op.Gate, want, len(op.Qubits))
			}
			if !parametric[op.Gate] && op.Param != 0 {
				return fmt.Errorf("op %d: gate %q does not take a parameter", i, op.Gate)
			}
		}

		seen := make(map[int]bool, len(op.Qubits))
		for _, q := range op.Qubits {
			if q < 0 || q >= c.NumQubits {
				return fmt.Errorf("op %d: qubit %d out of range [0,%d)", i, q, c.NumQubits)
			}
			if seen[q] {
				return fmt.Errorf("op %d: duplicate qubit %d", i, q)
			}
			seen[q] = true
		}
	}

	return nil
}

// ValidateForSubmission extends Validate with the requirement that a
// circuit submitted for sampling must measure something.
func (c *Circuit) ValidateForSubmission() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !c.HasMeasurement() {
		return fmt.Errorf("circuit has no measurements to sample")
	}
	return nil
}

// Bell returns the two-qubit Bell circuit from the getting-started flow:
// H on qubit 0, CX 0→1, measure both.
func Bell() *Circuit {
	return New(2).H(0).CX(0, 1).MeasureAll()
}
