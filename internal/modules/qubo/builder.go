package qubo

import (
	"fmt"
	"math"
)

// BuilderConfig controls the portfolio-to-QUBO encoding.
type BuilderConfig struct {
	// BitsPerAsset is the resolution K of the binary weight encoding:
	// each asset's raw weight is an integer in [0, 2^K - 1] scaled by
	// 1/(2^K - 1).
	BitsPerAsset int

	// RiskAversion is the λ multiplier on the covariance term.
	RiskAversion float64

	// BudgetPenalty is the P multiplier on (Σw - 1)². Zero means
	// auto-scale from the magnitude of the objective coefficients.
	BudgetPenalty float64
}

// DefaultBuilderConfig mirrors the resolution used by the optimization
// service: 3 bits per asset and a moderate risk aversion.
func DefaultBuilderConfig() BuilderConfig {
	return BuilderConfig{
		BitsPerAsset: 3,
		RiskAversion: 0.5,
	}
}

// Builder encodes expected returns and a covariance matrix into a QUBO
// whose ground state approximates the maximum-Sharpe portfolio.
//
// The objective minimized is
//
//	-μ'w + λ·w'Σw + P·(Σw - 1)²
//
// with each weight wᵢ expanded over K binary variables.
type Builder struct {
	config BuilderConfig
}

// NewBuilder creates a builder; invalid config fields fall back to the
// defaults.
func NewBuilder(config BuilderConfig) *Builder {
	defaults := DefaultBuilderConfig()
	if config.BitsPerAsset <= 0 {
		config.BitsPerAsset = defaults.BitsPerAsset
	}
	if config.RiskAversion <= 0 {
		config.RiskAversion = defaults.RiskAversion
	}
	return &Builder{config: config}
}

// Build constructs the QUBO for the given expected returns and
// covariance matrix. Both inputs are over the same asset order.
func (b *Builder) Build(expectedReturns []float64, covariance [][]float64) (*Model, error) {
	n := len(expectedReturns)
	if n == 0 {
		return nil, fmt.Errorf("at least one asset required")
	}
	if len(covariance) != n {
		return nil, fmt.Errorf("covariance has %d rows, expected %d", len(covariance), n)
	}
	for i, row := range covariance {
		if len(row) != n {
			return nil, fmt.Errorf("covariance row %d has %d columns, expected %d", i, len(row), n)
		}
	}

	k := b.config.BitsPerAsset
	scale := 1.0 / float64(int(1)<<k-1)

	penalty := b.config.BudgetPenalty
	if penalty <= 0 {
		penalty = b.autoPenalty(expectedReturns, covariance)
	}

	model := NewModel(n * k)

	// coeff(i, bit) is the contribution of one binary variable to wᵢ.
	coeff := func(bit int) float64 {
		return scale * float64(int(1)<<bit)
	}
	variable := func(asset, bit int) int {
		return asset*k + bit
	}

	for i := 0; i < n; i++ {
		for bi := 0; bi < k; bi++ {
			ci := coeff(bi)
			vi := variable(i, bi)

			// Return term: -μᵢwᵢ.
			model.AddLinear(vi, -expectedReturns[i]*ci)

			// Budget penalty: P(Σw - 1)² expands to
			// P·Σw² + 2P·Σᵢ<ⱼwᵢwⱼ - 2P·Σw + P.
			model.AddLinear(vi, -2*penalty*ci)

			for j := 0; j < n; j++ {
				for bj := 0; bj < k; bj++ {
					vj := variable(j, bj)
					if vj < vi {
						continue
					}
					cij := ci * coeff(bj)

					// Risk term: λ·wᵢΣᵢⱼwⱼ. Each unordered variable pair
					// is visited once, so cross terms carry the factor
					// of two from the symmetric expansion.
					risk := b.config.RiskAversion * covariance[i][j] * cij
					if vi != vj {
						risk *= 2
					}

					quadPenalty := penalty * cij
					if vi != vj {
						quadPenalty *= 2
					}

					if vi == vj {
						model.AddLinear(vi, risk+quadPenalty)
					} else {
						model.AddQuadratic(vi, vj, risk+quadPenalty)
					}
				}
			}
		}
	}

	model.AddOffset(penalty)
	return model, nil
}

// autoPenalty scales the budget term so it dominates the objective: the
// constraint must not be worth violating for any achievable return or
// risk gain.
func (b *Builder) autoPenalty(expectedReturns []float64, covariance [][]float64) float64 {
	maxCoeff := 0.0
	for _, mu := range expectedReturns {
		maxCoeff = math.Max(maxCoeff, math.Abs(mu))
	}
	for _, row := range covariance {
		for _, c := range row {
			maxCoeff = math.Max(maxCoeff, b.config.RiskAversion*math.Abs(c))
		}
	}
	if maxCoeff == 0 {
		return 1.0
	}
	return 2.0 * maxCoeff
}

// Config returns the effective builder configuration.
func (b *Builder) Config() BuilderConfig {
	return b.config
}
