package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSharpeRatio(t *testing.T) {
	tests := []struct {
		name         string
		expReturn    float64
		volatility   float64
		riskFreeRate float64
		expected     float64
	}{
		{"positive excess return", 0.12, 0.20, 0.02, 0.50},
		{"zero risk-free rate", 0.10, 0.25, 0.0, 0.40},
		{"negative excess return", 0.01, 0.10, 0.03, -0.20},
		{"zero volatility returns zero", 0.10, 0.0, 0.0, 0.0},
		{"negative volatility returns zero", 0.10, -0.1, 0.0, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SharpeRatio(tt.expReturn, tt.volatility, tt.riskFreeRate)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestPortfolioReturn(t *testing.T) {
	weights := []float64{0.5, 0.3, 0.2}
	mu := []float64{0.10, 0.08, 0.04}

	got := PortfolioReturn(weights, mu)
	assert.InDelta(t, 0.5*0.10+0.3*0.08+0.2*0.04, got, 1e-12)
}

func TestPortfolioVolatility(t *testing.T) {
	// Two uncorrelated assets held 50/50
	weights := []float64{0.5, 0.5}
	cov := [][]float64{
		{0.04, 0.0},
		{0.0, 0.04},
	}

	got := PortfolioVolatility(weights, cov)
	// sqrt(0.25*0.04 + 0.25*0.04) = sqrt(0.02)
	assert.InDelta(t, 0.1414213562, got, 1e-9)
}

func TestPortfolioVolatility_ClampsNegativeVariance(t *testing.T) {
	weights := []float64{1.0, -1.0}
	cov := [][]float64{
		{0.0, 0.01},
		{0.01, 0.0},
	}

	got := PortfolioVolatility(weights, cov)
	assert.Equal(t, 0.0, got)
}
