package formulas

import "math"

// SharpeRatio calculates the risk-adjusted return of a portfolio:
// (expected return - risk-free rate) / volatility.
// Returns 0 when volatility is zero or negative.
func SharpeRatio(expectedReturn, volatility, riskFreeRate float64) float64 {
	if volatility <= 0 {
		return 0
	}
	return (expectedReturn - riskFreeRate) / volatility
}

// PortfolioReturn calculates μ'w for weights aligned with expected returns.
func PortfolioReturn(weights, expectedReturns []float64) float64 {
	var ret float64
	for i := range weights {
		ret += weights[i] * expectedReturns[i]
	}
	return ret
}

// PortfolioVolatility calculates sqrt(w'Σw) for a covariance matrix in
// row-major [][]float64 form. Negative variance from numerical noise is
// clamped to zero.
func PortfolioVolatility(weights []float64, covMatrix [][]float64) float64 {
	var variance float64
	for i := range weights {
		for j := range weights {
			variance += weights[i] * weights[j] * covMatrix[i][j]
		}
	}
	return math.Sqrt(math.Max(variance, 0))
}
