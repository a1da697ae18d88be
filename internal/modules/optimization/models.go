// Package optimization builds maximum-Sharpe portfolios: expected
// returns and a covariance matrix from local price history, a QUBO
// encoding of the objective, and simulated annealing to sample it.
package optimization

// Constants bounding the return estimates and the risk model.
const (
	// ExpectedReturnMin and ExpectedReturnMax clamp annualized return
	// estimates to a plausible range.
	ExpectedReturnMin = -0.10
	ExpectedReturnMax = 0.50

	// DefaultLookbackDays is one year of trading days.
	DefaultLookbackDays = 252

	// MinHistoryDays is the minimum aligned history required to
	// estimate a covariance matrix.
	MinHistoryDays = 30

	// HighCorrelationThreshold marks asset pairs worth surfacing.
	HighCorrelationThreshold = 0.80
)

// Request is one optimization run's input.
type Request struct {
	Symbols      []string `json:"symbols"`
	LookbackDays int      `json:"lookback_days,omitempty"`
	BitsPerAsset int      `json:"bits_per_asset,omitempty"`
	RiskAversion float64  `json:"risk_aversion,omitempty"`
	NumReads     int      `json:"num_reads,omitempty"`
	Seed         int64    `json:"seed,omitempty"`
}

// Allocation is one asset's share of the optimized portfolio.
type Allocation struct {
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight"`
}

// CorrelationPair flags two highly correlated assets.
type CorrelationPair struct {
	SymbolA     string  `json:"symbol_a"`
	SymbolB     string  `json:"symbol_b"`
	Correlation float64 `json:"correlation"`
}

// Result is one optimization run's output.
type Result struct {
	RunID            string            `json:"run_id"`
	Allocations      []Allocation      `json:"allocations"`
	ExpectedReturn   float64           `json:"expected_return"`
	Volatility       float64           `json:"volatility"`
	SharpeRatio      float64           `json:"sharpe_ratio"`
	Energy           float64           `json:"energy"`
	NumReads         int               `json:"num_reads"`
	BitsPerAsset     int               `json:"bits_per_asset"`
	HighCorrelations []CorrelationPair `json:"high_correlations,omitempty"`
}

// RiskModel bundles the covariance estimate with its inputs.
type RiskModel struct {
	Symbols          []string
	Covariance       [][]float64
	Returns          map[string][]float64
	HighCorrelations []CorrelationPair
}
