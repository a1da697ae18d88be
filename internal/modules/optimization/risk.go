package optimization

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
	"github.com/1ucian0/client-superstaq/pkg/formulas"
)

// RiskModelBuilder estimates covariance matrices from local price
// history.
type RiskModelBuilder struct {
	repo *marketdata.Repository
	log  zerolog.Logger
}

// NewRiskModelBuilder creates a risk model builder.
func NewRiskModelBuilder(repo *marketdata.Repository, log zerolog.Logger) *RiskModelBuilder {
	return &RiskModelBuilder{
		repo: repo,
		log:  log.With().Str("component", "risk_model").Logger(),
	}
}

// BuildCovarianceMatrix estimates the annualized covariance of daily
// returns over dates where every symbol has a close. It also reports
// highly correlated pairs.
func (rb *RiskModelBuilder) BuildCovarianceMatrix(symbols []string, lookbackDays int) (*RiskModel, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol required")
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	closesByDate := make(map[string]map[string]float64, len(symbols))
	for _, symbol := range symbols {
		dates, closes, err := rb.repo.GetClosePrices(symbol, lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
		}
		byDate := make(map[string]float64, len(dates))
		for i, date := range dates {
			byDate[date] = closes[i]
		}
		closesByDate[symbol] = byDate
	}

	dates := alignedDates(symbols, closesByDate)
	if len(dates) < MinHistoryDays {
		return nil, fmt.Errorf("insufficient aligned history: %d days (need %d)", len(dates), MinHistoryDays)
	}

	rb.log.Debug().
		Int("num_symbols", len(symbols)).
		Int("aligned_days", len(dates)).
		Msg("Building covariance matrix")

	returns := make(map[string][]float64, len(symbols))
	for _, symbol := range symbols {
		closes := make([]float64, len(dates))
		for i, date := range dates {
			closes[i] = closesByDate[symbol][date]
		}
		returns[symbol] = formulas.CalculateReturns(closes)
	}

	n := len(symbols)
	covariance := make([][]float64, n)
	for i := range covariance {
		covariance[i] = make([]float64, n)
	}

	var highCorrelations []CorrelationPair
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov := formulas.Covariance(returns[symbols[i]], returns[symbols[j]]) * formulas.TradingDaysPerYear
			covariance[i][j] = cov
			covariance[j][i] = cov

			if i != j {
				corr := formulas.Correlation(returns[symbols[i]], returns[symbols[j]])
				if corr >= HighCorrelationThreshold {
					highCorrelations = append(highCorrelations, CorrelationPair{
						SymbolA:     symbols[i],
						SymbolB:     symbols[j],
						Correlation: corr,
					})
				}
			}
		}
	}

	return &RiskModel{
		Symbols:          symbols,
		Covariance:       covariance,
		Returns:          returns,
		HighCorrelations: highCorrelations,
	}, nil
}

// alignedDates returns the sorted dates on which every symbol has a
// close price.
func alignedDates(symbols []string, closesByDate map[string]map[string]float64) []string {
	var dates []string
	for date := range closesByDate[symbols[0]] {
		present := true
		for _, symbol := range symbols[1:] {
			if _, ok := closesByDate[symbol][date]; !ok {
				present = false
				break
			}
		}
		if present {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}
