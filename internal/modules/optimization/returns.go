package optimization

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
	"github.com/1ucian0/client-superstaq/pkg/formulas"
)

// ReturnsCalculator estimates annualized expected returns from local
// price history.
type ReturnsCalculator struct {
	repo *marketdata.Repository
	log  zerolog.Logger
}

// NewReturnsCalculator creates a returns calculator.
func NewReturnsCalculator(repo *marketdata.Repository, log zerolog.Logger) *ReturnsCalculator {
	return &ReturnsCalculator{
		repo: repo,
		log:  log.With().Str("component", "returns").Logger(),
	}
}

// CalculateExpectedReturns estimates each symbol's annualized return
// from mean daily returns, clamped to a plausible range. The returned
// slice is aligned with the input symbol order.
func (rc *ReturnsCalculator) CalculateExpectedReturns(symbols []string, lookbackDays int) ([]float64, error) {
	if len(symbols) == 0 {
		return nil, fmt.Errorf("at least one symbol required")
	}
	if lookbackDays <= 0 {
		lookbackDays = DefaultLookbackDays
	}

	expected := make([]float64, len(symbols))
	for i, symbol := range symbols {
		_, closes, err := rc.repo.GetClosePrices(symbol, lookbackDays)
		if err != nil {
			return nil, fmt.Errorf("failed to load prices for %s: %w", symbol, err)
		}
		if len(closes) < MinHistoryDays {
			return nil, fmt.Errorf("insufficient history for %s: %d days (need %d)", symbol, len(closes), MinHistoryDays)
		}

		daily := formulas.CalculateReturns(closes)
		annualized := formulas.Mean(daily) * formulas.TradingDaysPerYear

		clamped := math.Max(ExpectedReturnMin, math.Min(ExpectedReturnMax, annualized))
		if clamped != annualized {
			rc.log.Debug().
				Str("symbol", symbol).
				Float64("raw", annualized).
				Float64("clamped", clamped).
				Msg("Clamped expected return")
		}
		expected[i] = clamped
	}

	return expected, nil
}
