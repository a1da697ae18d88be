package optimization

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
)

// seedHistory writes a deterministic price series: a geometric walk
// with fixed daily drift and a small oscillation for non-zero variance.
func seedHistory(t *testing.T, repo *marketdata.Repository, symbol string, days int, dailyDrift, wobble float64) {
	t.Helper()

	prices := make([]marketdata.DailyPrice, days)
	price := 100.0
	for i := 0; i < days; i++ {
		ret := dailyDrift + wobble*math.Sin(float64(i))
		price *= 1 + ret
		prices[i] = marketdata.DailyPrice{
			Symbol:     symbol,
			Date:       fmt.Sprintf("2025-%02d-%02d", 1+i/28, 1+i%28),
			ClosePrice: price,
		}
	}
	_, err := repo.UpsertPrices(prices)
	require.NoError(t, err)
}

func newHistoryRepo(t *testing.T) *marketdata.Repository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "history.db"),
		Profile: database.ProfileStandard,
		Name:    "history",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return marketdata.NewRepository(db.Conn(), zerolog.Nop())
}

func newRunRepo(t *testing.T) *RunRepository {
	t.Helper()

	db, err := database.New(database.Config{
		Path:    filepath.Join(t.TempDir(), "jobs.db"),
		Profile: database.ProfileStandard,
		Name:    "jobs",
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { _ = db.Close() })

	return NewRunRepository(db.Conn(), zerolog.Nop())
}

func TestReturnsCalculator(t *testing.T) {
	repo := newHistoryRepo(t)
	seedHistory(t, repo, "UP", 100, 0.002, 0.001)
	seedHistory(t, repo, "FLAT", 100, 0.0, 0.001)

	calc := NewReturnsCalculator(repo, zerolog.Nop())
	returns, err := calc.CalculateExpectedReturns([]string{"UP", "FLAT"}, 100)
	require.NoError(t, err)
	require.Len(t, returns, 2)

	// 0.2% daily drift annualizes to ~50%, which hits the clamp.
	assert.InDelta(t, ExpectedReturnMax, returns[0], 0.02)
	assert.InDelta(t, 0.0, returns[1], 0.05)
	assert.Greater(t, returns[0], returns[1])
}

func TestReturnsCalculatorInsufficientHistory(t *testing.T) {
	repo := newHistoryRepo(t)
	seedHistory(t, repo, "NEW", 5, 0.001, 0.001)

	calc := NewReturnsCalculator(repo, zerolog.Nop())
	_, err := calc.CalculateExpectedReturns([]string{"NEW"}, 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insufficient history")
}

func TestRiskModelBuilder(t *testing.T) {
	repo := newHistoryRepo(t)
	seedHistory(t, repo, "A", 120, 0.001, 0.01)
	seedHistory(t, repo, "B", 120, 0.0005, 0.02)

	builder := NewRiskModelBuilder(repo, zerolog.Nop())
	model, err := builder.BuildCovarianceMatrix([]string{"A", "B"}, 120)
	require.NoError(t, err)

	require.Len(t, model.Covariance, 2)
	assert.Greater(t, model.Covariance[0][0], 0.0)
	assert.Greater(t, model.Covariance[1][1], 0.0)
	assert.InDelta(t, model.Covariance[0][1], model.Covariance[1][0], 1e-12, "covariance must be symmetric")

	// Both series share the same sine wobble, so they are near
	// perfectly correlated and must be flagged.
	require.Len(t, model.HighCorrelations, 1)
	assert.Greater(t, model.HighCorrelations[0].Correlation, HighCorrelationThreshold)
}

func TestRiskModelBuilderAlignsDates(t *testing.T) {
	repo := newHistoryRepo(t)
	seedHistory(t, repo, "LONG", 120, 0.001, 0.01)
	seedHistory(t, repo, "SHORT", 40, 0.001, 0.01)

	builder := NewRiskModelBuilder(repo, zerolog.Nop())
	model, err := builder.BuildCovarianceMatrix([]string{"LONG", "SHORT"}, 120)
	require.NoError(t, err)

	// Aligned window is bounded by the shorter series.
	require.Len(t, model.Returns["LONG"], len(model.Returns["SHORT"]))
	assert.LessOrEqual(t, len(model.Returns["SHORT"]), 40)
}

func TestSharpeServiceOptimize(t *testing.T) {
	repo := newHistoryRepo(t)
	// WINNER trends up with modest volatility; LOSER drifts down.
	seedHistory(t, repo, "WINNER", 150, 0.0012, 0.005)
	seedHistory(t, repo, "LOSER", 150, -0.0008, 0.02)

	runs := newRunRepo(t)
	service := NewSharpeService(
		NewReturnsCalculator(repo, zerolog.Nop()),
		NewRiskModelBuilder(repo, zerolog.Nop()),
		runs,
		0.02,
		zerolog.Nop(),
	)

	result, err := service.Optimize(context.Background(), Request{
		Symbols:      []string{"winner", "loser", "WINNER"},
		LookbackDays: 150,
		BitsPerAsset: 3,
		NumReads:     50,
		Seed:         42,
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, result.BitsPerAsset)
	assert.Equal(t, 50, result.NumReads)

	totalWeight := 0.0
	winnerWeight := 0.0
	for _, a := range result.Allocations {
		totalWeight += a.Weight
		if a.Symbol == "WINNER" {
			winnerWeight = a.Weight
		}
	}
	assert.InDelta(t, 1.0, totalWeight, 1e-9)
	assert.Greater(t, winnerWeight, 0.5, "the high-Sharpe asset should dominate")

	// Run was persisted.
	history, err := service.History(10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, result.RunID, history[0].ID)
	assert.Equal(t, []string{"WINNER", "LOSER"}, history[0].Symbols)
}

func TestSharpeServiceValidation(t *testing.T) {
	service := NewSharpeService(nil, nil, nil, 0.02, zerolog.Nop())

	_, err := service.Optimize(context.Background(), Request{Symbols: []string{"ONLY"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two symbols")
}

func TestRunRepositoryRoundTrip(t *testing.T) {
	runs := newRunRepo(t)

	result := &Result{
		RunID:          "run-1",
		Allocations:    []Allocation{{Symbol: "AAPL", Weight: 0.6}, {Symbol: "MSFT", Weight: 0.4}},
		ExpectedReturn: 0.12,
		Volatility:     0.18,
		SharpeRatio:    0.55,
		Energy:         -1.23,
		NumReads:       100,
		BitsPerAsset:   3,
	}
	require.NoError(t, runs.SaveRun(result, []string{"AAPL", "MSFT"}))

	stored, err := runs.GetRun("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, stored.Symbols)
	assert.Len(t, stored.Allocations, 2)
	assert.InDelta(t, 0.55, stored.SharpeRatio, 1e-9)

	_, err = runs.GetRun("missing")
	assert.Error(t, err)
}
