package optimization

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/annealing"
	"github.com/1ucian0/client-superstaq/internal/modules/qubo"
	"github.com/1ucian0/client-superstaq/pkg/formulas"
)

// SharpeService runs the full optimization pipeline: expected returns
// and covariance from price history, QUBO encoding, annealing, and
// decoding the best sample into a portfolio.
type SharpeService struct {
	returnsCalc  *ReturnsCalculator
	riskBuilder  *RiskModelBuilder
	runs         *RunRepository
	riskFreeRate float64
	log          zerolog.Logger
}

// NewSharpeService creates the optimization service. runs may be nil
// when persistence is not wanted (CLI usage).
func NewSharpeService(
	returnsCalc *ReturnsCalculator,
	riskBuilder *RiskModelBuilder,
	runs *RunRepository,
	riskFreeRate float64,
	log zerolog.Logger,
) *SharpeService {
	return &SharpeService{
		returnsCalc:  returnsCalc,
		riskBuilder:  riskBuilder,
		runs:         runs,
		riskFreeRate: riskFreeRate,
		log:          log.With().Str("component", "sharpe_service").Logger(),
	}
}

// Optimize runs one maximum-Sharpe optimization.
func (s *SharpeService) Optimize(ctx context.Context, req Request) (*Result, error) {
	symbols := normalizeSymbols(req.Symbols)
	if len(symbols) < 2 {
		return nil, fmt.Errorf("at least two symbols required")
	}

	expectedReturns, err := s.returnsCalc.CalculateExpectedReturns(symbols, req.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to estimate returns: %w", err)
	}

	riskModel, err := s.riskBuilder.BuildCovarianceMatrix(symbols, req.LookbackDays)
	if err != nil {
		return nil, fmt.Errorf("failed to build risk model: %w", err)
	}

	builder := qubo.NewBuilder(qubo.BuilderConfig{
		BitsPerAsset: req.BitsPerAsset,
		RiskAversion: req.RiskAversion,
	})
	model, err := builder.Build(expectedReturns, riskModel.Covariance)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	sampler := annealing.NewSampler(annealing.Config{
		NumReads: req.NumReads,
		Seed:     req.Seed,
	}, s.log)
	sampled, err := sampler.Sample(ctx, model)
	if err != nil {
		return nil, fmt.Errorf("annealing failed: %w", err)
	}

	// Walk samples best-first until one decodes to a valid portfolio;
	// the ground state of a tight budget penalty always does, but a
	// short run can surface degenerate samples first.
	var weights []float64
	var energy float64
	for _, read := range sampled.Reads {
		weights, err = builder.Decode(read.Sample, len(symbols))
		if err == nil {
			energy = read.Energy
			break
		}
	}
	if weights == nil {
		return nil, fmt.Errorf("no sample decoded to a valid portfolio: %w", err)
	}

	expReturn := formulas.PortfolioReturn(weights, expectedReturns)
	volatility := formulas.PortfolioVolatility(weights, riskModel.Covariance)
	sharpe := formulas.SharpeRatio(expReturn, volatility, s.riskFreeRate)

	result := &Result{
		RunID:            uuid.NewString(),
		Allocations:      buildAllocations(symbols, weights),
		ExpectedReturn:   expReturn,
		Volatility:       volatility,
		SharpeRatio:      sharpe,
		Energy:           energy,
		NumReads:         len(sampled.Reads),
		BitsPerAsset:     builder.Config().BitsPerAsset,
		HighCorrelations: riskModel.HighCorrelations,
	}

	if s.runs != nil {
		if err := s.runs.SaveRun(result, symbols); err != nil {
			s.log.Warn().Err(err).Str("run_id", result.RunID).Msg("Failed to persist run")
		}
	}

	s.log.Info().
		Str("run_id", result.RunID).
		Strs("symbols", symbols).
		Float64("sharpe_ratio", sharpe).
		Float64("energy", energy).
		Msg("Optimization complete")

	return result, nil
}

// History returns recent persisted runs.
func (s *SharpeService) History(limit int) ([]StoredRun, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("run persistence is not configured")
	}
	return s.runs.ListRuns(limit)
}

func normalizeSymbols(symbols []string) []string {
	seen := make(map[string]bool, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func buildAllocations(symbols []string, weights []float64) []Allocation {
	allocations := make([]Allocation, 0, len(symbols))
	for i, symbol := range symbols {
		if weights[i] == 0 {
			continue
		}
		allocations = append(allocations, Allocation{Symbol: symbol, Weight: weights[i]})
	}
	return allocations
}
