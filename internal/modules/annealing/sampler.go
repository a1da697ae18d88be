// Package annealing implements a simulated annealing sampler for QUBO
// models: multiple independent reads, geometric cooling, single-flip
// Metropolis updates with incremental energy deltas.
package annealing

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/modules/qubo"
)

// Config controls the annealing schedule and the amount of sampling.
type Config struct {
	// NumReads is the number of independent annealing runs.
	NumReads int

	// SweepsPerRead is the number of full single-flip sweeps per run.
	SweepsPerRead int

	// InitialTemp and FinalTemp bound the geometric cooling schedule.
	// Zero values are auto-scaled from the model coefficients.
	InitialTemp float64
	FinalTemp   float64

	// Seed makes sampling reproducible. Zero draws a random seed.
	Seed int64

	// Workers bounds the parallel reads. Zero means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns the schedule used by the optimization service.
func DefaultConfig() Config {
	return Config{
		NumReads:      100,
		SweepsPerRead: 1000,
	}
}

// Read is one annealing run's outcome.
type Read struct {
	Sample []int
	Energy float64
}

// Result holds all reads sorted by ascending energy.
type Result struct {
	Reads []Read
}

// Best returns the lowest-energy read.
func (r *Result) Best() Read {
	return r.Reads[0]
}

// Sampler runs simulated annealing over QUBO models.
type Sampler struct {
	config Config
	log    zerolog.Logger
}

// NewSampler creates a sampler; non-positive config fields fall back to
// defaults.
func NewSampler(config Config, log zerolog.Logger) *Sampler {
	defaults := DefaultConfig()
	if config.NumReads <= 0 {
		config.NumReads = defaults.NumReads
	}
	if config.SweepsPerRead <= 0 {
		config.SweepsPerRead = defaults.SweepsPerRead
	}
	if config.Workers <= 0 {
		config.Workers = runtime.GOMAXPROCS(0)
	}
	return &Sampler{
		config: config,
		log:    log.With().Str("component", "annealing").Logger(),
	}
}

// Sample runs the configured number of reads and returns them sorted by
// energy. The context cancels in-flight reads between sweeps.
func (s *Sampler) Sample(ctx context.Context, model *qubo.Model) (*Result, error) {
	n := model.NumVariables()
	if n == 0 {
		return nil, fmt.Errorf("model has no variables")
	}

	t0, tMin := s.schedule(model)
	adj := model.Neighbours()

	seed := s.config.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	s.log.Debug().
		Int("variables", n).
		Int("reads", s.config.NumReads).
		Int("sweeps", s.config.SweepsPerRead).
		Float64("initial_temp", t0).
		Float64("final_temp", tMin).
		Msg("Starting annealing")

	reads := make([]Read, s.config.NumReads)
	sem := make(chan struct{}, s.config.Workers)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error

	for i := 0; i < s.config.NumReads; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			// Per-read deterministic substream.
			rng := rand.New(rand.NewSource(seed + int64(idx)*1_000_003))
			read, err := s.anneal(ctx, model, adj, rng, t0, tMin)
			if err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
				return
			}
			reads[idx] = read
		}(i)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	sort.Slice(reads, func(a, b int) bool {
		return reads[a].Energy < reads[b].Energy
	})

	s.log.Debug().Float64("best_energy", reads[0].Energy).Msg("Annealing complete")
	return &Result{Reads: reads}, nil
}

// anneal performs one read: random start, geometric cooling, Metropolis
// single-flip sweeps with incremental deltas.
func (s *Sampler) anneal(
	ctx context.Context,
	model *qubo.Model,
	adj [][]qubo.Coupling,
	rng *rand.Rand,
	t0, tMin float64,
) (Read, error) {
	n := model.NumVariables()

	x := make([]int, n)
	for i := range x {
		if rng.Intn(2) == 1 {
			x[i] = 1
		}
	}
	energy, err := model.Energy(x)
	if err != nil {
		return Read{}, err
	}

	sweeps := s.config.SweepsPerRead
	cooling := math.Pow(tMin/t0, 1.0/float64(sweeps))
	temp := t0

	for sweep := 0; sweep < sweeps; sweep++ {
		select {
		case <-ctx.Done():
			return Read{}, ctx.Err()
		default:
		}

		for i := 0; i < n; i++ {
			delta := flipDelta(model, adj, x, i)
			if delta <= 0 || rng.Float64() < math.Exp(-delta/temp) {
				x[i] ^= 1
				energy += delta
			}
		}
		temp *= cooling
	}

	return Read{Sample: x, Energy: energy}, nil
}

// flipDelta computes the energy change of flipping variable i without
// re-evaluating the full model.
func flipDelta(model *qubo.Model, adj [][]qubo.Coupling, x []int, i int) float64 {
	delta := model.Linear(i)
	for _, c := range adj[i] {
		if x[c.Variable] != 0 {
			delta += c.Value
		}
	}
	if x[i] != 0 {
		delta = -delta
	}
	return delta
}

// schedule derives the cooling bounds from the model when the config
// leaves them unset: the initial temperature should accept almost any
// flip, the final one should freeze the state.
func (s *Sampler) schedule(model *qubo.Model) (t0, tMin float64) {
	t0 = s.config.InitialTemp
	tMin = s.config.FinalTemp
	if t0 > 0 && tMin > 0 {
		return t0, tMin
	}

	adj := model.Neighbours()
	maxDelta := 0.0
	for i := 0; i < model.NumVariables(); i++ {
		d := math.Abs(model.Linear(i))
		for _, c := range adj[i] {
			d += math.Abs(c.Value)
		}
		maxDelta = math.Max(maxDelta, d)
	}
	if maxDelta == 0 {
		maxDelta = 1.0
	}

	if t0 <= 0 {
		t0 = maxDelta
	}
	if tMin <= 0 {
		tMin = maxDelta / 1000.0
	}
	return t0, tMin
}
