package main

import (
	"math"
	"sync"

	"github.com/pthm-cable/accrete/config"
	"github.com/pthm-cable/accrete/game"
	"github.com/pthm-cable/accrete/telemetry"
)

// FitnessEvaluator runs headless simulations and scores how close the grown cluster's
// fractal dimension comes to a target.
type FitnessEvaluator struct {
	params      *ParamVector
	configPath  string
	maxTicks    int32
	seeds       []int64
	target      float64
	statsWindow float64

	mu          sync.Mutex
	lastMeanDim float64 // mean dimension from the most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator. Every run starts from the config at
// configPath (embedded defaults when empty).
func NewFitnessEvaluator(params *ParamVector, configPath string, maxTicks int32, seeds []int64, target float64) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		configPath:  configPath,
		maxTicks:    maxTicks,
		seeds:       seeds,
		target:      target,
		statsWindow: 10.0,
	}
}

// LastDimension returns the mean fractal dimension from the most recent evaluation.
func (fe *FitnessEvaluator) LastDimension() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastMeanDim
}

// runResult holds the results from a single simulation run.
type runResult struct {
	ticks     int32
	dimension float64
	saturated bool
}

// Evaluate computes fitness for raw parameter values (lower = better).
// Fitness is the mean absolute distance between cluster dimension and target.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	cfg, err := config.Load(fe.configPath)
	if err != nil {
		return math.Inf(1)
	}
	fe.params.ApplyToConfig(cfg, x)

	// Run all seeds in parallel; games only read the shared config.
	results := make([]runResult, len(fe.seeds))
	var wg sync.WaitGroup
	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(cfg, s)
		}(i, seed)
	}
	wg.Wait()

	var totalFitness, totalDim float64
	for _, r := range results {
		totalFitness += fe.computeFitness(r)
		totalDim += r.dimension
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastMeanDim = totalDim / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation grows one cluster until saturation or maxTicks.
func (fe *FitnessEvaluator) runSimulation(cfg *config.Config, seed int64) runResult {
	var last telemetry.WindowStats
	g, err := game.NewGameWithOptions(game.Options{
		Seed:           seed,
		Config:         cfg,
		StatsWindowSec: fe.statsWindow,
		StatsCallback:  func(s telemetry.WindowStats) { last = s },
	})
	if err != nil {
		return runResult{}
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks && !g.Saturated() {
		g.Update()
	}

	return runResult{
		ticks:     g.Tick(),
		dimension: last.FractalDimension,
		saturated: g.Saturated(),
	}
}

// computeFitness scores one run. Runs too small to measure score as dimension 0.
func (fe *FitnessEvaluator) computeFitness(r runResult) float64 {
	return math.Abs(r.dimension - fe.target)
}
