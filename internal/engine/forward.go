package engine

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/strategy"
)

// MonthsPerYear is the forward engine's fixed time step resolution.
const MonthsPerYear = 12

// Forward runs Monte Carlo projections of future portfolio value. Paths are
// independent, each owning its own state and its own slice of the random
// stream, so they execute on a worker pool with no synchronization in the
// hot loop.
type Forward struct {
	cfg         *model.SimulationConfig
	strat       strategy.Strategy
	sctx        strategy.Context
	targets     []float64
	monthlyMean []float64
	monthlyVol  []float64
	lower       [][]float64
	seed        int64
	workers     int
}

// NewForward validates the configuration, builds the strategy and converts
// annualized parameters to monthly ones. All validation happens here, before
// any simulation work, so Run never observes a partially invalid setup.
func NewForward(cfg *model.SimulationConfig) (*Forward, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.New(cfg.Strategy, cfg.Assets)
	if err != nil {
		return nil, err
	}
	targets, err := model.NormalizedWeights(cfg.Assets)
	if err != nil {
		return nil, err
	}

	f := &Forward{
		cfg:     cfg,
		strat:   strat,
		sctx:    strategy.Context{Assets: cfg.Assets, Targets: targets},
		targets: targetSlice(cfg.Assets, targets),
		workers: runtime.GOMAXPROCS(0),
	}

	// Compounding-consistent conversion, done once and reused by every
	// period of every path.
	f.monthlyMean = make([]float64, len(cfg.Assets))
	f.monthlyVol = make([]float64, len(cfg.Assets))
	for i, a := range cfg.Assets {
		f.monthlyMean[i] = math.Pow(1.0+a.ExpectedReturn, 1.0/MonthsPerYear) - 1.0
		f.monthlyVol[i] = a.Volatility / math.Sqrt(MonthsPerYear)
	}

	if cfg.Correlations != nil {
		lower, err := cholesky(cfg.Correlations)
		if err != nil {
			return nil, err
		}
		f.lower = lower
	}

	if cfg.RandomSeed != nil {
		f.seed = *cfg.RandomSeed
	} else {
		f.seed = time.Now().UnixNano()
	}
	return f, nil
}

// SetWorkers overrides the worker pool size. Values below 1 fall back to one
// worker. Results are identical for any pool size.
func (f *Forward) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	f.workers = n
}

// Run executes every path and returns the immutable result. A run completes
// or fails atomically; no partial result is ever exposed.
func (f *Forward) Run() (*SimulationResult, error) {
	periods := f.cfg.HorizonYears * MonthsPerYear
	paths := make([][]float64, f.cfg.NumPaths)
	weights := make([][][]float64, f.cfg.NumPaths)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	jobs := make(chan int)

	workers := f.workers
	if workers > f.cfg.NumPaths {
		workers = f.cfg.NumPaths
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range jobs {
				values, hist, err := f.runPath(p, periods)
				if err != nil {
					errOnce.Do(func() { firstErr = err })
					continue
				}
				paths[p] = values
				weights[p] = hist
			}
		}()
	}
	for p := 0; p < f.cfg.NumPaths; p++ {
		jobs <- p
	}
	close(jobs)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return newSimulationResult(f.cfg, assetNames(f.cfg.Assets), paths, weights, f.totalContributions(periods)), nil
}

// runPath simulates one path. The random stream position is fully determined
// by (seed, path index, period, asset), so results do not depend on worker
// scheduling or on how many other paths exist.
func (f *Forward) runPath(path, periods int) ([]float64, [][]float64, error) {
	rng := pathSource(f.seed, path)
	state := newPathState(f.cfg.Assets, f.cfg.InitialBalance, f.targets)
	rebalanceEvery := f.cfg.EffectiveRebalanceFrequency()
	policy := f.cfg.Policy()

	values := make([]float64, periods+1)
	hist := make([][]float64, periods+1)
	values[0] = f.cfg.InitialBalance
	hist[0] = state.fractions()

	n := len(f.cfg.Assets)
	shocks := make([]float64, n)
	scratch := make([]float64, n)
	returns := make([]float64, n)

	for step := 1; step <= periods; step++ {
		// Shocks are drawn unconditionally each period to keep the stream
		// position deterministic.
		drawShocks(rng, f.lower, shocks, scratch)
		for i := range returns {
			returns[i] = f.monthlyMean[i] + f.monthlyVol[i]*shocks[i]
		}
		state.applyReturns(returns)
		state.inject(f.cfg.ContributionPlan.AmountForPeriod(step, MonthsPerYear), policy, f.targets)

		if step%rebalanceEvery == 0 {
			if err := state.rebalance(f.strat, f.sctx); err != nil {
				return nil, nil, err
			}
		}

		values[step] = state.total()
		hist[step] = state.fractions()
	}
	return values, hist, nil
}

func (f *Forward) totalContributions(periods int) float64 {
	total := 0.0
	for step := 1; step <= periods; step++ {
		total += f.cfg.ContributionPlan.AmountForPeriod(step, MonthsPerYear)
	}
	return total
}

func assetNames(assets []model.AssetSpec) []string {
	names := make([]string, len(assets))
	for i, a := range assets {
		names[i] = a.Name
	}
	return names
}
