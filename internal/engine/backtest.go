package engine

import (
	"math"

	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/strategy"
)

// Backtest replays observed prices through the same contribution and
// rebalancing loop the forward engine runs, with realized per-period returns
// taking the place of random shocks.
type Backtest struct {
	cfg     *model.BacktestConfig
	strat   strategy.Strategy
	sctx    strategy.Context
	targets []float64
}

// NewBacktest validates the configuration and builds the strategy. All
// validation happens before any replay work.
func NewBacktest(cfg *model.BacktestConfig) (*Backtest, error) {
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
	return &Backtest{
		cfg:     cfg,
		strat:   strat,
		sctx:    strategy.Context{Assets: cfg.Assets, Targets: targets},
		targets: targetSlice(cfg.Assets, targets),
	}, nil
}

// Run replays the price table. The first period establishes the baseline, so
// the replay spans the table's period count minus one.
func (b *Backtest) Run(table *model.PriceTable) (*BacktestResult, error) {
	if table == nil {
		return nil, model.NewDataError("prices", "price table is required")
	}
	for _, a := range b.cfg.Assets {
		if !table.Has(a.Name) {
			return nil, model.NewDataError(a.Name, "no price series for configured asset")
		}
	}
	if table.Len() < 2 {
		return nil, model.NewDataError("prices", "need at least 2 periods, got %d", table.Len())
	}

	periods := table.Len() - 1
	ppy := b.cfg.EffectivePeriodsPerYear()
	rebalanceEvery := b.cfg.EffectiveRebalanceFrequency()
	policy := b.cfg.Policy()
	method := b.cfg.Method()

	state := newPathState(b.cfg.Assets, b.cfg.InitialBalance, b.targets)

	values := make([]float64, periods+1)
	portfolioReturns := make([]float64, periods)
	hist := make([][]float64, periods+1)
	values[0] = b.cfg.InitialBalance
	hist[0] = state.fractions()

	returns := make([]float64, len(b.cfg.Assets))
	contributed := 0.0

	for step := 1; step <= periods; step++ {
		for i, a := range b.cfg.Assets {
			prev := table.Price(a.Name, step-1)
			cur := table.Price(a.Name, step)
			if method == model.LogReturns {
				returns[i] = math.Log(cur / prev)
			} else {
				returns[i] = cur/prev - 1.0
			}
		}

		before := state.total()
		state.applyReturns(returns)
		// Portfolio return for the period excludes contribution cash so a
		// flat market reads as zero return regardless of the plan.
		if before > 0 {
			portfolioReturns[step-1] = state.total()/before - 1.0
		}

		amount := b.cfg.ContributionPlan.AmountForPeriod(step, ppy)
		state.inject(amount, policy, b.targets)
		contributed += amount

		if step%rebalanceEvery == 0 {
			if err := state.rebalance(b.strat, b.sctx); err != nil {
				return nil, err
			}
		}

		values[step] = state.total()
		hist[step] = state.fractions()
	}

	return newBacktestResult(b.cfg, assetNames(b.cfg.Assets), table.Dates(), values, portfolioReturns, hist, contributed), nil
}
