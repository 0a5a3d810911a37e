package engine

import (
	"math"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"
)

// BacktestResult is the immutable outcome of a historical replay. Like
// SimulationResult it stores only canonical series and recomputes every
// metric on access.
type BacktestResult struct {
	cfg         *model.BacktestConfig
	assetNames  []string
	dates       []time.Time
	values      []float64 // periods+1, including the baseline
	returns     []float64 // per-period portfolio returns, contributions excluded
	weights     [][]float64
	contributed float64
}

func newBacktestResult(cfg *model.BacktestConfig, names []string, dates []time.Time, values, returns []float64, weights [][]float64, contributed float64) *BacktestResult {
	return &BacktestResult{
		cfg:         cfg,
		assetNames:  names,
		dates:       dates,
		values:      values,
		returns:     returns,
		weights:     weights,
		contributed: contributed,
	}
}

// Config returns the originating configuration.
func (r *BacktestResult) Config() *model.BacktestConfig { return r.cfg }

// AssetNames returns the asset order used by weight snapshots.
func (r *BacktestResult) AssetNames() []string {
	cp := make([]string, len(r.assetNames))
	copy(cp, r.assetNames)
	return cp
}

// Dates returns the replayed time index, baseline included.
func (r *BacktestResult) Dates() []time.Time {
	cp := make([]time.Time, len(r.dates))
	copy(cp, r.dates)
	return cp
}

// Periods returns the number of replayed periods (excluding the baseline).
func (r *BacktestResult) Periods() int { return len(r.returns) }

// TotalContributed is the cash injected over the replay.
func (r *BacktestResult) TotalContributed() float64 { return r.contributed }

// ValueSeries returns a copy of the portfolio value series.
func (r *BacktestResult) ValueSeries() []float64 {
	cp := make([]float64, len(r.values))
	copy(cp, r.values)
	return cp
}

// ReturnSeries returns a copy of the per-period portfolio returns.
func (r *BacktestResult) ReturnSeries() []float64 {
	cp := make([]float64, len(r.returns))
	copy(cp, r.returns)
	return cp
}

// WeightSeries returns a copy of the per-period weight snapshots, in
// AssetNames order.
func (r *BacktestResult) WeightSeries() [][]float64 {
	out := make([][]float64, len(r.weights))
	for i, row := range r.weights {
		cp := make([]float64, len(row))
		copy(cp, row)
		out[i] = cp
	}
	return out
}

// TerminalValue is the final portfolio value.
func (r *BacktestResult) TerminalValue() float64 {
	return r.values[len(r.values)-1]
}

func (r *BacktestResult) returnBasis() (float64, error) {
	if r.cfg.InitialBalance > 0 {
		return r.cfg.InitialBalance, nil
	}
	if r.contributed > 0 {
		return r.contributed, nil
	}
	return 0, model.NewNumericalError("returns", "no capital basis: initial balance and contributions are both zero")
}

// TotalReturn is the simple return of the replay over the capital basis:
// growth of terminal value beyond all invested cash, relative to the basis.
func (r *BacktestResult) TotalReturn() (float64, error) {
	basis, err := r.returnBasis()
	if err != nil {
		return 0, err
	}
	invested := r.cfg.InitialBalance + r.contributed
	return (r.TerminalValue() - invested) / basis, nil
}

// AnnualizedReturn compounds the total return over the replayed span.
func (r *BacktestResult) AnnualizedReturn() (float64, error) {
	total, err := r.TotalReturn()
	if err != nil {
		return 0, err
	}
	years := float64(r.Periods()) / float64(r.cfg.EffectivePeriodsPerYear())
	if years <= 0 {
		return 0, model.NewNumericalError("annualized_return", "replay spans zero years")
	}
	base := 1.0 + total
	if base <= 0 {
		return -1.0, nil
	}
	return math.Pow(base, 1.0/years) - 1.0, nil
}

// RealizedVolatility annualizes the standard deviation of period returns.
func (r *BacktestResult) RealizedVolatility() float64 {
	return stddev(r.returns) * math.Sqrt(float64(r.cfg.EffectivePeriodsPerYear()))
}

// SharpeRatio is the annualized excess return per unit of period volatility:
// (mean period return - rf/periods_per_year) / stddev * sqrt(periods_per_year).
// The risk-free rate must be supplied explicitly; a zero-variance series
// with zero excess return is a NumericalError, while a non-zero excess over
// zero variance is signalled as an infinite ratio.
func (r *BacktestResult) SharpeRatio() (float64, error) {
	if r.cfg.RiskFreeRate == nil {
		return 0, model.NewConfigurationError("risk_free_rate", "required to compute a Sharpe ratio")
	}
	ppy := float64(r.cfg.EffectivePeriodsPerYear())
	excess := mean(r.returns) - *r.cfg.RiskFreeRate/ppy
	sd := stddev(r.returns)
	if sd == 0 {
		if excess == 0 {
			return 0, model.NewNumericalError("sharpe_ratio", "zero-variance return series with zero excess return")
		}
		return math.Inf(sign(excess)), nil
	}
	return excess / sd * math.Sqrt(ppy), nil
}

func sign(v float64) int {
	if v < 0 {
		return -1
	}
	return 1
}

// MaxDrawdown is the largest peak-to-trough decline of the value series.
func (r *BacktestResult) MaxDrawdown() float64 {
	return maxDrawdown(r.values)
}

// ValueAtRisk is the historical per-period VaR: the negated (1-alpha)
// quantile of observed period returns.
func (r *BacktestResult) ValueAtRisk(alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, model.NewConfigurationError("value_at_risk.alpha", "must be in (0,1), got %g", alpha)
	}
	q, err := quantile(r.returns, 1.0-alpha)
	if err != nil {
		return 0, err
	}
	return -q, nil
}

// ConditionalValueAtRisk is the negated mean of period returns at or below
// the VaR threshold.
func (r *BacktestResult) ConditionalValueAtRisk(alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, model.NewConfigurationError("conditional_value_at_risk.alpha", "must be in (0,1), got %g", alpha)
	}
	threshold, err := quantile(r.returns, 1.0-alpha)
	if err != nil {
		return 0, err
	}
	tail := make([]float64, 0, len(r.returns))
	for _, ret := range r.returns {
		if ret <= threshold {
			tail = append(tail, ret)
		}
	}
	if len(tail) == 0 {
		return -threshold, nil
	}
	return -mean(tail), nil
}
