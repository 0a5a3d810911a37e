package engine

import (
	"github.com/yourorg/portfolio-sim/internal/model"
)

// DrawdownSummary aggregates the per-path maximum drawdowns.
type DrawdownSummary struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Worst  float64 `json:"worst"`
}

// SimulationResult is the immutable outcome of a forward run. It stores only
// the canonical per-path series; every metric accessor recomputes from those
// arrays on demand, so there is no derived cache that could go stale.
type SimulationResult struct {
	cfg         *model.SimulationConfig
	assetNames  []string
	paths       [][]float64   // per path: periods+1 values
	weights     [][][]float64 // per path, per period: asset fractions
	contributed float64       // cash injected over the horizon, per path
}

func newSimulationResult(cfg *model.SimulationConfig, names []string, paths [][]float64, weights [][][]float64, contributed float64) *SimulationResult {
	return &SimulationResult{
		cfg:         cfg,
		assetNames:  names,
		paths:       paths,
		weights:     weights,
		contributed: contributed,
	}
}

// Config returns the originating configuration.
func (r *SimulationResult) Config() *model.SimulationConfig { return r.cfg }

// AssetNames returns the asset order used by weight snapshots.
func (r *SimulationResult) AssetNames() []string {
	cp := make([]string, len(r.assetNames))
	copy(cp, r.assetNames)
	return cp
}

// NumPaths returns how many paths were simulated.
func (r *SimulationResult) NumPaths() int { return len(r.paths) }

// Periods returns the number of simulated periods (excluding the initial
// snapshot).
func (r *SimulationResult) Periods() int {
	if len(r.paths) == 0 {
		return 0
	}
	return len(r.paths[0]) - 1
}

// TotalContributed is the cash injected into each path over the horizon.
func (r *SimulationResult) TotalContributed() float64 { return r.contributed }

// ValueSeries returns a copy of one path's value series.
func (r *SimulationResult) ValueSeries(path int) []float64 {
	cp := make([]float64, len(r.paths[path]))
	copy(cp, r.paths[path])
	return cp
}

// WeightSeries returns a copy of one path's per-period weight snapshots, in
// AssetNames order.
func (r *SimulationResult) WeightSeries(path int) [][]float64 {
	out := make([][]float64, len(r.weights[path]))
	for i, row := range r.weights[path] {
		cp := make([]float64, len(row))
		copy(cp, row)
		out[i] = cp
	}
	return out
}

// TerminalValues returns each path's final portfolio value.
func (r *SimulationResult) TerminalValues() []float64 {
	out := make([]float64, len(r.paths))
	for i, series := range r.paths {
		out[i] = series[len(series)-1]
	}
	return out
}

// Quantile returns the q-th quantile of terminal values across paths, using
// linear interpolation between order statistics.
func (r *SimulationResult) Quantile(q float64) (float64, error) {
	return quantile(r.TerminalValues(), q)
}

// QuantileSeries returns the per-period q-th quantile across paths, one
// value per period including the initial snapshot.
func (r *SimulationResult) QuantileSeries(q float64) ([]float64, error) {
	periods := r.Periods()
	out := make([]float64, periods+1)
	sample := make([]float64, len(r.paths))
	for t := 0; t <= periods; t++ {
		for p, series := range r.paths {
			sample[p] = series[t]
		}
		v, err := quantile(sample, q)
		if err != nil {
			return nil, err
		}
		out[t] = v
	}
	return out, nil
}

// MeanSeries returns the cross-path mean value per period.
func (r *SimulationResult) MeanSeries() []float64 {
	periods := r.Periods()
	out := make([]float64, periods+1)
	for t := 0; t <= periods; t++ {
		total := 0.0
		for _, series := range r.paths {
			total += series[t]
		}
		out[t] = total / float64(len(r.paths))
	}
	return out
}

// MedianSeries returns the cross-path median value per period.
func (r *SimulationResult) MedianSeries() []float64 {
	series, err := r.QuantileSeries(0.5)
	if err != nil {
		return nil
	}
	return series
}

// returnBasis is the capital base simple returns are measured against: the
// initial balance, or total contributed capital when the run started from
// zero.
func (r *SimulationResult) returnBasis() (float64, error) {
	if r.cfg.InitialBalance > 0 {
		return r.cfg.InitialBalance, nil
	}
	if r.contributed > 0 {
		return r.contributed, nil
	}
	return 0, model.NewNumericalError("returns", "no capital basis: initial balance and contributions are both zero")
}

// TerminalReturns converts terminal values to simple returns over the
// capital basis.
func (r *SimulationResult) TerminalReturns() ([]float64, error) {
	basis, err := r.returnBasis()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(r.paths))
	for i, series := range r.paths {
		out[i] = series[len(series)-1]/basis - 1.0
	}
	return out, nil
}

// ValueAtRisk returns the loss not expected to be exceeded with confidence
// alpha: the negated (1-alpha)-quantile of terminal simple returns.
func (r *SimulationResult) ValueAtRisk(alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, model.NewConfigurationError("value_at_risk.alpha", "must be in (0,1), got %g", alpha)
	}
	returns, err := r.TerminalReturns()
	if err != nil {
		return 0, err
	}
	q, err := quantile(returns, 1.0-alpha)
	if err != nil {
		return 0, err
	}
	return -q, nil
}

// ConditionalValueAtRisk returns the expected loss given that the loss
// exceeds the VaR threshold: the negated mean of all terminal returns at or
// below the (1-alpha)-quantile.
func (r *SimulationResult) ConditionalValueAtRisk(alpha float64) (float64, error) {
	if alpha <= 0 || alpha >= 1 {
		return 0, model.NewConfigurationError("conditional_value_at_risk.alpha", "must be in (0,1), got %g", alpha)
	}
	returns, err := r.TerminalReturns()
	if err != nil {
		return 0, err
	}
	threshold, err := quantile(returns, 1.0-alpha)
	if err != nil {
		return 0, err
	}
	tail := make([]float64, 0, len(returns))
	for _, ret := range returns {
		if ret <= threshold {
			tail = append(tail, ret)
		}
	}
	if len(tail) == 0 {
		return -threshold, nil
	}
	return -mean(tail), nil
}

// MaxDrawdowns returns each path's maximum peak-to-trough decline, computed
// from that path's own value series.
func (r *SimulationResult) MaxDrawdowns() []float64 {
	out := make([]float64, len(r.paths))
	for i, series := range r.paths {
		out[i] = maxDrawdown(series)
	}
	return out
}

// DrawdownSummary aggregates the per-path maximum drawdowns.
func (r *SimulationResult) DrawdownSummary() (DrawdownSummary, error) {
	drawdowns := r.MaxDrawdowns()
	median, err := quantile(drawdowns, 0.5)
	if err != nil {
		return DrawdownSummary{}, err
	}
	worst := 0.0
	for _, dd := range drawdowns {
		if dd > worst {
			worst = dd
		}
	}
	return DrawdownSummary{Mean: mean(drawdowns), Median: median, Worst: worst}, nil
}
