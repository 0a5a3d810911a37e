package engine

import (
	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/strategy"
)

// pathState is the mutable per-path portfolio state. It is owned exclusively
// by one engine iteration, never shared across paths, and discarded once the
// run's snapshots are recorded.
type pathState struct {
	assets []model.AssetSpec
	values []float64 // market value per asset, in asset order
	// lastWeights is the allocation last applied by contribution fallback or
	// rebalancing, used when total value is non-positive and fractions
	// cannot be derived.
	lastWeights []float64
}

func newPathState(assets []model.AssetSpec, initial float64, targets []float64) *pathState {
	s := &pathState{
		assets:      assets,
		values:      make([]float64, len(assets)),
		lastWeights: make([]float64, len(assets)),
	}
	copy(s.lastWeights, targets)
	for i := range s.values {
		s.values[i] = initial * targets[i]
	}
	return s
}

func (s *pathState) total() float64 {
	total := 0.0
	for _, v := range s.values {
		total += v
	}
	return total
}

// fractions returns the current allocation as fractions of total value,
// falling back to the last applied weights when total is non-positive.
func (s *pathState) fractions() []float64 {
	total := s.total()
	out := make([]float64, len(s.values))
	if total <= 0 {
		copy(out, s.lastWeights)
		return out
	}
	for i, v := range s.values {
		out[i] = v / total
	}
	return out
}

// applyReturns grows each asset's slice of value by its period return.
func (s *pathState) applyReturns(returns []float64) {
	for i := range s.values {
		s.values[i] *= 1.0 + returns[i]
	}
}

// inject allocates new cash across assets. Under the current-weight policy
// new money follows the money already invested; under the target-weight
// policy it lands at the strategy targets.
func (s *pathState) inject(amount float64, policy model.ContributionPolicy, targets []float64) {
	if amount <= 0 {
		return
	}
	alloc := targets
	if policy == model.ContributeCurrentWeights {
		alloc = s.fractions()
	}
	for i := range s.values {
		s.values[i] += amount * alloc[i]
	}
}

// rebalance asks the strategy for target weights and reallocates the full
// portfolio value accordingly, instantaneously and without transaction
// costs.
func (s *pathState) rebalance(strat strategy.Strategy, sctx strategy.Context) error {
	total := s.total()
	if total <= 0 {
		return nil
	}
	current := make(map[string]float64, len(s.assets))
	fractions := s.fractions()
	for i, a := range s.assets {
		current[a.Name] = fractions[i]
	}
	proposed, err := strat.ProposeWeights(current, sctx)
	if err != nil {
		return err
	}
	for i, a := range s.assets {
		w := proposed[a.Name]
		s.values[i] = total * w
		s.lastWeights[i] = w
	}
	return nil
}

// targetSlice orders the normalized target weights by the asset list.
func targetSlice(assets []model.AssetSpec, targets map[string]float64) []float64 {
	out := make([]float64, len(assets))
	for i, a := range assets {
		out[i] = targets[a.Name]
	}
	return out
}
