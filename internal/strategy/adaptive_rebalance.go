package strategy

import (
	"math"

	"github.com/yourorg/portfolio-sim/internal/model"
)

// NameAdaptiveRebalance identifies the adaptive-rebalance strategy.
const NameAdaptiveRebalance = "adaptive_rebalance"

// adaptiveRebalance restores the target allocation only once some asset has
// drifted further from target than the threshold; otherwise it leaves the
// current allocation untouched, avoiding unnecessary turnover. The trigger
// is strictly greater-than, so deviation equal to the threshold does not
// rebalance.
type adaptiveRebalance struct {
	threshold float64
	targets   map[string]float64
}

func newAdaptiveRebalance(spec model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	if spec.RebalanceThreshold == nil {
		return nil, model.NewConfigurationError("strategy.rebalance_threshold", "required for %s", NameAdaptiveRebalance)
	}
	threshold := *spec.RebalanceThreshold
	if threshold <= 0 || threshold >= 1 {
		return nil, model.NewConfigurationError("strategy.rebalance_threshold", "must be in (0,1), got %g", threshold)
	}
	targets, err := model.NormalizedWeights(assets)
	if err != nil {
		return nil, err
	}
	return &adaptiveRebalance{threshold: threshold, targets: targets}, nil
}

func (s *adaptiveRebalance) Name() string { return NameAdaptiveRebalance }

func (s *adaptiveRebalance) ProposeWeights(current map[string]float64, _ Context) (map[string]float64, error) {
	maxDeviation := 0.0
	for name, target := range s.targets {
		deviation := math.Abs(current[name] - target)
		if deviation > maxDeviation {
			maxDeviation = deviation
		}
	}
	if maxDeviation > s.threshold {
		return copyWeights(s.targets), nil
	}
	return copyWeights(current), nil
}
