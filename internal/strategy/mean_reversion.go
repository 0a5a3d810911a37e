package strategy

import "github.com/yourorg/portfolio-sim/internal/model"

// NameMeanReversion identifies the mean-reversion strategy.
const NameMeanReversion = "mean_reversion"

const defaultReversionSpeed = 0.3

// meanReversion pulls the allocation partway back toward the targets each
// rebalance instead of snapping to them: proposed = current +
// speed * (target - current). Speed 1 behaves like fixed-weight; smaller
// speeds spread the correction over several rebalances.
type meanReversion struct {
	speed   float64
	targets map[string]float64
}

func newMeanReversion(spec model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	speed := defaultReversionSpeed
	if spec.ReversionSpeed != nil {
		speed = *spec.ReversionSpeed
		if speed <= 0 || speed > 1 {
			return nil, model.NewConfigurationError("strategy.reversion_speed", "must be in (0,1], got %g", speed)
		}
	}
	targets, err := model.NormalizedWeights(assets)
	if err != nil {
		return nil, err
	}
	return &meanReversion{speed: speed, targets: targets}, nil
}

func (s *meanReversion) Name() string { return NameMeanReversion }

func (s *meanReversion) ProposeWeights(current map[string]float64, _ Context) (map[string]float64, error) {
	weights := make(map[string]float64, len(s.targets))
	for name, target := range s.targets {
		weights[name] = current[name] + s.speed*(target-current[name])
	}
	return Normalize(weights)
}
