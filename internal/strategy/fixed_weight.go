package strategy

import "github.com/yourorg/portfolio-sim/internal/model"

// NameFixedWeight identifies the fixed-weight strategy.
const NameFixedWeight = "fixed_weight"

// fixedWeight always restores the configured target allocation, ignoring the
// current weights entirely.
type fixedWeight struct {
	targets map[string]float64
}

func newFixedWeight(_ model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	targets, err := model.NormalizedWeights(assets)
	if err != nil {
		return nil, err
	}
	return &fixedWeight{targets: targets}, nil
}

func (s *fixedWeight) Name() string { return NameFixedWeight }

func (s *fixedWeight) ProposeWeights(_ map[string]float64, _ Context) (map[string]float64, error) {
	return copyWeights(s.targets), nil
}
