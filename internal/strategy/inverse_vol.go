package strategy

import "github.com/yourorg/portfolio-sim/internal/model"

// NameEqualWeight identifies the equal-weight strategy.
const NameEqualWeight = "equal_weight"

// NameRiskParity identifies the risk-parity strategy.
const NameRiskParity = "risk_parity"

// equalWeight spreads the portfolio evenly across all assets.
type equalWeight struct{}

func newEqualWeight(_ model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	if len(assets) == 0 {
		return nil, model.NewConfigurationError("assets", "at least one asset is required")
	}
	return &equalWeight{}, nil
}

func (s *equalWeight) Name() string { return NameEqualWeight }

func (s *equalWeight) ProposeWeights(_ map[string]float64, ctx Context) (map[string]float64, error) {
	weights := make(map[string]float64, len(ctx.Assets))
	share := 1.0 / float64(len(ctx.Assets))
	for _, a := range ctx.Assets {
		weights[a.Name] = share
	}
	return weights, nil
}

// riskParity sizes each asset inversely to its configured volatility so that
// every asset contributes roughly equal risk.
type riskParity struct{}

const minParityVol = 1e-6

func newRiskParity(_ model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	if len(assets) == 0 {
		return nil, model.NewConfigurationError("assets", "at least one asset is required")
	}
	return &riskParity{}, nil
}

func (s *riskParity) Name() string { return NameRiskParity }

func (s *riskParity) ProposeWeights(_ map[string]float64, ctx Context) (map[string]float64, error) {
	weights := make(map[string]float64, len(ctx.Assets))
	for _, a := range ctx.Assets {
		vol := a.Volatility
		if vol < minParityVol {
			vol = minParityVol
		}
		weights[a.Name] = 1.0 / vol
	}
	return Normalize(weights)
}
