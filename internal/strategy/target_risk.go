package strategy

import (
	"math"

	"github.com/yourorg/portfolio-sim/internal/model"
)

// NameTargetRisk identifies the target-risk strategy.
const NameTargetRisk = "target_risk"

// targetRisk tilts the target allocation toward low-volatility assets so the
// blended portfolio volatility approximates the configured target. Assets
// with zero configured volatility are treated as risk-free and absorb
// whatever allocation the risky block gives up; when every asset is risky,
// the lowest-volatility asset plays that role.
type targetRisk struct {
	targetVol float64
	targets   map[string]float64
}

func newTargetRisk(spec model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	if spec.TargetVolatility == nil {
		return nil, model.NewConfigurationError("strategy.target_volatility", "required for %s", NameTargetRisk)
	}
	if *spec.TargetVolatility <= 0 {
		return nil, model.NewConfigurationError("strategy.target_volatility", "must be > 0, got %g", *spec.TargetVolatility)
	}
	allZero := true
	for _, a := range assets {
		if a.Volatility > 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return nil, model.NewConfigurationError("strategy.target_volatility", "all assets have zero volatility, cannot scale toward a risk target")
	}
	targets, err := model.NormalizedWeights(assets)
	if err != nil {
		return nil, err
	}
	return &targetRisk{targetVol: *spec.TargetVolatility, targets: targets}, nil
}

func (s *targetRisk) Name() string { return NameTargetRisk }

func (s *targetRisk) ProposeWeights(_ map[string]float64, ctx Context) (map[string]float64, error) {
	weights := make(map[string]float64, len(ctx.Assets))
	for _, a := range ctx.Assets {
		weights[a.Name] = 0
	}

	// Inverse-volatility scaling across the risky assets, normalized within
	// the risky block.
	riskyTotal := 0.0
	for _, a := range ctx.Assets {
		if a.Volatility > 0 {
			riskyTotal += s.targets[a.Name] / a.Volatility
		}
	}
	if riskyTotal <= 0 {
		return nil, model.NewConfigurationError("strategy.target_volatility", "no risky asset carries target weight, cannot scale")
	}
	for _, a := range ctx.Assets {
		if a.Volatility > 0 {
			weights[a.Name] = (s.targets[a.Name] / a.Volatility) / riskyTotal
		}
	}

	// Scale the risky block so its blended volatility meets the target, then
	// hand the residual to the risk-free assets.
	blended := 0.0
	for _, a := range ctx.Assets {
		if a.Volatility > 0 {
			blended += weights[a.Name] * weights[a.Name] * a.Volatility * a.Volatility
		}
	}
	blended = math.Sqrt(blended)
	scale := 1.0
	if blended > 0 && s.targetVol < blended {
		scale = s.targetVol / blended
	}

	riskFreeTarget := 0.0
	for _, a := range ctx.Assets {
		if a.Volatility == 0 {
			riskFreeTarget += s.targets[a.Name]
		}
	}

	residual := 0.0
	for _, a := range ctx.Assets {
		if a.Volatility > 0 {
			weights[a.Name] *= scale
		}
	}
	total := 0.0
	for _, w := range weights {
		total += w
	}
	residual = 1.0 - total

	if residual > 0 {
		if riskFreeTarget > 0 {
			for _, a := range ctx.Assets {
				if a.Volatility == 0 {
					weights[a.Name] = residual * s.targets[a.Name] / riskFreeTarget
				}
			}
		} else {
			n := 0
			for _, a := range ctx.Assets {
				if a.Volatility == 0 {
					n++
				}
			}
			if n > 0 {
				for _, a := range ctx.Assets {
					if a.Volatility == 0 {
						weights[a.Name] = residual / float64(n)
					}
				}
			} else {
				// All assets are risky: the lowest-volatility one stands in
				// for cash and takes the scaled-out allocation, otherwise
				// normalization would rescale the block back up and undo the
				// risk target.
				minName := ctx.Assets[0].Name
				minVol := ctx.Assets[0].Volatility
				for _, a := range ctx.Assets[1:] {
					if a.Volatility < minVol {
						minName = a.Name
						minVol = a.Volatility
					}
				}
				weights[minName] += residual
			}
		}
	}

	return Normalize(weights)
}
