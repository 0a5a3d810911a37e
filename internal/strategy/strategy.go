package strategy

import (
	"math"
	"sort"

	"github.com/yourorg/portfolio-sim/internal/model"
)

// Context carries the market state a strategy may consult when proposing
// weights. Assets is the configured asset list in order; Targets is the
// normalized target allocation.
type Context struct {
	Assets  []model.AssetSpec
	Targets map[string]float64
}

// Strategy is a pure decision rule: given the current allocation and the
// period context, return the target allocation. Implementations hold no
// simulation state and perform no I/O, so one instance can serve every path
// of a run. Returned weights are non-negative and sum to 1.0; normalization
// is the strategy's responsibility.
type Strategy interface {
	Name() string
	ProposeWeights(current map[string]float64, ctx Context) (map[string]float64, error)
}

// Factory builds a strategy from its spec and the configured assets.
type Factory func(spec model.StrategySpec, assets []model.AssetSpec) (Strategy, error)

var registry = map[string]Factory{}

// Register adds a named strategy constructor. Engines look strategies up by
// name only, so new strategies require no engine changes.
func Register(name string, factory Factory) {
	registry[name] = factory
}

// New looks up and constructs the strategy selected by spec.Name.
func New(spec model.StrategySpec, assets []model.AssetSpec) (Strategy, error) {
	factory, ok := registry[spec.Name]
	if !ok {
		return nil, model.NewConfigurationError("strategy.name", "unknown strategy %q", spec.Name)
	}
	return factory(spec, assets)
}

// Names returns the registered strategy names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const normalizeTolerance = 1e-6

// Normalize rescales weights proportionally when their sum deviates from 1.0
// by more than the tolerance. A zero or negative sum cannot be normalized.
func Normalize(weights map[string]float64) (map[string]float64, error) {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	if total <= 0 {
		return nil, model.NewConfigurationError("strategy.weights", "weights sum to %g, cannot normalize", total)
	}
	if math.Abs(total-1.0) <= normalizeTolerance {
		return weights, nil
	}
	scaled := make(map[string]float64, len(weights))
	for name, w := range weights {
		scaled[name] = w / total
	}
	return scaled, nil
}

func copyWeights(weights map[string]float64) map[string]float64 {
	cp := make(map[string]float64, len(weights))
	for name, w := range weights {
		cp[name] = w
	}
	return cp
}

func init() {
	Register(NameFixedWeight, newFixedWeight)
	Register(NameTargetRisk, newTargetRisk)
	Register(NameAdaptiveRebalance, newAdaptiveRebalance)
	Register(NameEqualWeight, newEqualWeight)
	Register(NameRiskParity, newRiskParity)
	Register(NameMeanReversion, newMeanReversion)
}
