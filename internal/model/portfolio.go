package model

// AssetSpec describes the return/risk assumptions for a single asset.
// ExpectedReturn and Volatility are annualized decimals (0.07 means 7%).
// Weight is the raw target weight; engines and strategies always work with
// the normalized view, the raw value is preserved for display.
type AssetSpec struct {
	Name           string  `json:"name" db:"name" binding:"required"`
	ExpectedReturn float64 `json:"expected_return" db:"expected_return"`
	Volatility     float64 `json:"volatility" db:"volatility" binding:"min=0"`
	Weight         float64 `json:"weight" db:"weight" binding:"min=0"`
}

// Frequency is a contribution cadence.
type Frequency string

const (
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
)

// PeriodsPerYear returns how many contributions the frequency makes per year,
// or 0 for an unknown frequency.
func (f Frequency) PeriodsPerYear() int {
	switch f {
	case FrequencyMonthly:
		return 12
	case FrequencyQuarterly:
		return 4
	case FrequencyAnnual:
		return 1
	}
	return 0
}

// ContributionPlan converts an annual contribution amount and a cadence into
// per-period cash injections. Immutable once constructed.
type ContributionPlan struct {
	AnnualContribution float64   `json:"annual_contribution" binding:"min=0"`
	Frequency          Frequency `json:"frequency" binding:"omitempty,frequency"`
}

// PeriodicContribution is the cash amount injected per contribution event.
func (p ContributionPlan) PeriodicContribution() float64 {
	ppy := p.Frequency.PeriodsPerYear()
	if ppy == 0 {
		return 0
	}
	return p.AnnualContribution / float64(ppy)
}

// AmountForPeriod returns the cash injected at the given 1-based period index
// of an engine running at enginePeriodsPerYear steps per year. Contributions
// land on the cadence boundary so a year's injections sum to the annual
// amount regardless of the engine's step size.
func (p ContributionPlan) AmountForPeriod(period, enginePeriodsPerYear int) float64 {
	ppy := p.Frequency.PeriodsPerYear()
	if ppy == 0 || p.AnnualContribution == 0 || period <= 0 {
		return 0
	}
	stride := enginePeriodsPerYear / ppy
	if stride < 1 {
		stride = 1
	}
	if period%stride != 0 {
		return 0
	}
	// When the engine runs finer than the cadence, each event carries the
	// cadence amount; when it runs coarser, the cadence collapses to every
	// period and the amount rescales so the annual total is preserved.
	if enginePeriodsPerYear < ppy {
		return p.AnnualContribution / float64(enginePeriodsPerYear)
	}
	return p.AnnualContribution / float64(ppy)
}

// Validate checks the plan's fields.
func (p ContributionPlan) Validate() error {
	if p.AnnualContribution < 0 {
		return NewConfigurationError("contribution_plan.annual_contribution", "must be >= 0, got %g", p.AnnualContribution)
	}
	if p.AnnualContribution > 0 && p.Frequency.PeriodsPerYear() == 0 {
		return NewConfigurationError("contribution_plan.frequency", "unknown frequency %q", p.Frequency)
	}
	return nil
}

// StrategySpec selects and parameterizes a rebalancing strategy by name.
type StrategySpec struct {
	Name               string   `json:"name" binding:"required"`
	TargetVolatility   *float64 `json:"target_volatility,omitempty"`
	RebalanceThreshold *float64 `json:"rebalance_threshold,omitempty"`
	ReversionSpeed     *float64 `json:"reversion_speed,omitempty"`
}

// ContributionPolicy decides how new cash is split across assets before the
// next rebalance.
type ContributionPolicy string

const (
	// ContributeCurrentWeights allocates new money like the money already
	// invested. Default.
	ContributeCurrentWeights ContributionPolicy = "current"
	// ContributeTargetWeights allocates new money at the strategy targets.
	ContributeTargetWeights ContributionPolicy = "target"
)

// ReturnMethod selects how the backtest derives per-period returns from
// prices.
type ReturnMethod string

const (
	SimpleReturns ReturnMethod = "simple"
	LogReturns    ReturnMethod = "log"
)

// NormalizedWeights rescales the assets' raw weights to sum to 1.0, keeping
// relative proportions. The raw weights are never mutated.
func NormalizedWeights(assets []AssetSpec) (map[string]float64, error) {
	total := 0.0
	for _, a := range assets {
		if a.Weight < 0 {
			return nil, NewConfigurationError("assets."+a.Name+".weight", "must be >= 0, got %g", a.Weight)
		}
		total += a.Weight
	}
	if total <= 0 {
		return nil, NewConfigurationError("assets", "weights sum to %g, cannot normalize", total)
	}
	weights := make(map[string]float64, len(assets))
	for _, a := range assets {
		weights[a.Name] = a.Weight / total
	}
	return weights, nil
}

func validateAssets(assets []AssetSpec) error {
	if len(assets) == 0 {
		return NewConfigurationError("assets", "at least one asset is required")
	}
	seen := make(map[string]bool, len(assets))
	for _, a := range assets {
		if a.Name == "" {
			return NewConfigurationError("assets.name", "asset name must not be empty")
		}
		if seen[a.Name] {
			return NewConfigurationError("assets", "duplicate asset name %q", a.Name)
		}
		seen[a.Name] = true
		if a.Volatility < 0 {
			return NewConfigurationError("assets."+a.Name+".volatility", "must be >= 0, got %g", a.Volatility)
		}
	}
	if _, err := NormalizedWeights(assets); err != nil {
		return err
	}
	return nil
}
