package model

// SimulationConfig drives the forward Monte Carlo engine.
type SimulationConfig struct {
	Assets             []AssetSpec        `json:"assets" binding:"required,min=1,dive"`
	ContributionPlan   ContributionPlan   `json:"contribution_plan"`
	Strategy           StrategySpec       `json:"strategy" binding:"required"`
	HorizonYears       int                `json:"horizon_years" binding:"required,min=1"`
	InitialBalance     float64            `json:"initial_balance" binding:"min=0"`
	NumPaths           int                `json:"num_paths" binding:"required,min=1"`
	RebalanceFrequency int                `json:"rebalance_frequency"`
	RandomSeed         *int64             `json:"random_seed,omitempty"`
	ContributionPolicy ContributionPolicy `json:"contribution_policy,omitempty"`
	// Correlations, when present, is the asset return correlation matrix in
	// asset order; shocks are drawn jointly normal instead of independently.
	Correlations [][]float64 `json:"correlations,omitempty"`
}

// Validate fails fast on anything the engines depend on. It assumes outer
// schema checks already ran and re-checks only cross-field invariants.
func (c *SimulationConfig) Validate() error {
	if err := validateAssets(c.Assets); err != nil {
		return err
	}
	if err := c.ContributionPlan.Validate(); err != nil {
		return err
	}
	if c.HorizonYears <= 0 {
		return NewConfigurationError("horizon_years", "must be > 0, got %d", c.HorizonYears)
	}
	if c.NumPaths <= 0 {
		return NewConfigurationError("num_paths", "must be > 0, got %d", c.NumPaths)
	}
	if c.InitialBalance < 0 {
		return NewConfigurationError("initial_balance", "must be >= 0, got %g", c.InitialBalance)
	}
	if c.RebalanceFrequency < 0 {
		return NewConfigurationError("rebalance_frequency", "must be >= 0, got %d", c.RebalanceFrequency)
	}
	switch c.ContributionPolicy {
	case "", ContributeCurrentWeights, ContributeTargetWeights:
	default:
		return NewConfigurationError("contribution_policy", "unknown policy %q", c.ContributionPolicy)
	}
	if c.Correlations != nil {
		n := len(c.Assets)
		if len(c.Correlations) != n {
			return NewConfigurationError("correlations", "matrix must be %dx%d, got %d rows", n, n, len(c.Correlations))
		}
		for i, row := range c.Correlations {
			if len(row) != n {
				return NewConfigurationError("correlations", "row %d has %d columns, want %d", i, len(row), n)
			}
		}
	}
	return nil
}

// EffectiveRebalanceFrequency defaults to monthly rebalancing.
func (c *SimulationConfig) EffectiveRebalanceFrequency() int {
	if c.RebalanceFrequency <= 0 {
		return 1
	}
	return c.RebalanceFrequency
}

// Policy returns the contribution policy, defaulting to current-weight
// allocation.
func (c *SimulationConfig) Policy() ContributionPolicy {
	if c.ContributionPolicy == "" {
		return ContributeCurrentWeights
	}
	return c.ContributionPolicy
}

// BacktestConfig drives the historical replay engine. The time axis comes
// from the supplied price table, so there is no horizon; RebalanceFrequency
// is measured in trading periods.
type BacktestConfig struct {
	Assets             []AssetSpec        `json:"assets" binding:"required,min=1,dive"`
	ContributionPlan   ContributionPlan   `json:"contribution_plan"`
	Strategy           StrategySpec       `json:"strategy" binding:"required"`
	InitialBalance     float64            `json:"initial_balance" binding:"min=0"`
	RebalanceFrequency int                `json:"rebalance_frequency"`
	ReturnMethod       ReturnMethod       `json:"return_method,omitempty"`
	ContributionPolicy ContributionPolicy `json:"contribution_policy,omitempty"`
	// PeriodsPerYear annualizes Sharpe and volatility; 252 trading days by
	// default.
	PeriodsPerYear int `json:"periods_per_year,omitempty"`
	// RiskFreeRate is required only when a Sharpe ratio is requested.
	RiskFreeRate *float64 `json:"risk_free_rate,omitempty"`
}

// Validate fails fast on anything the engines depend on.
func (c *BacktestConfig) Validate() error {
	if err := validateAssets(c.Assets); err != nil {
		return err
	}
	if err := c.ContributionPlan.Validate(); err != nil {
		return err
	}
	if c.InitialBalance < 0 {
		return NewConfigurationError("initial_balance", "must be >= 0, got %g", c.InitialBalance)
	}
	if c.RebalanceFrequency < 0 {
		return NewConfigurationError("rebalance_frequency", "must be >= 0, got %d", c.RebalanceFrequency)
	}
	switch c.ReturnMethod {
	case "", SimpleReturns, LogReturns:
	default:
		return NewConfigurationError("return_method", "unknown method %q", c.ReturnMethod)
	}
	switch c.ContributionPolicy {
	case "", ContributeCurrentWeights, ContributeTargetWeights:
	default:
		return NewConfigurationError("contribution_policy", "unknown policy %q", c.ContributionPolicy)
	}
	if c.PeriodsPerYear < 0 {
		return NewConfigurationError("periods_per_year", "must be >= 0, got %d", c.PeriodsPerYear)
	}
	return nil
}

// EffectiveRebalanceFrequency defaults to rebalancing every trading period.
func (c *BacktestConfig) EffectiveRebalanceFrequency() int {
	if c.RebalanceFrequency <= 0 {
		return 1
	}
	return c.RebalanceFrequency
}

// EffectivePeriodsPerYear defaults to 252 trading days.
func (c *BacktestConfig) EffectivePeriodsPerYear() int {
	if c.PeriodsPerYear <= 0 {
		return 252
	}
	return c.PeriodsPerYear
}

// Method returns the return derivation method, defaulting to simple returns.
func (c *BacktestConfig) Method() ReturnMethod {
	if c.ReturnMethod == "" {
		return SimpleReturns
	}
	return c.ReturnMethod
}

// Policy returns the contribution policy, defaulting to current-weight
// allocation.
func (c *BacktestConfig) Policy() ContributionPolicy {
	if c.ContributionPolicy == "" {
		return ContributeCurrentWeights
	}
	return c.ContributionPolicy
}
