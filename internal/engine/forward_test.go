package engine

import (
	"testing"

	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func baseConfig() *model.SimulationConfig {
	return &model.SimulationConfig{
		Assets: []model.AssetSpec{
			{Name: "equity", ExpectedReturn: 0.07, Volatility: 0.15, Weight: 0.6},
			{Name: "bond", ExpectedReturn: 0.03, Volatility: 0.02, Weight: 0.4},
		},
		Strategy:       model.StrategySpec{Name: strategy.NameFixedWeight},
		HorizonYears:   1,
		InitialBalance: 10000,
		NumPaths:       1000,
		RandomSeed:     int64Ptr(42),
	}
}

func TestNewForwardValidation(t *testing.T) {
	var cfgErr *model.ConfigurationError

	tests := []struct {
		name   string
		mutate func(*model.SimulationConfig)
	}{
		{"zero paths", func(c *model.SimulationConfig) { c.NumPaths = 0 }},
		{"zero horizon", func(c *model.SimulationConfig) { c.HorizonYears = 0 }},
		{"negative volatility", func(c *model.SimulationConfig) { c.Assets[0].Volatility = -0.1 }},
		{"no assets", func(c *model.SimulationConfig) { c.Assets = nil }},
		{"duplicate assets", func(c *model.SimulationConfig) { c.Assets[1].Name = c.Assets[0].Name }},
		{"zero weight sum", func(c *model.SimulationConfig) {
			c.Assets[0].Weight = 0
			c.Assets[1].Weight = 0
		}},
		{"bad correlation shape", func(c *model.SimulationConfig) { c.Correlations = [][]float64{{1}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := baseConfig()
			tt.mutate(cfg)
			_, err := NewForward(cfg)
			require.Error(t, err)
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}

func TestForwardReproducibility(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 50

	run := func() *SimulationResult {
		eng, err := NewForward(cfg)
		require.NoError(t, err)
		result, err := eng.Run()
		require.NoError(t, err)
		return result
	}

	first := run()
	second := run()
	for p := 0; p < cfg.NumPaths; p++ {
		assert.Equal(t, first.ValueSeries(p), second.ValueSeries(p), "path %d diverged", p)
	}
}

func TestForwardPathsIndependentOfNumPaths(t *testing.T) {
	small := baseConfig()
	small.NumPaths = 10
	large := baseConfig()
	large.NumPaths = 40

	engSmall, err := NewForward(small)
	require.NoError(t, err)
	engLarge, err := NewForward(large)
	require.NoError(t, err)

	resSmall, err := engSmall.Run()
	require.NoError(t, err)
	resLarge, err := engLarge.Run()
	require.NoError(t, err)

	// Adding paths must not perturb already-computed ones.
	for p := 0; p < small.NumPaths; p++ {
		assert.Equal(t, resSmall.ValueSeries(p), resLarge.ValueSeries(p), "path %d perturbed", p)
	}
}

func TestForwardIndependentOfWorkerCount(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 32

	engSerial, err := NewForward(cfg)
	require.NoError(t, err)
	engSerial.SetWorkers(1)
	engParallel, err := NewForward(cfg)
	require.NoError(t, err)
	engParallel.SetWorkers(8)

	serial, err := engSerial.Run()
	require.NoError(t, err)
	parallel, err := engParallel.Run()
	require.NoError(t, err)

	for p := 0; p < cfg.NumPaths; p++ {
		assert.Equal(t, serial.ValueSeries(p), parallel.ValueSeries(p))
	}
}

func TestForwardContributionConservation(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 1
	cfg.HorizonYears = 3
	cfg.ContributionPlan = model.ContributionPlan{
		AnnualContribution: 1200,
		Frequency:          model.FrequencyMonthly,
	}

	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	assert.InEpsilon(t, 3600, result.TotalContributed(), 1e-6)
}

func TestForwardQuarterlyContributionCadence(t *testing.T) {
	plan := model.ContributionPlan{AnnualContribution: 1200, Frequency: model.FrequencyQuarterly}

	total := 0.0
	for step := 1; step <= 12; step++ {
		amount := plan.AmountForPeriod(step, MonthsPerYear)
		if step%3 == 0 {
			assert.InDelta(t, 300, amount, 1e-12)
		} else {
			assert.Zero(t, amount)
		}
		total += amount
	}
	assert.InDelta(t, 1200, total, 1e-9)
}

func TestForwardMedianBetweenDeterministicBounds(t *testing.T) {
	cfg := baseConfig()

	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	median, err := result.Quantile(0.5)
	require.NoError(t, err)

	allBond := cfg.InitialBalance * 1.03
	allEquity := cfg.InitialBalance * 1.07
	assert.Greater(t, median, allBond)
	assert.Less(t, median, allEquity)
}

func TestForwardQuantileMonotonicity(t *testing.T) {
	cfg := baseConfig()
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	q10, err := result.Quantile(0.1)
	require.NoError(t, err)
	q50, err := result.Quantile(0.5)
	require.NoError(t, err)
	q90, err := result.Quantile(0.9)
	require.NoError(t, err)

	assert.LessOrEqual(t, q10, q50)
	assert.LessOrEqual(t, q50, q90)
}

func TestForwardDrawdownBounds(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 200
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	for _, dd := range result.MaxDrawdowns() {
		assert.GreaterOrEqual(t, dd, 0.0)
		assert.LessOrEqual(t, dd, 1.0)
	}

	summary, err := result.DrawdownSummary()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, summary.Worst, summary.Mean)
}

func TestForwardTailRiskOrdering(t *testing.T) {
	cfg := baseConfig()
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	varLoss, err := result.ValueAtRisk(0.95)
	require.NoError(t, err)
	cvarLoss, err := result.ConditionalValueAtRisk(0.95)
	require.NoError(t, err)

	// Expected shortfall is at least as severe as the threshold loss.
	assert.GreaterOrEqual(t, cvarLoss, varLoss)
}

func TestForwardVaRAlphaValidation(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 10
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	var cfgErr *model.ConfigurationError
	_, err = result.ValueAtRisk(0)
	assert.ErrorAs(t, err, &cfgErr)
	_, err = result.ValueAtRisk(1)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestForwardZeroCapitalReturnsError(t *testing.T) {
	cfg := baseConfig()
	cfg.InitialBalance = 0
	cfg.NumPaths = 5

	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	var numErr *model.NumericalError
	_, err = result.TerminalReturns()
	assert.ErrorAs(t, err, &numErr)
}

func TestForwardCorrelatedDraws(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 100
	cfg.Correlations = [][]float64{
		{1.0, 0.8},
		{0.8, 1.0},
	}

	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)
	assert.Equal(t, 100, result.NumPaths())

	// A non positive definite matrix is rejected up front.
	bad := baseConfig()
	bad.Correlations = [][]float64{
		{1.0, 2.0},
		{2.0, 1.0},
	}
	_, err = NewForward(bad)
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestForwardWeightSnapshotsSumToOne(t *testing.T) {
	cfg := baseConfig()
	cfg.NumPaths = 5
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	for p := 0; p < result.NumPaths(); p++ {
		for _, snapshot := range result.WeightSeries(p) {
			total := 0.0
			for _, w := range snapshot {
				total += w
			}
			assert.InDelta(t, 1.0, total, 1e-9)
		}
	}
}

func TestForwardSeriesLengths(t *testing.T) {
	cfg := baseConfig()
	cfg.HorizonYears = 2
	cfg.NumPaths = 3
	eng, err := NewForward(cfg)
	require.NoError(t, err)
	result, err := eng.Run()
	require.NoError(t, err)

	assert.Equal(t, 24, result.Periods())
	assert.Len(t, result.ValueSeries(0), 25)
	assert.Len(t, result.MeanSeries(), 25)
	assert.Equal(t, cfg.InitialBalance, result.ValueSeries(0)[0])
}
