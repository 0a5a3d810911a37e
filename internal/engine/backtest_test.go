package engine

import (
	"math"
	"testing"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"
	"github.com/yourorg/portfolio-sim/internal/strategy"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func floatPtr(v float64) *float64 { return &v }

func dailyDates(n int) []time.Time {
	dates := make([]time.Time, n)
	start := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i)
	}
	return dates
}

func table(t *testing.T, series map[string][]float64) *model.PriceTable {
	t.Helper()
	var n int
	for _, s := range series {
		n = len(s)
		break
	}
	tbl, err := model.NewPriceTable(dailyDates(n), series)
	require.NoError(t, err)
	return tbl
}

func backtestConfig() *model.BacktestConfig {
	return &model.BacktestConfig{
		Assets: []model.AssetSpec{
			{Name: "equity", Volatility: 0.15, Weight: 0.6},
			{Name: "bond", Volatility: 0.02, Weight: 0.4},
		},
		Strategy:       model.StrategySpec{Name: strategy.NameFixedWeight},
		InitialBalance: 1000,
	}
}

func TestBacktestMissingAssetColumn(t *testing.T) {
	cfg := backtestConfig()
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	tbl := table(t, map[string][]float64{"equity": {100, 101, 102}})
	_, err = eng.Run(tbl)
	require.Error(t, err)
	var dataErr *model.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestBacktestTooFewPeriods(t *testing.T) {
	cfg := backtestConfig()
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	tbl := table(t, map[string][]float64{"equity": {100}, "bond": {50}})
	_, err = eng.Run(tbl)
	var dataErr *model.DataError
	assert.ErrorAs(t, err, &dataErr)
}

func TestBacktestSingleAssetSimpleReturns(t *testing.T) {
	cfg := &model.BacktestConfig{
		Assets:         []model.AssetSpec{{Name: "equity", Weight: 1}},
		Strategy:       model.StrategySpec{Name: strategy.NameFixedWeight},
		InitialBalance: 1000,
	}
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	tbl := table(t, map[string][]float64{"equity": {100, 110, 99}})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Periods())
	values := result.ValueSeries()
	assert.InDelta(t, 1000, values[0], 1e-9)
	assert.InDelta(t, 1100, values[1], 1e-9)
	assert.InDelta(t, 990, values[2], 1e-9)

	returns := result.ReturnSeries()
	assert.InDelta(t, 0.10, returns[0], 1e-12)
	assert.InDelta(t, -0.10, returns[1], 1e-12)

	total, err := result.TotalReturn()
	require.NoError(t, err)
	assert.InDelta(t, -0.01, total, 1e-12)
}

func TestBacktestLogReturns(t *testing.T) {
	cfg := &model.BacktestConfig{
		Assets:         []model.AssetSpec{{Name: "equity", Weight: 1}},
		Strategy:       model.StrategySpec{Name: strategy.NameFixedWeight},
		InitialBalance: 1000,
		ReturnMethod:   model.LogReturns,
	}
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	tbl := table(t, map[string][]float64{"equity": {100, 110}})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	expected := 1000 * (1 + math.Log(1.1))
	assert.InDelta(t, expected, result.ValueSeries()[1], 1e-9)
}

func TestBacktestFlatSeries(t *testing.T) {
	cfg := backtestConfig()
	cfg.RiskFreeRate = floatPtr(0.02)
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	flat := make([]float64, 30)
	for i := range flat {
		flat[i] = 100
	}
	tbl := table(t, map[string][]float64{"equity": flat, "bond": flat})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	total, err := result.TotalReturn()
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Zero(t, result.MaxDrawdown())
	assert.Zero(t, result.RealizedVolatility())

	// Zero variance with a non-zero risk-free rate: the excess return is
	// strictly negative, which the ratio signals as an infinite loss per
	// unit of (zero) risk.
	sharpe, err := result.SharpeRatio()
	require.NoError(t, err)
	assert.True(t, math.IsInf(sharpe, -1))
	assert.Negative(t, sharpe)
}

func TestBacktestSharpeRequiresRiskFreeRate(t *testing.T) {
	cfg := backtestConfig()
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	tbl := table(t, map[string][]float64{
		"equity": {100, 102, 101, 104},
		"bond":   {50, 50.1, 50.2, 50.1},
	})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	var cfgErr *model.ConfigurationError
	_, err = result.SharpeRatio()
	assert.ErrorAs(t, err, &cfgErr)
}

func TestBacktestSharpeZeroVarianceZeroExcess(t *testing.T) {
	cfg := backtestConfig()
	cfg.RiskFreeRate = floatPtr(0)
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	flat := []float64{100, 100, 100, 100}
	tbl := table(t, map[string][]float64{"equity": flat, "bond": flat})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	var numErr *model.NumericalError
	_, err = result.SharpeRatio()
	assert.ErrorAs(t, err, &numErr)
}

func TestBacktestSharpePositiveMarket(t *testing.T) {
	cfg := &model.BacktestConfig{
		Assets:         []model.AssetSpec{{Name: "equity", Weight: 1}},
		Strategy:       model.StrategySpec{Name: strategy.NameFixedWeight},
		InitialBalance: 1000,
		RiskFreeRate:   floatPtr(0),
		PeriodsPerYear: 252,
	}
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	prices := []float64{100, 101, 102.5, 102, 104, 105}
	tbl := table(t, map[string][]float64{"equity": prices})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	sharpe, err := result.SharpeRatio()
	require.NoError(t, err)
	assert.Positive(t, sharpe)
	assert.Positive(t, result.RealizedVolatility())
}

func TestBacktestContributionsExcludedFromReturns(t *testing.T) {
	cfg := &model.BacktestConfig{
		Assets:           []model.AssetSpec{{Name: "equity", Weight: 1}},
		Strategy:         model.StrategySpec{Name: strategy.NameFixedWeight},
		InitialBalance:   1000,
		PeriodsPerYear:   12,
		ContributionPlan: model.ContributionPlan{AnnualContribution: 1200, Frequency: model.FrequencyMonthly},
	}
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	flat := []float64{100, 100, 100, 100}
	tbl := table(t, map[string][]float64{"equity": flat})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	// Value grows by contributions only; measured returns stay zero.
	for _, r := range result.ReturnSeries() {
		assert.Zero(t, r)
	}
	assert.InDelta(t, 300, result.TotalContributed(), 1e-9)
	assert.InDelta(t, 1300, result.TerminalValue(), 1e-9)

	total, err := result.TotalReturn()
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestBacktestAdaptiveStrategyReducesTurnover(t *testing.T) {
	threshold := 0.2
	cfg := &model.BacktestConfig{
		Assets: []model.AssetSpec{
			{Name: "equity", Weight: 0.5},
			{Name: "bond", Weight: 0.5},
		},
		Strategy: model.StrategySpec{
			Name:               strategy.NameAdaptiveRebalance,
			RebalanceThreshold: &threshold,
		},
		InitialBalance: 1000,
	}
	eng, err := NewBacktest(cfg)
	require.NoError(t, err)

	// Equity drifts up slowly; deviation never crosses the threshold, so
	// weights drift instead of snapping back.
	tbl := table(t, map[string][]float64{
		"equity": {100, 102, 104, 106},
		"bond":   {100, 100, 100, 100},
	})
	result, err := eng.Run(tbl)
	require.NoError(t, err)

	weights := result.WeightSeries()
	last := weights[len(weights)-1]
	assert.Greater(t, last[0], 0.5)
	assert.Less(t, last[0], 0.5+threshold)
}

func TestBacktestNonMonotonicDatesRejected(t *testing.T) {
	dates := dailyDates(3)
	dates[2] = dates[0]
	_, err := model.NewPriceTable(dates, map[string][]float64{"equity": {1, 2, 3}})
	var dataErr *model.DataError
	assert.ErrorAs(t, err, &dataErr)
}
