package report

import (
	"fmt"

	"github.com/yourorg/portfolio-sim/internal/engine"

	charts "github.com/vicanso/go-charts/v2"
)

// SimulationChart renders the forward run's quantile fan (p10/p50/p90 value
// over time) as a PNG.
func SimulationChart(result *engine.SimulationResult) ([]byte, error) {
	p10, err := result.QuantileSeries(0.10)
	if err != nil {
		return nil, err
	}
	p50, err := result.QuantileSeries(0.50)
	if err != nil {
		return nil, err
	}
	p90, err := result.QuantileSeries(0.90)
	if err != nil {
		return nil, err
	}

	labels := periodLabels(result.Periods())
	title := fmt.Sprintf("Projected portfolio value (%d paths, %d years)",
		result.NumPaths(), result.Config().HorizonYears)

	return renderLines([][]float64{p10, p50, p90}, []string{"p10", "p50", "p90"}, labels, title)
}

// BacktestChart renders the replayed portfolio value series as a PNG.
func BacktestChart(result *engine.BacktestResult) ([]byte, error) {
	values := result.ValueSeries()
	dates := result.Dates()
	labels := make([]string, len(dates))
	for i, d := range dates {
		labels[i] = d.Format("Jan 02 '06")
	}

	title := "Backtest portfolio value"
	if dd := result.MaxDrawdown(); dd > 0 {
		title = fmt.Sprintf("Backtest portfolio value (MaxDD %.1f%%)", dd*100)
	}

	return renderLines([][]float64{values}, []string{"value"}, labels, title)
}

func renderLines(series [][]float64, names, labels []string, title string) ([]byte, error) {
	yMin, yMax := yRange(series)

	splitNum := 6
	if len(labels) <= 30 {
		splitNum = len(labels) / 3
		if splitNum < 3 {
			splitNum = 3
		}
	}

	p, err := charts.LineRender(
		series,
		charts.TitleTextOptionFunc(title),
		charts.LegendLabelsOptionFunc(names),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			SplitNumber: splitNum,
			BoundaryGap: charts.FalseFlag(),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{
			Min:         &yMin,
			Max:         &yMax,
			DivideCount: 5,
		}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to generate chart bytes: %w", err)
	}
	return buf, nil
}

func periodLabels(periods int) []string {
	labels := make([]string, periods+1)
	for i := range labels {
		if i%engine.MonthsPerYear == 0 {
			labels[i] = fmt.Sprintf("Y%d", i/engine.MonthsPerYear)
		} else {
			labels[i] = ""
		}
	}
	return labels
}

func yRange(series [][]float64) (float64, float64) {
	minVal, maxVal := series[0][0], series[0][0]
	for _, s := range series {
		for _, v := range s {
			if v < minVal {
				minVal = v
			}
			if v > maxVal {
				maxVal = v
			}
		}
	}
	padding := (maxVal - minVal) * 0.05
	if padding == 0 {
		padding = maxVal * 0.05
	}
	return minVal - padding, maxVal + padding
}
