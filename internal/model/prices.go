package model

import "time"

// PriceTable is an ordered, time-indexed set of price series, one per asset.
// It is consumed by the backtest engine and never mutated.
type PriceTable struct {
	dates  []time.Time
	series map[string][]float64
}

// NewPriceTable builds a table from a strictly increasing date index and one
// positive price series per asset. Every series must match the index length.
func NewPriceTable(dates []time.Time, series map[string][]float64) (*PriceTable, error) {
	if len(dates) == 0 {
		return nil, NewDataError("dates", "time index is empty")
	}
	for i := 1; i < len(dates); i++ {
		if !dates[i].After(dates[i-1]) {
			return nil, NewDataError("dates", "time index is not strictly increasing at position %d (%s)", i, dates[i].Format("2006-01-02"))
		}
	}
	copied := make(map[string][]float64, len(series))
	for name, prices := range series {
		if len(prices) != len(dates) {
			return nil, NewDataError(name, "series has %d prices but the index has %d dates", len(prices), len(dates))
		}
		for i, p := range prices {
			if p <= 0 {
				return nil, NewDataError(name, "non-positive price %g at position %d", p, i)
			}
		}
		cp := make([]float64, len(prices))
		copy(cp, prices)
		copied[name] = cp
	}
	cd := make([]time.Time, len(dates))
	copy(cd, dates)
	return &PriceTable{dates: cd, series: copied}, nil
}

// Len returns the number of time periods in the table.
func (t *PriceTable) Len() int { return len(t.dates) }

// Dates returns a copy of the time index.
func (t *PriceTable) Dates() []time.Time {
	cp := make([]time.Time, len(t.dates))
	copy(cp, t.dates)
	return cp
}

// Assets returns the asset names present in the table.
func (t *PriceTable) Assets() []string {
	names := make([]string, 0, len(t.series))
	for name := range t.series {
		names = append(names, name)
	}
	return names
}

// Has reports whether the table carries a series for the asset.
func (t *PriceTable) Has(asset string) bool {
	_, ok := t.series[asset]
	return ok
}

// Price returns the asset's price at the given period index.
func (t *PriceTable) Price(asset string, period int) float64 {
	return t.series[asset][period]
}

// EstimatedPeriodsPerYear infers the sampling frequency from the date span.
// It is a diagnostic; the backtest engine takes periods-per-year from config.
func (t *PriceTable) EstimatedPeriodsPerYear() int {
	if len(t.dates) < 2 {
		return 252
	}
	days := t.dates[len(t.dates)-1].Sub(t.dates[0]).Hours() / 24
	if days <= 0 {
		return 252
	}
	years := days / 365.25
	est := int(float64(len(t.dates)-1)/years + 0.5)
	if est < 1 {
		return 1
	}
	return est
}
