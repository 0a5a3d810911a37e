package model

import "time"

// SimulationRequest is the body of POST /simulations.
type SimulationRequest struct {
	Name             string `json:"name,omitempty"`
	SimulationConfig `json:"config" binding:"required"`
}

// PriceRows is an inline price table: a date index plus one price series per
// asset.
type PriceRows struct {
	Dates  []string             `json:"dates" binding:"required,min=2"`
	Series map[string][]float64 `json:"series" binding:"required,min=1"`
}

// Table converts the inline rows into a validated PriceTable.
func (p *PriceRows) Table() (*PriceTable, error) {
	dates := make([]time.Time, len(p.Dates))
	for i, s := range p.Dates {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, NewDataError("dates", "position %d: invalid date %q", i, s)
		}
		dates[i] = t
	}
	return NewPriceTable(dates, p.Series)
}

// BacktestRequest is the body of POST /backtests. Prices may be supplied
// inline or as a path to a server-side CSV file; otherwise the service
// fetches series for the configured assets from the market data source.
type BacktestRequest struct {
	Name           string `json:"name,omitempty"`
	BacktestConfig `json:"config" binding:"required"`
	Prices         *PriceRows `json:"prices,omitempty"`
	CSVPath        string     `json:"csv_path,omitempty"`
	Window         string     `json:"window,omitempty"`
}
