package pricedata

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/yourorg/portfolio-sim/internal/model"
)

var dateLayouts = []string{"2006-01-02", "2006/01/02", time.RFC3339}

// LoadCSV reads a price table from a CSV file with a date column followed by
// one price column per asset.
func LoadCSV(path string) (*model.PriceTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.NewDataError(path, "cannot open price file: %v", err)
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses CSV price data. The first column must hold dates in
// YYYY-MM-DD (or RFC3339) form; every other column is an asset's price
// series named by the header.
func ReadCSV(r io.Reader) (*model.PriceTable, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, model.NewDataError("prices", "cannot read CSV header: %v", err)
	}
	if len(header) < 2 {
		return nil, model.NewDataError("prices", "need a date column and at least one asset column, got %d columns", len(header))
	}
	assets := header[1:]

	var dates []time.Time
	series := make(map[string][]float64, len(assets))
	for _, name := range assets {
		series[name] = nil
	}

	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, model.NewDataError("prices", "row %d: %v", row, err)
		}
		if len(record) != len(header) {
			return nil, model.NewDataError("prices", "row %d has %d fields, want %d", row, len(record), len(header))
		}
		date, err := parseDate(record[0])
		if err != nil {
			return nil, model.NewDataError("prices", "row %d: %v", row, err)
		}
		dates = append(dates, date)
		for i, name := range assets {
			price, err := strconv.ParseFloat(record[i+1], 64)
			if err != nil {
				return nil, model.NewDataError(name, "row %d: invalid price %q", row, record[i+1])
			}
			series[name] = append(series[name], price)
		}
		row++
	}

	return model.NewPriceTable(dates, series)
}

func parseDate(s string) (time.Time, error) {
	var lastErr error
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
