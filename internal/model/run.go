package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// RunKind distinguishes stored forward simulations from backtests.
type RunKind string

const (
	RunKindSimulation RunKind = "simulation"
	RunKindBacktest   RunKind = "backtest"
)

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// Run is a persisted engine invocation with its result summary.
type Run struct {
	ID           int             `json:"id" db:"id"`
	Kind         RunKind         `json:"kind" db:"kind"`
	Name         string          `json:"name" db:"name"`
	Status       string          `json:"status" db:"status"`
	Config       json.RawMessage `json:"config" db:"config"`
	Summary      *RunSummary     `json:"summary,omitempty" db:"summary"`
	ErrorMessage *string         `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time       `json:"created_at" db:"created_at"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
}

// RunSummary captures the headline metrics of a completed run. The full
// series stay in memory with the result object; the summary is what gets
// stored and listed.
type RunSummary struct {
	TerminalMedian     float64  `json:"terminal_median"`
	TerminalP10        float64  `json:"terminal_p10"`
	TerminalP90        float64  `json:"terminal_p90"`
	ValueAtRisk95      *float64 `json:"value_at_risk_95,omitempty"`
	ConditionalVaR95   *float64 `json:"conditional_var_95,omitempty"`
	MaxDrawdownMean    float64  `json:"max_drawdown_mean"`
	MaxDrawdownWorst   float64  `json:"max_drawdown_worst"`
	TotalReturn        *float64 `json:"total_return,omitempty"`
	AnnualizedReturn   *float64 `json:"annualized_return,omitempty"`
	RealizedVolatility *float64 `json:"realized_volatility,omitempty"`
	SharpeRatio        *float64 `json:"sharpe_ratio,omitempty"`
	TotalContributed   float64  `json:"total_contributed"`
}

// Value implements the driver.Valuer interface for RunSummary
func (s RunSummary) Value() (driver.Value, error) {
	return json.Marshal(s)
}

// Scan implements the sql.Scanner interface for RunSummary
func (s *RunSummary) Scan(value interface{}) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(b, s)
}
