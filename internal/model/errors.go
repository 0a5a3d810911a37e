package model

import "fmt"

// ConfigurationError reports an invalid or inconsistent configuration value.
// It is always raised before any simulation work begins.
type ConfigurationError struct {
	Field   string
	Message string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a ConfigurationError for the given field.
func NewConfigurationError(field, format string, args ...interface{}) error {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// DataError reports backtest input data that is inconsistent with the
// configuration (missing asset column, too few periods, unordered dates).
type DataError struct {
	Subject string
	Message string
}

func (e *DataError) Error() string {
	return fmt.Sprintf("invalid data: %s: %s", e.Subject, e.Message)
}

// NewDataError creates a DataError for the given subject.
func NewDataError(subject, format string, args ...interface{}) error {
	return &DataError{Subject: subject, Message: fmt.Sprintf(format, args...)}
}

// NumericalError reports a degenerate statistical computation, such as a
// zero-variance return series in a Sharpe denominator. It is signalled
// explicitly so callers can tell it apart from a legitimate zero.
type NumericalError struct {
	Op      string
	Message string
}

func (e *NumericalError) Error() string {
	return fmt.Sprintf("numerical error in %s: %s", e.Op, e.Message)
}

// NewNumericalError creates a NumericalError for the given operation.
func NewNumericalError(op, format string, args ...interface{}) error {
	return &NumericalError{Op: op, Message: fmt.Sprintf(format, args...)}
}
