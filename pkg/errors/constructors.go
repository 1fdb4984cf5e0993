// Package errors provides smart error constructors that auto-attach suggestions.
// These constructors combine error creation with suggestion lookup for convenience.
package errors

import "fmt"

// suggestions maps error codes to remediation steps shown by the CLI.
var suggestions = map[string][]string{
	ErrConfigNotFound: {
		"Run 'ratekit -init' to create a default configuration file",
	},
	ErrConfigRescaleNoAcc: {
		"Set columns.acc to the acceleration-factor column index, or",
		"Set rescale to false if your times are already rescaled",
	},
	ErrConfigMissingColumn: {
		"Declare the column index under 'columns' in the configuration file",
	},
	ErrDataNoTimeAxis: {
		"At least one replica must span the maximum observed row count",
		"Check for truncated trajectory files in the run directories",
	},
	ErrDataZeroTransitions: {
		"Extend the simulations or lower the transition-log threshold (plog_len)",
	},
	ErrNumericInfeasibleBounds: {
		"Check gamma_bounds and enforced_rate for contradictory values",
	},
}

// AttachSuggestions looks up registered suggestions for the error code
// and attaches them. Returns the error for chaining.
func AttachSuggestions(err *RateError) *RateError {
	if s, ok := suggestions[err.Code]; ok {
		err.Suggestions = append(err.Suggestions, s...)
	}
	return err
}

// Config creates a configuration error with auto-attached suggestions.
// The error code should be one of the ErrConfig* constants.
func Config(code, message string) *RateError {
	return AttachSuggestions(New(code, CategoryConfig, message))
}

// Configf creates a configuration error with a formatted message.
func Configf(code, format string, args ...interface{}) *RateError {
	return Config(code, fmt.Sprintf(format, args...))
}

// ConfigWrap wraps an error as a configuration error.
func ConfigWrap(cause error, code, message string) *RateError {
	return AttachSuggestions(Wrap(cause, code, CategoryConfig, message))
}

// Data creates a data error with auto-attached suggestions.
// The error code should be one of the ErrData* constants.
func Data(code, message string) *RateError {
	return AttachSuggestions(New(code, CategoryData, message))
}

// Dataf creates a data error with a formatted message.
func Dataf(code, format string, args ...interface{}) *RateError {
	return Data(code, fmt.Sprintf(format, args...))
}

// Numeric creates a numeric error with auto-attached suggestions.
// The error code should be one of the ErrNumeric* constants.
func Numeric(code, message string) *RateError {
	return AttachSuggestions(New(code, CategoryNumeric, message))
}

// Numericf creates a numeric error with a formatted message.
func Numericf(code, format string, args ...interface{}) *RateError {
	return Numeric(code, fmt.Sprintf(format, args...))
}

// NumericWrap wraps an error as a numeric error.
func NumericWrap(cause error, code, message string) *RateError {
	return AttachSuggestions(Wrap(cause, code, CategoryNumeric, message))
}

// IO creates an IO error.
func IO(code, message string) *RateError {
	return AttachSuggestions(New(code, CategoryIO, message))
}

// IOWrap wraps an error as an IO error.
func IOWrap(cause error, code, message string) *RateError {
	return AttachSuggestions(Wrap(cause, code, CategoryIO, message))
}

// Internal creates an internal error for unexpected conditions.
func Internal(message string) *RateError {
	return New("INTERNAL", CategoryInternal, message)
}
