// Package errors provides error code constants for ratekit.
// Error codes are organized by category for consistent handling and lookup.
package errors

// -----------------------------------------------------------------------------
// Configuration Error Codes
// -----------------------------------------------------------------------------
// Use these codes for contradictory options and invalid analysis settings.

const (
	// ErrConfigNotFound indicates the configuration file does not exist.
	ErrConfigNotFound = "CONFIG_NOT_FOUND"

	// ErrConfigParseFailed indicates the configuration file could not be parsed.
	// Usually a YAML syntax error or invalid structure.
	ErrConfigParseFailed = "CONFIG_PARSE_FAILED"

	// ErrConfigInvalid indicates configuration values are invalid.
	// Field values don't meet validation requirements.
	ErrConfigInvalid = "CONFIG_INVALID"

	// ErrConfigRescaleNoAcc indicates time rescaling was requested but no
	// acceleration factors were supplied.
	ErrConfigRescaleNoAcc = "CONFIG_RESCALE_NO_ACC"

	// ErrConfigUnknownAnalysis indicates an analysis name is not recognized.
	ErrConfigUnknownAnalysis = "CONFIG_UNKNOWN_ANALYSIS"

	// ErrConfigBadBounds indicates an interval option has lo > hi.
	ErrConfigBadBounds = "CONFIG_BAD_BOUNDS"

	// ErrConfigMissingColumn indicates a required column index is missing.
	ErrConfigMissingColumn = "CONFIG_MISSING_COLUMN"
)

// -----------------------------------------------------------------------------
// Data Error Codes
// -----------------------------------------------------------------------------
// Use these codes for ragged or degenerate ensembles.

const (
	// ErrDataEmptyEnsemble indicates the ensemble contains no replicas.
	ErrDataEmptyEnsemble = "DATA_EMPTY_ENSEMBLE"

	// ErrDataNoTimeAxis indicates no replica reaches the maximum observed
	// row count, so no common time axis exists.
	ErrDataNoTimeAxis = "DATA_NO_TIME_AXIS"

	// ErrDataZeroTransitions indicates every replica was right-censored.
	// The inverse mean residence time denominator would be empty.
	ErrDataZeroTransitions = "DATA_ZERO_TRANSITIONS"

	// ErrDataBadSeries indicates a replica time series is malformed
	// (empty, non-rectangular, or with a non-increasing time column).
	ErrDataBadSeries = "DATA_BAD_SERIES"
)

// -----------------------------------------------------------------------------
// Numeric Error Codes
// -----------------------------------------------------------------------------
// Use these codes for optimizer, fit, and integration failures.

const (
	// ErrNumericNoConvergence indicates an optimizer failed to converge
	// within its iteration budget.
	ErrNumericNoConvergence = "NUMERIC_NO_CONVERGENCE"

	// ErrNumericInfeasibleBounds indicates fit bounds are infeasible,
	// e.g. k_bounds[0] > k_bounds[1] after an enforced-rate pin.
	ErrNumericInfeasibleBounds = "NUMERIC_INFEASIBLE_BOUNDS"

	// ErrNumericNonFinite indicates an objective or integral evaluated to
	// NaN or Inf.
	ErrNumericNonFinite = "NUMERIC_NON_FINITE"

	// ErrNumericBootstrapFailed indicates a bootstrap resample failed.
	// The whole bootstrap call is aborted; failed resamples are never
	// silently excluded.
	ErrNumericBootstrapFailed = "NUMERIC_BOOTSTRAP_FAILED"
)

// -----------------------------------------------------------------------------
// IO Error Codes
// -----------------------------------------------------------------------------

const (
	// ErrIOReadFailed indicates a trajectory or log file could not be read.
	ErrIOReadFailed = "IO_READ_FAILED"

	// ErrIOParseFailed indicates a delimited numeric table could not be parsed.
	ErrIOParseFailed = "IO_PARSE_FAILED"

	// ErrIOWriteFailed indicates a config or results file could not be written.
	ErrIOWriteFailed = "IO_WRITE_FAILED"
)
