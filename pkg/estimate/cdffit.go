package estimate

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/hazard"
	"github.com/ratekit/ratekit/pkg/numeric"
)

// CDFFitOptions configures the 2-parameter (k0, gamma) CDF fit.
type CDFFitOptions struct {
	// KBounds constrains the base rate. An enforced rate pins it with
	// the degenerate interval returned by EnforcedRateBounds.
	KBounds numeric.Bounds

	// GammaBounds constrains the acceleration exponent.
	GammaBounds numeric.Bounds

	// Guess seeds the fit with (k0, gamma).
	Guess FitResult

	// Lambda weighs the regularization terms. When nonzero the fit
	// switches to unconstrained minimization of the regularized cost:
	// bounded and regularized modes are mutually exclusive, since
	// box-constrained curve fitting does not accept a custom objective.
	Lambda float64

	// KPrior is the prior rate estimate (normally the iMetaD CDF rate)
	// pulled on by the regularized cost through the 10*KPrior term.
	KPrior float64
}

// EnforcedRateBounds pins the base rate to a caller-supplied value with
// a degenerately tight interval, so the fit adjusts only gamma.
func EnforcedRateBounds(rate float64) numeric.Bounds {
	return numeric.Bounds{Lo: rate, Hi: rate * 1.0001}
}

// CDFFit fits (k0, gamma) to the right-censored empirical CDF of
// transition times by least squares. With Lambda == 0 the fit is
// box-bounded; otherwise it minimizes the regularized cost without
// bounds. For EATR models the effective-potential spline is rebuilt for
// every gamma candidate the optimizer visits.
func CDFFit(model hazard.Model, times []float64, events []bool, opts CDFFitOptions) (FitResult, error) {
	if !opts.KBounds.Feasible() {
		return FitResult{}, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"k bounds [%g, %g] are infeasible", opts.KBounds.Lo, opts.KBounds.Hi)
	}
	if !opts.GammaBounds.Feasible() {
		return FitResult{}, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"gamma bounds [%g, %g] are infeasible", opts.GammaBounds.Lo, opts.GammaBounds.Hi)
	}

	xs, ys, err := EmpiricalCDF(times, events)
	if err != nil {
		return FitResult{}, err
	}

	kPrior := opts.KPrior
	if kPrior == 0 {
		kPrior = 1
	}

	var evalErr error
	cost := func(p []float64) float64 {
		pot, err := model.PotentialFor(p[1])
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		c, err := hazard.LeastSquaresCost(pot, p[0], p[1], xs, ys, opts.Lambda, kPrior)
		if err != nil {
			if evalErr == nil {
				evalErr = err
			}
			return math.Inf(1)
		}
		return c
	}

	bounds := []numeric.Bounds{opts.KBounds, opts.GammaBounds}
	if opts.Lambda != 0 {
		// Regularized mode ignores bounds, including enforced rates.
		bounds = []numeric.Bounds{numeric.Unbounded(), numeric.Unbounded()}
	}

	x0 := []float64{opts.Guess.K0, opts.Guess.Gamma}
	x, val, err := numeric.MinimizeBounded(cost, x0, bounds)
	if err != nil {
		return FitResult{}, err
	}
	if math.IsInf(val, 1) {
		if evalErr != nil {
			return FitResult{}, evalErr
		}
		return FitResult{}, errors.Numeric(errors.ErrNumericNonFinite,
			"CDF fit objective is infinite at the located minimum")
	}
	return FitResult{K0: x[0], Gamma: x[1]}, nil
}
