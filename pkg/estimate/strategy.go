// Package estimate implements the parameter estimators: the iMetaD
// inverse-mean-residence-time and CDF-fit rates, and the KTR/EATR
// maximum-likelihood and CDF least-squares fits of (k0, gamma).
package estimate

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/numeric"
)

// SearchStrategy locates the minimum of a scalar objective on a bounded
// interval. The default is deterministic golden-section search; a
// gradient-free global probe search is available for likelihood surfaces
// suspected to be multimodal, and external implementations (e.g. a
// Bayesian expected-improvement search) can be plugged in through this
// interface.
type SearchStrategy interface {
	Minimize(f func(float64) (float64, error), lo, hi float64) (float64, error)
}

// evalGuard adapts an error-returning objective for the numeric
// minimizers: the first failure is recorded and every later evaluation
// returns +Inf so the search drifts away from the failing region.
type evalGuard struct {
	f   func(float64) (float64, error)
	err error
}

func (g *evalGuard) eval(x float64) float64 {
	v, err := g.f(x)
	if err != nil {
		if g.err == nil {
			g.err = err
		}
		return math.Inf(1)
	}
	return v
}

// GoldenSection is the default bounded scalar search.
type GoldenSection struct{}

// Minimize implements SearchStrategy.
func (GoldenSection) Minimize(f func(float64) (float64, error), lo, hi float64) (float64, error) {
	if hi < lo {
		return 0, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"search interval [%g, %g] is infeasible", lo, hi)
	}
	g := &evalGuard{f: f}
	x := numeric.MinimizeScalar(g.eval, lo, hi)
	v, err := f(x)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Numeric(errors.ErrNumericNonFinite,
			"objective is not finite at the located minimum")
	}
	return x, nil
}

// ProbeSearch is a gradient-free global alternative for multimodal
// objectives: it probes the interval on a uniform grid, then refines the
// best bracket with golden-section search.
type ProbeSearch struct {
	// Probes is the number of uniform grid evaluations. Zero means 25.
	Probes int
}

// Minimize implements SearchStrategy.
func (s ProbeSearch) Minimize(f func(float64) (float64, error), lo, hi float64) (float64, error) {
	if hi < lo {
		return 0, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"search interval [%g, %g] is infeasible", lo, hi)
	}
	probes := s.Probes
	if probes <= 0 {
		probes = 25
	}

	g := &evalGuard{f: f}
	step := (hi - lo) / float64(probes)
	best := lo
	bestVal := g.eval(lo)
	for i := 1; i <= probes; i++ {
		x := lo + float64(i)*step
		if v := g.eval(x); v < bestVal {
			best, bestVal = x, v
		}
	}
	if math.IsInf(bestVal, 1) {
		if g.err != nil {
			return 0, g.err
		}
		return 0, errors.Numeric(errors.ErrNumericNonFinite,
			"objective is infinite over the whole search interval")
	}

	x := numeric.MinimizeScalar(g.eval, math.Max(lo, best-step), math.Min(hi, best+step))
	if v := g.eval(x); v > bestVal {
		x = best
	}
	return x, nil
}
