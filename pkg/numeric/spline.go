// Package numeric provides the numerical primitives behind the rate
// estimators: spline interpolation of bias-field time series, cumulative
// hazard integration (direct quadrature and the log-sum-exp variant),
// bounded scalar minimization, and an ordered fail-fast worker pool.
package numeric

import (
	"math"

	"gonum.org/v1/gonum/interp"

	"github.com/ratekit/ratekit/pkg/errors"
)

// Spline is an exact-interpolation cubic spline of (x, y) samples with
// constant extension outside the sampled range: queries beyond the data
// clamp to the boundary rather than extrapolating. Construction requires
// strictly increasing, unique x values.
//
// A Spline is immutable after construction and safe for concurrent reads.
type Spline struct {
	cubic interp.NaturalCubic
	xmin  float64
	xmax  float64
	ymin  float64 // value at xmin
	ymax  float64 // value at xmax
}

// NewSpline builds a natural cubic spline through the given samples.
// xs must be strictly increasing and the slices equal length with at
// least two points.
func NewSpline(xs, ys []float64) (*Spline, error) {
	if len(xs) != len(ys) {
		return nil, errors.Dataf(errors.ErrDataBadSeries,
			"spline inputs have mismatched lengths %d and %d", len(xs), len(ys))
	}
	if len(xs) < 2 {
		return nil, errors.Dataf(errors.ErrDataBadSeries,
			"spline needs at least 2 samples, got %d", len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, errors.Dataf(errors.ErrDataBadSeries,
				"spline x values must be strictly increasing (x[%d]=%g, x[%d]=%g)",
				i-1, xs[i-1], i, xs[i])
		}
	}
	for i := range ys {
		if math.IsNaN(ys[i]) || math.IsInf(ys[i], 0) {
			return nil, errors.Numericf(errors.ErrNumericNonFinite,
				"spline y value at index %d is not finite", i)
		}
	}

	s := &Spline{
		xmin: xs[0],
		xmax: xs[len(xs)-1],
	}
	if err := s.cubic.Fit(xs, ys); err != nil {
		return nil, errors.NumericWrap(err, errors.ErrNumericNonFinite,
			"cubic spline fit failed")
	}
	s.ymin = s.cubic.Predict(s.xmin)
	s.ymax = s.cubic.Predict(s.xmax)
	return s, nil
}

// At evaluates the spline at x. Out-of-range queries never fail: x is
// clamped to the sampled domain, giving constant extension.
func (s *Spline) At(x float64) float64 {
	switch {
	case x <= s.xmin:
		return s.ymin
	case x >= s.xmax:
		return s.ymax
	default:
		return s.cubic.Predict(x)
	}
}

// Domain returns the sampled [min, max] range of the spline.
func (s *Spline) Domain() (min, max float64) {
	return s.xmin, s.xmax
}

// Max locates the maximum of the spline over its sampled domain and
// returns the position and value. A coarse grid scan brackets the best
// candidate before bounded scalar search on the negated spline refines
// it, so multimodal bias profiles don't trap the search in a local peak.
// This is the anchor for log-sum-exp hazard integration.
func (s *Spline) Max() (x, y float64) {
	const gridPoints = 256

	neg := func(t float64) float64 { return -s.At(t) }

	best := s.xmin
	bestVal := s.At(s.xmin)
	step := (s.xmax - s.xmin) / gridPoints
	if step <= 0 {
		return s.xmin, bestVal
	}
	for i := 1; i <= gridPoints; i++ {
		t := s.xmin + float64(i)*step
		if v := s.At(t); v > bestVal {
			best, bestVal = t, v
		}
	}

	lo := math.Max(s.xmin, best-step)
	hi := math.Min(s.xmax, best+step)
	x = MinimizeScalar(neg, lo, hi)
	if s.At(x) < bestVal {
		x = best
	}
	return x, s.At(x)
}
