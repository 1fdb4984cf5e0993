package numeric

import (
	"math"

	"gonum.org/v1/gonum/optimize"

	"github.com/ratekit/ratekit/pkg/errors"
)

// invPhi is the inverse golden ratio used by the section search.
var invPhi = (math.Sqrt(5) - 1) / 2

// scalarTol is the absolute x tolerance for bounded scalar minimization,
// comparable to the default of SciPy's bounded Brent search.
const scalarTol = 1e-6

// MinimizeScalar finds a minimizer of f on the closed interval [lo, hi]
// by golden-section search. The interval must be finite with lo <= hi.
// For unimodal f the result is the global minimum on the interval to
// within scalarTol; for multimodal f it is a local minimum.
func MinimizeScalar(f func(float64) float64, lo, hi float64) float64 {
	if hi < lo {
		lo, hi = hi, lo
	}
	if hi-lo < scalarTol {
		return 0.5 * (lo + hi)
	}

	a, b := lo, hi
	c := b - invPhi*(b-a)
	d := a + invPhi*(b-a)
	fc := f(c)
	fd := f(d)

	for b-a > scalarTol {
		if fc < fd {
			b, d, fd = d, c, fc
			c = b - invPhi*(b-a)
			fc = f(c)
		} else {
			a, c, fc = c, d, fd
			d = a + invPhi*(b-a)
			fd = f(d)
		}
	}
	return 0.5 * (a + b)
}

// Bounds is a per-dimension box constraint. An infinite limit leaves
// that side unconstrained.
type Bounds struct {
	Lo float64
	Hi float64
}

// Feasible reports whether the interval is non-empty.
func (b Bounds) Feasible() bool {
	return b.Lo <= b.Hi
}

// Clamp returns x restricted to the interval.
func (b Bounds) Clamp(x float64) float64 {
	return math.Min(math.Max(x, b.Lo), b.Hi)
}

// Unbounded returns a Bounds spanning the whole real line.
func Unbounded() Bounds {
	return Bounds{Lo: math.Inf(-1), Hi: math.Inf(1)}
}

// MinimizeBounded minimizes f over a box using Nelder--Mead. Bounds are
// enforced by evaluating f at the clamped point plus a quadratic penalty
// on the constraint violation, and clamping the final iterate; the
// returned point always lies inside the box. x0 seeds the simplex and is
// clamped into the box first.
//
// Returns a numeric error if the bounds are infeasible or the optimizer
// fails to produce a finite minimum.
func MinimizeBounded(f func(x []float64) float64, x0 []float64, bounds []Bounds) ([]float64, float64, error) {
	for i, b := range bounds {
		if !b.Feasible() {
			return nil, 0, errors.Numericf(errors.ErrNumericInfeasibleBounds,
				"dimension %d has infeasible bounds [%g, %g]", i, b.Lo, b.Hi)
		}
	}

	start := make([]float64, len(x0))
	for i := range x0 {
		start[i] = bounds[i].Clamp(x0[i])
	}

	const penaltyWeight = 1e6
	wrapped := func(x []float64) float64 {
		clamped := make([]float64, len(x))
		penalty := 0.0
		for i := range x {
			clamped[i] = bounds[i].Clamp(x[i])
			d := x[i] - clamped[i]
			penalty += d * d
		}
		return f(clamped) + penaltyWeight*penalty
	}

	problem := optimize.Problem{Func: wrapped}
	settings := &optimize.Settings{
		FuncEvaluations: 100000,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 200,
		},
	}
	result, err := optimize.Minimize(problem, start, settings, &optimize.NelderMead{})
	if err != nil && result == nil {
		return nil, 0, errors.NumericWrap(err, errors.ErrNumericNoConvergence,
			"bounded minimization failed")
	}

	out := make([]float64, len(result.X))
	for i := range result.X {
		out[i] = bounds[i].Clamp(result.X[i])
	}
	val := f(out)
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return nil, 0, errors.Numeric(errors.ErrNumericNonFinite,
			"bounded minimization produced a non-finite objective value")
	}
	return out, val, nil
}
