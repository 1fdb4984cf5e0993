package numeric

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/integrate/quad"

	"github.com/ratekit/ratekit/pkg/errors"
)

// quadRelTol is the relative convergence tolerance for direct quadrature,
// comparable to standard adaptive quadrature defaults.
const quadRelTol = 1e-8

// quadAbsTol guards convergence checks for integrals near zero.
const quadAbsTol = 1e-12

// QuadratureExp integrates exp(g(x)) over [0, t] by Gauss-Legendre panels
// with node doubling until successive estimates agree to quadRelTol.
// Use this strategy when g is small enough that exp(g) cannot overflow.
func QuadratureExp(g func(float64) float64, t float64) (float64, error) {
	if t <= 0 {
		return 0, nil
	}

	f := func(x float64) float64 { return math.Exp(g(x)) }

	prev := quad.Fixed(f, 0, t, 16, nil, 0)
	for n := 32; n <= 8192; n *= 2 {
		cur := quad.Fixed(f, 0, t, n, nil, 0)
		if math.IsNaN(cur) || math.IsInf(cur, 0) {
			return 0, errors.Numericf(errors.ErrNumericNonFinite,
				"quadrature of exp-integrand over [0, %g] is not finite", t)
		}
		if math.Abs(cur-prev) <= quadRelTol*math.Abs(cur)+quadAbsTol {
			return cur, nil
		}
		prev = cur
	}
	return prev, nil
}

// TrapezoidLogExp integrates exp(g(x)) over [0, t] by a fixed-step
// trapezoidal rule evaluated entirely in log space, so the accumulation
// stays finite even when exp(g) would overflow. The step is dt (the rate
// estimators use 1.0 time unit); a short final panel covers any remainder
// up to t. Returns exp of the log-domain sum, which may still be +Inf if
// the integral itself exceeds the float64 range.
func TrapezoidLogExp(g func(float64) float64, t, dt float64) float64 {
	if t <= 0 {
		return 0
	}
	if dt <= 0 {
		dt = 1.0
	}
	if t <= dt {
		// Single panel [0, t].
		terms := []float64{
			math.Log(t/2) + g(0),
			math.Log(t/2) + g(t),
		}
		return math.Exp(floats.LogSumExp(terms))
	}

	full := int(t / dt)
	last := t - float64(full)*dt
	nodes := full + 1
	if last > 0 {
		nodes++
	}

	// Composite trapezoid in log space: log I = logsumexp(g(x_i) + log w_i).
	terms := make([]float64, 0, nodes)
	for i := 0; i <= full; i++ {
		x := float64(i) * dt
		w := dt
		if i == 0 || (i == full && last == 0) {
			w = dt / 2
		}
		if i == full && last > 0 {
			w = dt/2 + last/2
		}
		terms = append(terms, math.Log(w)+g(x))
	}
	if last > 0 {
		terms = append(terms, math.Log(last/2)+g(t))
	}
	return math.Exp(floats.LogSumExp(terms))
}
