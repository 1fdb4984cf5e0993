// Package hazard implements the survival-model core shared by the KTR
// and EATR rate estimators: effective-potential splines built from
// ensemble bias aggregations, cumulative and instantaneous hazard, the
// profile log-likelihood, and the CDF least-squares objective.
//
// The hazard model is h(t) = k0 * exp(V_eff(t)), where V_eff is a spline
// of time. KTR scales a gamma-independent maximum-bias spline by gamma
// inside the exponent; EATR bakes gamma into the spline itself and
// leaves the exponent multiplier at 1.
package hazard

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/numeric"
)

// trapStep is the fixed step of the log-sum-exp trapezoid integration,
// in simulation time units.
const trapStep = 1.0

// Model produces a frozen Potential for a gamma candidate. KTR and EATR
// both satisfy it, which lets the estimators treat the two variants
// uniformly even though only EATR rebuilds its spline per gamma.
type Model interface {
	PotentialFor(gamma float64) (*Potential, error)
}

// Potential is a frozen effective potential for one gamma candidate:
// hazard = k0 * exp(mult * V(t)). It evaluates cumulative hazard with
// either direct quadrature or the log-sum-exp trapezoid, selected at
// construction, and fans per-replica evaluations out over a worker pool.
type Potential struct {
	spline   *numeric.Spline
	mult     float64
	logTrick bool
	pool     *numeric.Pool
}

// Spline returns the underlying effective-potential spline.
func (p *Potential) Spline() *numeric.Spline {
	return p.spline
}

// LogHazard returns the log of the bias-dependent hazard factor at t,
// i.e. mult * V(t).
func (p *Potential) LogHazard(t float64) float64 {
	return p.mult * p.spline.At(t)
}

// CumulativeHazard integrates exp(mult * V(x)) over [0, t].
func (p *Potential) CumulativeHazard(t float64) (float64, error) {
	g := func(x float64) float64 { return p.mult * p.spline.At(x) }
	if p.logTrick {
		return numeric.TrapezoidLogExp(g, t, trapStep), nil
	}
	return numeric.QuadratureExp(g, t)
}

// CumulativeHazards evaluates the cumulative hazard at every time in ts
// concurrently. Results align index-for-index with ts; any failure fails
// the whole batch.
func (p *Potential) CumulativeHazards(ts []float64) ([]float64, error) {
	return p.pool.Map(ts, p.CumulativeHazard)
}

// CDFAt evaluates the survival-model CDF 1 - exp(-k0 * H(t)).
func (p *Potential) CDFAt(t, k0 float64) (float64, error) {
	h, err := p.CumulativeHazard(t)
	if err != nil {
		return 0, err
	}
	return 1 - math.Exp(-k0*h), nil
}

// CDF evaluates the model CDF at every time in ts.
func (p *Potential) CDF(ts []float64, k0 float64) ([]float64, error) {
	hs, err := p.CumulativeHazards(ts)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(hs))
	for i, h := range hs {
		out[i] = 1 - math.Exp(-k0*h)
	}
	return out, nil
}

// ProfileNegLogLikelihood evaluates the negative profile log-likelihood
// of the potential against per-replica final times and transition flags,
// with the base rate profiled out analytically: mean_t = sum(H)/M and
// k0* = 1/mean_t. It also returns sum(H) so callers can recover k0.
//
// The likelihood is
//
//	logL = -M*log(mean_t) + sum_{transitioned} log h(t_i) - sum(H)/mean_t
//
// where h is the bias-dependent hazard factor.
func ProfileNegLogLikelihood(p *Potential, times []float64, events []bool) (nll, sumH float64, err error) {
	m := 0
	for _, ev := range events {
		if ev {
			m++
		}
	}
	if m == 0 {
		return 0, 0, errors.Data(errors.ErrDataZeroTransitions,
			"likelihood is undefined with zero transitions")
	}

	hs, err := p.CumulativeHazards(times)
	if err != nil {
		return 0, 0, err
	}
	for _, h := range hs {
		sumH += h
	}

	meanT := sumH / float64(m)
	logHaz := 0.0
	for i, ev := range events {
		if ev {
			logHaz += p.LogHazard(times[i])
		}
	}

	logL := -float64(m)*math.Log(meanT) + logHaz - sumH/meanT
	nll = -logL
	if math.IsNaN(nll) {
		return 0, 0, errors.Numeric(errors.ErrNumericNonFinite,
			"profile log-likelihood evaluated to NaN")
	}
	return nll, sumH, nil
}

// GammaRegularization is the quadratic pull of gamma toward the
// no-acceleration prior 0.5, weighted by lambda.
func GammaRegularization(lambda, gamma float64) float64 {
	d := 0.5 - gamma
	return lambda * d * d
}

// LeastSquaresCost is the CDF-fit objective: the sum of squared
// residuals between the empirical CDF samples (ts, ecdf) and the model
// CDF at (k0, gamma), plus the quadratic gamma regularization and an
// optional pull of k0 toward 10x a prior rate estimate (kPrior).
func LeastSquaresCost(p *Potential, k0, gamma float64, ts, ecdf []float64, lambda, kPrior float64) (float64, error) {
	f, err := p.CDF(ts, k0)
	if err != nil {
		return 0, err
	}
	sse := 0.0
	for i := range f {
		d := ecdf[i] - f[i]
		sse += d * d
	}
	kdiff := 10*kPrior - k0
	gdiff := 0.5 - gamma
	return sse + lambda*(kdiff*kdiff+gdiff*gdiff), nil
}
