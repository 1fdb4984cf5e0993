// Package resample implements the uncertainty machinery around the
// point estimators: non-parametric bootstrap over replica indices and
// Kolmogorov-Smirnov consistency brackets that invert a goodness-of-fit
// test into an approximate confidence interval.
package resample

import (
	"math"
	"sort"

	"github.com/ratekit/ratekit/pkg/errors"
)

// KSThreshold is the p-value above which a fit is considered consistent
// with the observed time distribution.
const KSThreshold = 0.05

// KSOneSample computes the two-sided one-sample Kolmogorov-Smirnov
// statistic of sample against the model distribution function cdf, and
// the asymptotic p-value. The sample is not mutated.
func KSOneSample(sample []float64, cdf func(float64) (float64, error)) (stat, p float64, err error) {
	n := len(sample)
	if n == 0 {
		return 0, 0, errors.Data(errors.ErrDataBadSeries,
			"Kolmogorov-Smirnov test needs a non-empty sample")
	}

	xs := append([]float64(nil), sample...)
	sort.Float64s(xs)

	d := 0.0
	for i, x := range xs {
		f, err := cdf(x)
		if err != nil {
			return 0, 0, err
		}
		if math.IsNaN(f) {
			return 0, 0, errors.Numericf(errors.ErrNumericNonFinite,
				"model CDF is NaN at t = %g", x)
		}
		dPlus := float64(i+1)/float64(n) - f
		dMinus := f - float64(i)/float64(n)
		d = math.Max(d, math.Max(dPlus, dMinus))
	}

	en := math.Sqrt(float64(n))
	return d, ksSurvival((en + 0.12 + 0.11/en) * d), nil
}

// KSTwoSample computes the two-sided two-sample Kolmogorov-Smirnov
// statistic between samples x and y, with the asymptotic large-N
// p-value. Neither sample is mutated.
func KSTwoSample(x, y []float64) (stat, p float64, err error) {
	n1, n2 := len(x), len(y)
	if n1 == 0 || n2 == 0 {
		return 0, 0, errors.Data(errors.ErrDataBadSeries,
			"Kolmogorov-Smirnov test needs two non-empty samples")
	}

	xs := append([]float64(nil), x...)
	ys := append([]float64(nil), y...)
	sort.Float64s(xs)
	sort.Float64s(ys)

	all := make([]float64, 0, n1+n2)
	all = append(all, xs...)
	all = append(all, ys...)

	d := 0.0
	for _, v := range all {
		cdf1 := float64(sort.SearchFloat64s(xs, v)) / float64(n1)
		cdf2 := float64(sort.SearchFloat64s(ys, v)) / float64(n2)
		if diff := math.Abs(cdf1 - cdf2); diff > d {
			d = diff
		}
	}

	en := math.Sqrt(float64(n1*n2) / float64(n1+n2))
	return d, ksSurvival((en + 0.12 + 0.11/en) * d), nil
}

// ksSurvival is the large-N survival function of the two-sided
// Kolmogorov-Smirnov statistic, evaluated as the alternating Marsaglia
// series 2 * sum_{r>=1} (-1)^(r-1) exp(-2 r^2 y^2).
func ksSurvival(y float64) float64 {
	if y < 1.1e-16 {
		return 1.0
	}

	x := -2.0 * y * y
	sign := 1.0
	p := 0.0
	for r := 1.0; ; r++ {
		t := math.Exp(x * r * r)
		p += sign * t
		if t == 0.0 || t/p <= 1.1e-16 {
			break
		}
		sign = -sign
	}
	return 2 * p
}
