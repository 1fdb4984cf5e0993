package estimate

import (
	"math"
	"sort"

	"github.com/ratekit/ratekit/pkg/errors"
)

// IMetaDRate is the infrequent-metadynamics inverse mean residence time
// estimator: k = M / sum of rescaled times over transitioned replicas.
// When rescale is set the times are multiplied by the supplied
// acceleration factors first; requesting rescaling without factors is a
// configuration error.
func IMetaDRate(times []float64, events []bool, rescale bool, acc []float64) (float64, error) {
	if rescale && acc == nil {
		return 0, errors.Config(errors.ErrConfigRescaleNoAcc,
			"time rescaling requested but no acceleration factors supplied")
	}

	taus := times
	if rescale {
		taus = make([]float64, len(times))
		for i := range times {
			taus[i] = times[i] * acc[i]
		}
	}

	m := 0
	sum := 0.0
	for i, ev := range events {
		if ev {
			m++
			sum += taus[i]
		}
	}
	if m == 0 {
		return 0, errors.Data(errors.ErrDataZeroTransitions,
			"inverse mean residence time is undefined with zero transitions")
	}
	return float64(m) / sum, nil
}

// EmpiricalCDF builds the right-censored empirical CDF of transition
// times: the sorted times of transitioned replicas paired with heights
// i/N, where N counts every replica including censored ones. The M/N
// convention is the standard survival-analysis censoring correction and
// is preserved deliberately.
func EmpiricalCDF(times []float64, events []bool) (xs, ys []float64, err error) {
	n := len(events)
	for i, ev := range events {
		if ev {
			xs = append(xs, times[i])
		}
	}
	if len(xs) == 0 {
		return nil, nil, errors.Data(errors.ErrDataZeroTransitions,
			"empirical CDF is empty: no replica transitioned")
	}
	sort.Float64s(xs)
	ys = make([]float64, len(xs))
	for i := range xs {
		ys[i] = float64(i+1) / float64(n)
	}
	return xs, ys, nil
}

// IMetaDFitCDF fits the exponential CDF 1 - exp(-k*t) to the empirical
// CDF of rescaled transition times by least squares, seeded at kGuess
// (normally the inverse-mean-residence-time estimate). The search runs
// over log10(k) in a +/-4 decade window around the seed.
func IMetaDFitCDF(times []float64, events []bool, kGuess float64) (float64, error) {
	if kGuess <= 0 || math.IsNaN(kGuess) {
		return 0, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"iMetaD CDF fit needs a positive rate seed, got %g", kGuess)
	}
	xs, ys, err := EmpiricalCDF(times, events)
	if err != nil {
		return 0, err
	}

	sse := func(logk float64) (float64, error) {
		k := math.Pow(10, logk)
		s := 0.0
		for i := range xs {
			d := ys[i] - (1 - math.Exp(-k*xs[i]))
			s += d * d
		}
		return s, nil
	}

	center := math.Log10(kGuess)
	logk, err := GoldenSection{}.Minimize(sse, center-4, center+4)
	if err != nil {
		return 0, err
	}
	return math.Pow(10, logk), nil
}
