package resample

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"github.com/ratekit/ratekit/pkg/errors"
)

// DefaultResamples is the bootstrap resample count used when the
// caller does not override it.
const DefaultResamples = 100

// BootstrapOptions configures a bootstrap run.
type BootstrapOptions struct {
	// Resamples is the number of with-replacement index resamples.
	// Zero means DefaultResamples.
	Resamples int

	// Seed seeds the resampling RNG; runs with the same seed and
	// sample size are exactly reproducible.
	Seed int64

	// KeepStats retains the raw per-resample statistics for
	// diagnostics in addition to the standard error.
	KeepStats bool
}

func (o BootstrapOptions) resamples() int {
	if o.Resamples <= 0 {
		return DefaultResamples
	}
	return o.Resamples
}

// Bootstrap estimates the standard error of a scalar statistic by
// resampling replica indices [0, n) with replacement and re-running the
// statistic on each resample. The reported spread is the population
// standard deviation over resamples. A failure on any resample fails
// the whole bootstrap; resamples are never silently dropped.
func Bootstrap(n int, statFn func(idx []int) (float64, error), opts BootstrapOptions) (std float64, stats []float64, err error) {
	if n <= 0 {
		return 0, nil, errors.Data(errors.ErrDataEmptyEnsemble,
			"bootstrap needs at least one replica")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	resamples := opts.resamples()
	vals := make([]float64, resamples)
	idx := make([]int, n)
	for i := 0; i < resamples; i++ {
		for j := range idx {
			idx[j] = rng.Intn(n)
		}
		v, err := statFn(idx)
		if err != nil {
			return 0, nil, errors.NumericWrap(err, errors.ErrNumericBootstrapFailed,
				fmt.Sprintf("bootstrap resample %d failed", i))
		}
		if math.IsNaN(v) {
			return 0, nil, errors.Numericf(errors.ErrNumericBootstrapFailed,
				"bootstrap resample %d produced NaN", i)
		}
		vals[i] = v
	}

	std = stat.PopStdDev(vals, nil)
	if opts.KeepStats {
		stats = vals
	}
	return std, stats, nil
}

// BootstrapPair is Bootstrap for estimators with two correlated outputs
// (e.g. log10 k and gamma): both are computed jointly on every resample
// so their correlation survives into the reported spreads.
func BootstrapPair(n int, statFn func(idx []int) (a, b float64, err error), opts BootstrapOptions) (stdA, stdB float64, pairs [][2]float64, err error) {
	if n <= 0 {
		return 0, 0, nil, errors.Data(errors.ErrDataEmptyEnsemble,
			"bootstrap needs at least one replica")
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	resamples := opts.resamples()
	as := make([]float64, resamples)
	bs := make([]float64, resamples)
	idx := make([]int, n)
	for i := 0; i < resamples; i++ {
		for j := range idx {
			idx[j] = rng.Intn(n)
		}
		a, b, err := statFn(idx)
		if err != nil {
			return 0, 0, nil, errors.NumericWrap(err, errors.ErrNumericBootstrapFailed,
				fmt.Sprintf("bootstrap resample %d failed", i))
		}
		if math.IsNaN(a) || math.IsNaN(b) {
			return 0, 0, nil, errors.Numericf(errors.ErrNumericBootstrapFailed,
				"bootstrap resample %d produced NaN", i)
		}
		as[i] = a
		bs[i] = b
	}

	stdA = stat.PopStdDev(as, nil)
	stdB = stat.PopStdDev(bs, nil)
	if opts.KeepStats {
		pairs = make([][2]float64, resamples)
		for i := range pairs {
			pairs[i] = [2]float64{as[i], bs[i]}
		}
	}
	return stdA, stdB, pairs, nil
}
