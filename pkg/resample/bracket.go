package resample

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/estimate"
)

// rateStep is the multiplicative step of the one-parameter rate
// bracket: each scan step scales k by 10^(+/-0.02).
const rateStep = 0.02

// gammaStep is the additive step of the two-parameter gamma bracket.
const gammaStep = 0.02

// maxRateSteps caps each direction of the rate scan at 10 decades.
const maxRateSteps = 500

// RateBracket is the k-interval consistent with the data at the KS
// threshold, plus the full monotone sequence of tried values.
type RateBracket struct {
	Lo, Hi float64
	Tried  []float64
}

// GammaBracket is the (k, gamma) region consistent with the data at the
// KS threshold. The k and gamma limits pair up inversely: the low-gamma
// refit carries the high k, and vice versa.
type GammaBracket struct {
	KLo, KHi     float64
	GammaLo      float64
	GammaHi      float64
	TriedGamma   []float64
	FellBackLow  bool
	FellBackHigh bool
}

// BracketRate scans k away from the point estimate in multiplicative
// 10^(+/-0.02) steps, in each direction for as long as pvalue stays
// above KSThreshold, and reports the last passing value per side. A
// side where even the first step fails falls back to the point
// estimate itself.
func BracketRate(k float64, pvalue func(k float64) (float64, error)) (RateBracket, error) {
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		return RateBracket{}, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"rate bracket needs a positive finite point estimate, got %g", k)
	}

	b := RateBracket{Lo: k, Hi: k}
	for _, dir := range []float64{-1, 1} {
		step := math.Pow(10, dir*rateStep)
		ki := k
		good := math.NaN()
		for n := 0; ; n++ {
			if n == maxRateSteps {
				return RateBracket{}, errors.Numeric(errors.ErrNumericNoConvergence,
					"rate bracket scan did not cross the KS threshold within 10 decades")
			}
			ki *= step
			b.Tried = append(b.Tried, ki)
			p, err := pvalue(ki)
			if err != nil {
				return RateBracket{}, err
			}
			if p <= KSThreshold {
				break
			}
			good = ki
		}
		if !math.IsNaN(good) {
			if dir < 0 {
				b.Lo = good
			} else {
				b.Hi = good
			}
		}
	}
	return b, nil
}

// BracketGamma scans gamma away from the point estimate in additive
// 0.02 steps, never leaving [bounds[0], bounds[1]]. Every step refits k
// with gamma pinned and tests the refit with pvalue; a side reports the
// last passing refit, or falls back to the point estimate when even the
// first step fails. Scanning gamma down yields (KHi, GammaLo); scanning
// up yields (KLo, GammaHi).
func BracketGamma(point estimate.FitResult, bounds [2]float64,
	refit func(gamma float64) (estimate.FitResult, error),
	pvalue func(fit estimate.FitResult) (float64, error)) (GammaBracket, error) {

	if bounds[1] < bounds[0] {
		return GammaBracket{}, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"gamma bounds [%g, %g] are infeasible", bounds[0], bounds[1])
	}

	b := GammaBracket{
		KLo: point.K0, KHi: point.K0,
		GammaLo: point.Gamma, GammaHi: point.Gamma,
	}

	// Downward scan: lower gamma, higher compensating k.
	var good *estimate.FitResult
	for gi := point.Gamma - gammaStep; gi > bounds[0]-1e-12; gi -= gammaStep {
		b.TriedGamma = append(b.TriedGamma, gi)
		fit, err := refit(gi)
		if err != nil {
			return GammaBracket{}, err
		}
		p, err := pvalue(fit)
		if err != nil {
			return GammaBracket{}, err
		}
		if p <= KSThreshold {
			break
		}
		f := fit
		good = &f
	}
	if good != nil {
		b.KHi = good.K0
		b.GammaLo = good.Gamma
	} else {
		b.FellBackLow = true
	}

	// Upward scan.
	good = nil
	for gi := point.Gamma + gammaStep; gi < bounds[1]+1e-12; gi += gammaStep {
		b.TriedGamma = append(b.TriedGamma, gi)
		fit, err := refit(gi)
		if err != nil {
			return GammaBracket{}, err
		}
		p, err := pvalue(fit)
		if err != nil {
			return GammaBracket{}, err
		}
		if p <= KSThreshold {
			break
		}
		f := fit
		good = &f
	}
	if good != nil {
		b.KLo = good.K0
		b.GammaHi = good.Gamma
	} else {
		b.FellBackHigh = true
	}

	return b, nil
}

// PinnedGammaOptions builds the CDF-fit options for one bracket step:
// gamma is pinned to a degenerately thin interval ending at gi and k is
// re-seeded at kSeed under the caller's k bounds.
func PinnedGammaOptions(base estimate.CDFFitOptions, gi, kSeed float64) estimate.CDFFitOptions {
	opts := base
	opts.GammaBounds.Lo = gi - 1e-11
	opts.GammaBounds.Hi = gi
	opts.Guess = estimate.FitResult{K0: kSeed, Gamma: gi}
	return opts
}
