package estimate

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/hazard"
)

// FitResult is a point estimate of the hazard parameters.
type FitResult struct {
	// K0 is the base rate.
	K0 float64

	// Gamma is the acceleration exponent.
	Gamma float64
}

// MLEOptions configures the KTR/EATR maximum-likelihood fit.
type MLEOptions struct {
	// GammaBounds is the closed search interval for gamma.
	GammaBounds [2]float64

	// Lambda weighs the quadratic pull of gamma toward 0.5. Zero
	// disables regularization.
	Lambda float64

	// Strategy performs the bounded scalar search. Nil means
	// GoldenSection.
	Strategy SearchStrategy
}

// MLE fits gamma by bounded minimization of the profile negative
// log-likelihood and recovers the base rate analytically as
// k0 = M / sum(H(t_i; gamma*)).
func MLE(model hazard.Model, times []float64, events []bool, opts MLEOptions) (FitResult, error) {
	lo, hi := opts.GammaBounds[0], opts.GammaBounds[1]
	if hi < lo {
		return FitResult{}, errors.Numericf(errors.ErrNumericInfeasibleBounds,
			"gamma bounds [%g, %g] are infeasible", lo, hi)
	}
	strategy := opts.Strategy
	if strategy == nil {
		strategy = GoldenSection{}
	}

	objective := func(gamma float64) (float64, error) {
		pot, err := model.PotentialFor(gamma)
		if err != nil {
			return 0, err
		}
		nll, _, err := hazard.ProfileNegLogLikelihood(pot, times, events)
		if err != nil {
			return 0, err
		}
		return nll + hazard.GammaRegularization(opts.Lambda, gamma), nil
	}

	gamma, err := strategy.Minimize(objective, lo, hi)
	if err != nil {
		return FitResult{}, err
	}

	pot, err := model.PotentialFor(gamma)
	if err != nil {
		return FitResult{}, err
	}
	_, sumH, err := hazard.ProfileNegLogLikelihood(pot, times, events)
	if err != nil {
		return FitResult{}, err
	}

	m := 0
	for _, ev := range events {
		if ev {
			m++
		}
	}
	k0 := float64(m) / sumH
	if math.IsNaN(k0) || math.IsInf(k0, 0) || k0 <= 0 {
		return FitResult{}, errors.Numericf(errors.ErrNumericNonFinite,
			"recovered base rate %g is not a positive finite value", k0)
	}
	return FitResult{K0: k0, Gamma: gamma}, nil
}
