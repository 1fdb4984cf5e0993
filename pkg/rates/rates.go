// Package rates drives the full analysis of one replica ensemble: it
// validates the requested option set, derives acceleration factors and
// final times, and runs each requested estimator in dependency order,
// assembling the point estimates, bootstrap spreads, and KS brackets
// into one Results record.
package rates

import (
	"log"
	"math"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/estimate"
	"github.com/ratekit/ratekit/pkg/hazard"
	"github.com/ratekit/ratekit/pkg/numeric"
	"github.com/ratekit/ratekit/pkg/resample"
	"github.com/ratekit/ratekit/pkg/trajectory"
)

// Options configures one orchestrator call.
type Options struct {
	// Analyses maps analysis names (see AnalysisNames) to whether they
	// should run.
	Analyses map[string]bool

	// GammaBounds is the closed gamma search interval for KTR/EATR.
	GammaBounds [2]float64

	// RateConv is a multiplicative unit conversion applied to reported
	// rates only. Zero means 1.
	RateConv float64

	// KSRanges enables the KS consistency bracket searches.
	KSRanges bool

	// Boots enables bootstrap standard errors; NumBoots overrides the
	// resample count (zero means the default) and KeepStats logs the
	// raw per-resample statistics.
	Boots     bool
	NumBoots  int
	KeepStats bool

	// LogTrick selects log-domain trapezoid integration of the
	// cumulative hazard instead of adaptive quadrature.
	LogTrick bool

	// BiasShift is added to every bias value before exponentiation.
	BiasShift float64

	// LambdaKTR and LambdaEATR weigh the fit regularization per model
	// family. Nonzero values switch the CDF fits to unconstrained
	// regularized mode.
	LambdaKTR  float64
	LambdaEATR float64

	// IMDInitGuess seeds the KTR/EATR CDF fits with the iMetaD CDF rate
	// instead of the corresponding MLE result.
	IMDInitGuess bool

	// EnforcedRate pins the CDF-fit base rate, leaving only gamma free.
	EnforcedRate *float64

	// Cores sizes the worker pool for cumulative-hazard evaluation.
	Cores int

	// Seed drives the bootstrap resampling.
	Seed int64

	// Strategy overrides the bounded scalar search of the MLE fits.
	// Nil means golden-section.
	Strategy estimate.SearchStrategy
}

func (o *Options) validate() error {
	for name := range o.Analyses {
		known := false
		for _, n := range AnalysisNames {
			if n == name {
				known = true
				break
			}
		}
		if !known {
			return errors.Configf(errors.ErrConfigUnknownAnalysis,
				"unknown analysis %q", name)
		}
	}
	if o.GammaBounds[1] < o.GammaBounds[0] {
		return errors.Configf(errors.ErrConfigBadBounds,
			"gamma bounds [%g, %g] are infeasible", o.GammaBounds[0], o.GammaBounds[1])
	}
	if o.EnforcedRate != nil && (*o.EnforcedRate <= 0 || math.IsNaN(*o.EnforcedRate)) {
		return errors.Configf(errors.ErrConfigBadBounds,
			"enforced rate must be positive, got %g", *o.EnforcedRate)
	}
	return nil
}

func (o *Options) enabled(name string) bool {
	return o.Analyses[name]
}

func (o *Options) rateConv() float64 {
	if o.RateConv == 0 {
		return 1
	}
	return o.RateConv
}

// runner carries the state threaded through the analysis sections.
type runner struct {
	ens  *trajectory.Ensemble
	opts Options
	pool *numeric.Pool
	res  *Results
	conv float64

	events     []bool
	finalTimes []float64
	rescaled   []float64

	// guess seeds the 2-parameter CDF fits; updated by the MLE fits in
	// dependency order unless IMDInitGuess or an enforced rate applies.
	guess   estimate.FitResult
	kPrior  float64
	kBounds numeric.Bounds

	strategy estimate.SearchStrategy
}

// Run performs every requested analysis on the ensemble and returns the
// assembled results. Configuration and data errors abort the whole
// call; a numerical failure aborts only the method that hit it, leaving
// that method's fields nil while sibling analyses proceed.
func Run(ens *trajectory.Ensemble, opts Options) (*Results, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	r := &runner{
		ens:      ens,
		opts:     opts,
		pool:     numeric.NewPool(opts.Cores),
		res:      newResults(uuid.NewString()),
		conv:     opts.rateConv(),
		events:   ens.Events(),
		kPrior:   1,
		kBounds:  numeric.Unbounded(),
		strategy: opts.Strategy,
	}
	r.finalTimes = ens.FinalTimes()
	r.rescaled = ens.RescaledFinalTimes(opts.BiasShift)

	m, n := ens.TransitionCount(), ens.Size()
	log.Printf("[rates] %d out of %d replicas transitioned", m, n)
	if m == 0 {
		return nil, trajectory.ZeroTransitionsError(n)
	}

	// The inverse mean residence time seeds every downstream fit.
	kMLE, err := estimate.IMetaDRate(r.rescaled, r.events, false, nil)
	if err != nil {
		return nil, err
	}
	r.guess = estimate.FitResult{K0: kMLE, Gamma: 1.0}

	if opts.enabled(AnalysisIMetaDMLE) {
		if err := r.imetadMLE(kMLE); err != nil {
			return nil, err
		}
	}
	if opts.enabled(AnalysisIMetaDCDF) {
		if err := r.imetadCDF(kMLE); err != nil {
			return nil, err
		}
	}

	if opts.EnforcedRate != nil {
		er := *opts.EnforcedRate
		r.kBounds = estimate.EnforcedRateBounds(er)
		r.guess = estimate.FitResult{K0: er, Gamma: 0.5}
	}

	if err := r.ktr(); err != nil {
		return nil, err
	}
	if err := r.eatr(); err != nil {
		return nil, err
	}
	return r.res, nil
}

// skipNumeric logs and swallows numerical failures so sibling analyses
// can proceed; any other error aborts the call.
func skipNumeric(method string, err error) (skipped bool, fatal error) {
	if errors.IsCategory(err, errors.CategoryNumeric) {
		log.Printf("[rates] %s: %v", method, err)
		return true, nil
	}
	return false, err
}

// expCDF adapts the exponential reference distribution for the
// one-sample KS test.
func expCDF(k float64) func(float64) (float64, error) {
	d := distuv.Exponential{Rate: k}
	return func(t float64) (float64, error) {
		return d.CDF(t), nil
	}
}

// modelCDF builds the transition-time CDF of a fitted hazard model.
func modelCDF(model hazard.Model, fit estimate.FitResult) (func(float64) (float64, error), error) {
	pot, err := model.PotentialFor(fit.Gamma)
	if err != nil {
		return nil, err
	}
	return func(t float64) (float64, error) {
		return pot.CDFAt(t, fit.K0)
	}, nil
}

func pick(xs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func pickBool(xs []bool, idx []int) []bool {
	out := make([]bool, len(idx))
	for i, j := range idx {
		out[i] = xs[j]
	}
	return out
}

func selectWhere(xs []float64, keep []bool) []float64 {
	var out []float64
	for i, k := range keep {
		if k {
			out = append(out, xs[i])
		}
	}
	return out
}

func (r *runner) bootOpts(offset int64) resample.BootstrapOptions {
	return resample.BootstrapOptions{
		Resamples: r.opts.NumBoots,
		Seed:      r.opts.Seed + offset,
		KeepStats: r.opts.KeepStats,
	}
}

// -----------------------------------------------------------------------------
// iMetaD
// -----------------------------------------------------------------------------

func (r *runner) imetadMLE(kMLE float64) error {
	transitioned := selectWhere(r.rescaled, r.events)
	stat, p, err := resample.KSOneSample(transitioned, expCDF(kMLE))
	if err != nil {
		if ok, fatal := skipNumeric(AnalysisIMetaDMLE, err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set("iMetaD MLE k", kMLE*r.conv)

	if !r.opts.Boots {
		log.Printf("[rates] iMetaD MLE: k = %g, KS: %g, p = %g", kMLE*r.conv, stat, p)
		return nil
	}
	std, stats, err := resample.Bootstrap(r.ens.Size(), func(idx []int) (float64, error) {
		k, err := estimate.IMetaDRate(pick(r.rescaled, idx), pickBool(r.events, idx), false, nil)
		if err != nil {
			return 0, err
		}
		return math.Log10(k), nil
	}, r.bootOpts(1))
	if err != nil {
		if ok, fatal := skipNumeric(AnalysisIMetaDMLE+" bootstrap", err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set("iMetaD MLE std k", std)
	log.Printf("[rates] iMetaD MLE: logk = %g +/- %g, KS: %g, p = %g",
		math.Log10(kMLE*r.conv), std, stat, p)
	if r.opts.KeepStats {
		log.Printf("[rates] iMetaD MLE bootstrap rates: %v", stats)
	}
	return nil
}

func (r *runner) imetadCDF(kMLE float64) error {
	k, err := estimate.IMetaDFitCDF(r.rescaled, r.events, kMLE)
	if err != nil {
		if ok, fatal := skipNumeric(AnalysisIMetaDCDF, err); !ok {
			return fatal
		}
		return nil
	}
	r.kPrior = k
	if r.opts.IMDInitGuess {
		r.guess.K0 = k
	}

	stat, p, err := resample.KSOneSample(r.rescaled, expCDF(k))
	if err != nil {
		if ok, fatal := skipNumeric(AnalysisIMetaDCDF, err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set("iMetaD CDF k", k*r.conv)

	if r.opts.Boots {
		std, stats, err := resample.Bootstrap(r.ens.Size(), func(idx []int) (float64, error) {
			ki, err := estimate.IMetaDFitCDF(pick(r.rescaled, idx), pickBool(r.events, idx), kMLE)
			if err != nil {
				return 0, err
			}
			return math.Log10(ki), nil
		}, r.bootOpts(2))
		if err != nil {
			if ok, fatal := skipNumeric(AnalysisIMetaDCDF+" bootstrap", err); !ok {
				return fatal
			}
		} else {
			r.res.set("iMetaD CDF std k", std)
			log.Printf("[rates] iMetaD CDF: logk = %g +/- %g, KS: %g, p = %g",
				math.Log10(k*r.conv), std, stat, p)
			if r.opts.KeepStats {
				log.Printf("[rates] iMetaD CDF bootstrap rates: %v", stats)
			}
		}
	} else {
		log.Printf("[rates] iMetaD CDF: k = %g, KS: %g, p = %g", k*r.conv, stat, p)
	}

	if !r.opts.KSRanges {
		return nil
	}
	bracket, err := resample.BracketRate(k, func(ki float64) (float64, error) {
		_, p, err := resample.KSOneSample(r.rescaled, expCDF(ki))
		return p, err
	})
	if err != nil {
		if ok, fatal := skipNumeric(AnalysisIMetaDCDF+" KS bracket", err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set("iMetaD CDF KS klo", bracket.Lo*r.conv)
	r.res.set("iMetaD CDF KS khi", bracket.Hi*r.conv)
	log.Printf("[rates] iMetaD CDF passes: k0: %g to %g",
		bracket.Lo*r.conv, bracket.Hi*r.conv)
	return nil
}

// -----------------------------------------------------------------------------
// KTR
// -----------------------------------------------------------------------------

func (r *runner) ktr() error {
	wantMLE := r.opts.enabled(AnalysisKTRMLE)
	wantCDF := r.opts.enabled(AnalysisKTRCDF)
	if !wantMLE && !wantCDF {
		return nil
	}

	ts, vs, err := r.ens.AverageMaxBias(r.opts.BiasShift)
	if err != nil {
		return err
	}
	model, err := hazard.NewKTR(ts, vs, r.pool, r.opts.LogTrick)
	if err != nil {
		return err
	}

	// The MLE also runs when only the CDF fit was requested: its result
	// seeds the CDF fit.
	mleFit, mleErr := estimate.MLE(model, r.finalTimes, r.events, estimate.MLEOptions{
		GammaBounds: r.opts.GammaBounds,
		Lambda:      r.opts.LambdaKTR,
		Strategy:    r.strategy,
	})
	if mleErr == nil && !r.opts.IMDInitGuess {
		r.guess.Gamma = mleFit.Gamma
		if r.opts.EnforcedRate == nil {
			r.guess.K0 = mleFit.K0
		}
	}

	if wantMLE {
		if mleErr != nil {
			if ok, fatal := skipNumeric(AnalysisKTRMLE, mleErr); !ok {
				return fatal
			}
		} else if err := r.mleSection(AnalysisKTRMLE, model, mleFit, func(idx []int) (hazard.Model, error) {
			sub := r.ens.Subset(idx)
			sts, svs, err := sub.AverageMaxBias(r.opts.BiasShift)
			if err != nil {
				return nil, err
			}
			return hazard.NewKTR(sts, svs, r.pool, r.opts.LogTrick)
		}, r.opts.LambdaKTR, 3); err != nil {
			return err
		}
	}

	if wantCDF {
		if err := r.cdfSection(AnalysisKTRCDF, model, func(idx []int) (hazard.Model, error) {
			sub := r.ens.Subset(idx)
			sts, svs, err := sub.AverageMaxBias(r.opts.BiasShift)
			if err != nil {
				return nil, err
			}
			return hazard.NewKTR(sts, svs, r.pool, r.opts.LogTrick)
		}, r.opts.LambdaKTR, 4); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// EATR
// -----------------------------------------------------------------------------

func (r *runner) eatr() error {
	wantMLE := r.opts.enabled(AnalysisEATRMLE)
	wantCDF := r.opts.enabled(AnalysisEATRCDF)
	if !wantMLE && !wantCDF {
		return nil
	}

	vdata, ts, err := r.ens.InstantBias(r.opts.BiasShift)
	if err != nil {
		return err
	}
	model, err := hazard.NewEATR(vdata, ts, r.ens.Beta, r.pool, r.opts.LogTrick)
	if err != nil {
		return err
	}

	mleFit, mleErr := estimate.MLE(model, r.finalTimes, r.events, estimate.MLEOptions{
		GammaBounds: r.opts.GammaBounds,
		Lambda:      r.opts.LambdaEATR,
		Strategy:    r.strategy,
	})
	if mleErr == nil && !r.opts.IMDInitGuess {
		r.guess.Gamma = mleFit.Gamma
		if r.opts.EnforcedRate == nil {
			r.guess.K0 = mleFit.K0
		}
	}

	newSubModel := func(idx []int) (hazard.Model, error) {
		sub := r.ens.Subset(idx)
		svdata, sts, err := sub.InstantBias(r.opts.BiasShift)
		if err != nil {
			return nil, err
		}
		return hazard.NewEATR(svdata, sts, sub.Beta, r.pool, r.opts.LogTrick)
	}

	if wantMLE {
		if mleErr != nil {
			if ok, fatal := skipNumeric(AnalysisEATRMLE, mleErr); !ok {
				return fatal
			}
		} else if err := r.mleSection(AnalysisEATRMLE, model, mleFit, newSubModel, r.opts.LambdaEATR, 5); err != nil {
			return err
		}
	}

	if wantCDF {
		if err := r.cdfSection(AnalysisEATRCDF, model, newSubModel, r.opts.LambdaEATR, 6); err != nil {
			return err
		}
	}
	return nil
}

// -----------------------------------------------------------------------------
// Shared KTR/EATR sections
// -----------------------------------------------------------------------------

// mleSection records one MLE fit: KS consistency against the observed
// final times, the point estimate fields, and the joint bootstrap.
func (r *runner) mleSection(method string, model hazard.Model, fit estimate.FitResult,
	newSubModel func(idx []int) (hazard.Model, error), lambda float64, seedOffset int64) error {

	cdf, err := modelCDF(model, fit)
	if err != nil {
		if ok, fatal := skipNumeric(method, err); !ok {
			return fatal
		}
		return nil
	}
	stat, p, err := resample.KSOneSample(r.finalTimes, cdf)
	if err != nil {
		if ok, fatal := skipNumeric(method, err); !ok {
			return fatal
		}
		return nil
	}

	r.res.set(method+" k", fit.K0*r.conv)
	r.res.set(method+" g", fit.Gamma)

	if !r.opts.Boots {
		log.Printf("[rates] %s: k = %g, gamma: %g, KS: %g, p = %g",
			method, fit.K0*r.conv, fit.Gamma, stat, p)
		return nil
	}
	stdK, stdG, pairs, err := resample.BootstrapPair(r.ens.Size(), func(idx []int) (float64, float64, error) {
		sub, err := newSubModel(idx)
		if err != nil {
			return 0, 0, err
		}
		f, err := estimate.MLE(sub, pick(r.finalTimes, idx), pickBool(r.events, idx), estimate.MLEOptions{
			GammaBounds: r.opts.GammaBounds,
			Lambda:      lambda,
			Strategy:    r.strategy,
		})
		if err != nil {
			return 0, 0, err
		}
		return math.Log10(f.K0), f.Gamma, nil
	}, r.bootOpts(seedOffset))
	if err != nil {
		if ok, fatal := skipNumeric(method+" bootstrap", err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set(method+" std k", stdK)
	r.res.set(method+" std g", stdG)
	log.Printf("[rates] %s: logk = %g +/- %g, gamma: %g +/- %g, KS: %g, p = %g",
		method, math.Log10(fit.K0*r.conv), stdK, fit.Gamma, stdG, stat, p)
	if r.opts.KeepStats {
		log.Printf("[rates] %s bootstrap rates and gammas: %v", method, pairs)
	}
	return nil
}

// cdfSection records one 2-parameter CDF fit: the fit itself, KS
// consistency, the joint bootstrap, and the gamma bracket search.
func (r *runner) cdfSection(method string, model hazard.Model,
	newSubModel func(idx []int) (hazard.Model, error), lambda float64, seedOffset int64) error {

	base := estimate.CDFFitOptions{
		KBounds:     r.kBounds,
		GammaBounds: numeric.Bounds{Lo: r.opts.GammaBounds[0], Hi: r.opts.GammaBounds[1]},
		Guess:       r.guess,
		Lambda:      lambda,
		KPrior:      r.kPrior,
	}
	fit, err := estimate.CDFFit(model, r.finalTimes, r.events, base)
	if err != nil {
		if ok, fatal := skipNumeric(method, err); !ok {
			return fatal
		}
		return nil
	}

	cdf, err := modelCDF(model, fit)
	if err != nil {
		if ok, fatal := skipNumeric(method, err); !ok {
			return fatal
		}
		return nil
	}
	stat, p, err := resample.KSOneSample(r.finalTimes, cdf)
	if err != nil {
		if ok, fatal := skipNumeric(method, err); !ok {
			return fatal
		}
		return nil
	}

	r.res.set(method+" k", fit.K0*r.conv)
	r.res.set(method+" g", fit.Gamma)

	if r.opts.Boots {
		stdK, stdG, pairs, err := resample.BootstrapPair(r.ens.Size(), func(idx []int) (float64, float64, error) {
			sub, err := newSubModel(idx)
			if err != nil {
				return 0, 0, err
			}
			f, err := estimate.CDFFit(sub, pick(r.finalTimes, idx), pickBool(r.events, idx), base)
			if err != nil {
				return 0, 0, err
			}
			return math.Log10(f.K0), f.Gamma, nil
		}, r.bootOpts(seedOffset))
		if err != nil {
			if ok, fatal := skipNumeric(method+" bootstrap", err); !ok {
				return fatal
			}
		} else {
			r.res.set(method+" std k", stdK)
			r.res.set(method+" std g", stdG)
			log.Printf("[rates] %s: logk = %g +/- %g, gamma: %g +/- %g, KS: %g, p = %g",
				method, math.Log10(fit.K0*r.conv), stdK, fit.Gamma, stdG, stat, p)
			if r.opts.KeepStats {
				log.Printf("[rates] %s bootstrap rates and gammas: %v", method, pairs)
			}
		}
	} else {
		log.Printf("[rates] %s: k = %g, gamma: %g, KS: %g, p = %g",
			method, fit.K0*r.conv, fit.Gamma, stat, p)
	}

	if !r.opts.KSRanges {
		return nil
	}
	bracket, err := resample.BracketGamma(fit, r.opts.GammaBounds,
		func(gi float64) (estimate.FitResult, error) {
			return estimate.CDFFit(model, r.finalTimes, r.events,
				resample.PinnedGammaOptions(base, gi, r.guess.K0))
		},
		func(f estimate.FitResult) (float64, error) {
			cdf, err := modelCDF(model, f)
			if err != nil {
				return 0, err
			}
			_, p, err := resample.KSOneSample(r.finalTimes, cdf)
			return p, err
		})
	if err != nil {
		if ok, fatal := skipNumeric(method+" KS bracket", err); !ok {
			return fatal
		}
		return nil
	}
	r.res.set(method+" KS klo", bracket.KLo*r.conv)
	r.res.set(method+" KS khi", bracket.KHi*r.conv)
	r.res.set(method+" KS glo", bracket.GammaLo)
	r.res.set(method+" KS ghi", bracket.GammaHi)
	log.Printf("[rates] %s passes: gamma: %g to %g, k0: %g to %g",
		method, bracket.GammaLo, bracket.GammaHi, bracket.KLo*r.conv, bracket.KHi*r.conv)
	return nil
}
