package rates

import (
	"math"
	"testing"

	"github.com/ratekit/ratekit/pkg/trajectory"
)

// constantBiasReplica builds a two-row replica with the given final
// time and a constant bias column.
func constantBiasReplica(name string, finalTime, bias float64, transitioned bool) *trajectory.Replica {
	return &trajectory.Replica{
		Name: name,
		Rows: [][]float64{
			{0, bias},
			{finalTime, bias},
		},
		Transitioned: transitioned,
	}
}

// exponentialEnsemble builds an ensemble of 20 zero-bias replicas: 15
// transitioned at the exponential quantiles of rate k, 5 censored at
// the censor time.
func exponentialEnsemble(t *testing.T, k, censor float64) *trajectory.Ensemble {
	t.Helper()
	var replicas []*trajectory.Replica
	for i := 0; i < 15; i++ {
		u := (float64(i) + 0.5) / 15.0
		tt := -math.Log(1-u) / k
		replicas = append(replicas, constantBiasReplica("run", tt, 0, true))
	}
	for i := 0; i < 5; i++ {
		replicas = append(replicas, constantBiasReplica("run", censor, 0, false))
	}
	ens, err := trajectory.NewEnsemble(replicas, trajectory.Schema{Time: 0, Bias: 1}, 1.0)
	if err != nil {
		t.Fatalf("NewEnsemble() error: %v", err)
	}
	return ens
}

// -----------------------------------------------------------------------------
// Results Record Tests
// -----------------------------------------------------------------------------

func TestResults_PreDeclaredFields(t *testing.T) {
	names := FieldNames()
	if len(names) != 30 {
		t.Fatalf("len(FieldNames()) = %d, want 30", len(names))
	}

	r := newResults("test")
	fields := r.Fields()
	if len(fields) != 30 {
		t.Errorf("len(Fields()) = %d, want 30", len(fields))
	}
	for _, name := range names {
		p, known := fields[name]
		if !known {
			t.Errorf("field %q missing from Fields()", name)
		}
		if p != nil {
			t.Errorf("field %q = %g, want nil default", name, *p)
		}
	}

	if _, ok := r.Value("iMetaD MLE k"); ok {
		t.Error("unset field reported as present")
	}
	r.set("iMetaD MLE k", 2.5)
	if v, ok := r.Value("iMetaD MLE k"); !ok || v != 2.5 {
		t.Errorf("Value() = %g, %v after set", v, ok)
	}
}

func TestResults_FieldsReturnsCopy(t *testing.T) {
	r := newResults("test")
	r.set("EATR CDF g", 0.7)
	fields := r.Fields()
	*fields["EATR CDF g"] = 99
	if v, _ := r.Value("EATR CDF g"); v != 0.7 {
		t.Errorf("mutating the Fields() copy leaked into the record: %g", v)
	}
}

// -----------------------------------------------------------------------------
// Options Validation Tests
// -----------------------------------------------------------------------------

func TestRun_OptionValidation(t *testing.T) {
	ens := exponentialEnsemble(t, 1e-3, 2000)
	bad := -1.0

	cases := []struct {
		name string
		opts Options
	}{
		{"unknown analysis", Options{
			Analyses:    map[string]bool{"iMetaD MLE typo": true},
			GammaBounds: [2]float64{0, 1},
		}},
		{"inverted gamma bounds", Options{
			Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
			GammaBounds: [2]float64{1, 0},
		}},
		{"negative enforced rate", Options{
			Analyses:     map[string]bool{AnalysisIMetaDMLE: true},
			GammaBounds:  [2]float64{0, 1},
			EnforcedRate: &bad,
		}},
	}
	for _, tc := range cases {
		if _, err := Run(ens, tc.opts); err == nil {
			t.Errorf("%s: expected a configuration error", tc.name)
		}
	}
}

// -----------------------------------------------------------------------------
// End-To-End Tests
// -----------------------------------------------------------------------------

func TestRun_IMetaDMLEOnly(t *testing.T) {
	ens := exponentialEnsemble(t, 1e-3, 2000)

	res, err := Run(ens, Options{
		Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	k, ok := res.Value("iMetaD MLE k")
	if !ok {
		t.Fatal("iMetaD MLE k not set")
	}
	if math.Abs(k-1e-3)/1e-3 > 0.2 {
		t.Errorf("k = %g, want within 20%% of 1e-3", k)
	}

	for name, p := range res.Fields() {
		if name == "iMetaD MLE k" {
			continue
		}
		if p != nil {
			t.Errorf("field %q = %g, want nil: its analysis never ran", name, *p)
		}
	}
	if res.RunID() == "" {
		t.Error("empty run ID")
	}
}

func TestRun_RateConversionAppliesToRatesOnly(t *testing.T) {
	ens := exponentialEnsemble(t, 1e-3, 2000)

	plain, err := Run(ens, Options{
		Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	scaled, err := Run(ens, Options{
		Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
		RateConv:    60,
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	k1, _ := plain.Value("iMetaD MLE k")
	k2, _ := scaled.Value("iMetaD MLE k")
	if math.Abs(k2-60*k1) > 1e-12 {
		t.Errorf("scaled k = %g, want 60 * %g", k2, k1)
	}
}

func TestRun_BootstrapStdIsSeededAndFinite(t *testing.T) {
	ens := exponentialEnsemble(t, 1e-3, 2000)
	opts := Options{
		Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
		Boots:       true,
		NumBoots:    40,
		Seed:        11,
	}

	res1, err := Run(ens, opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	res2, err := Run(ens, opts)
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	std1, ok := res1.Value("iMetaD MLE std k")
	if !ok {
		t.Fatal("iMetaD MLE std k not set with Boots enabled")
	}
	std2, _ := res2.Value("iMetaD MLE std k")
	if std1 != std2 {
		t.Errorf("same seed gave different std: %g vs %g", std1, std2)
	}
	if std1 <= 0 || math.IsNaN(std1) || math.IsInf(std1, 0) {
		t.Errorf("std = %g, want positive finite", std1)
	}
}

func TestRun_ZeroVarianceBiasDegeneracy(t *testing.T) {
	// Every replica carries the identical constant bias: gamma is
	// unidentifiable, but the KTR MLE must still terminate with a
	// finite gamma inside bounds.
	var replicas []*trajectory.Replica
	for i := 0; i < 10; i++ {
		tt := 100.0 * float64(i+1)
		replicas = append(replicas, constantBiasReplica("run", tt, 2.0, i < 8))
	}
	ens, err := trajectory.NewEnsemble(replicas, trajectory.Schema{Time: 0, Bias: 1}, 1.0)
	if err != nil {
		t.Fatalf("NewEnsemble() error: %v", err)
	}

	res, err := Run(ens, Options{
		Analyses:    map[string]bool{AnalysisKTRMLE: true},
		GammaBounds: [2]float64{0, 1},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}

	g, ok := res.Value("KTR Vmb MLE g")
	if !ok {
		t.Fatal("KTR Vmb MLE g not set")
	}
	if math.IsNaN(g) || g < 0 || g > 1 {
		t.Errorf("gamma = %g, want a finite value in [0, 1]", g)
	}
	k, ok := res.Value("KTR Vmb MLE k")
	if !ok {
		t.Fatal("KTR Vmb MLE k not set")
	}
	if k <= 0 || math.IsNaN(k) || math.IsInf(k, 0) {
		t.Errorf("k = %g, want positive finite", k)
	}
}

func TestRun_ZeroTransitionsAborts(t *testing.T) {
	var replicas []*trajectory.Replica
	for i := 0; i < 4; i++ {
		replicas = append(replicas, constantBiasReplica("run", 1000, 0, false))
	}
	ens, err := trajectory.NewEnsemble(replicas, trajectory.Schema{Time: 0, Bias: 1}, 1.0)
	if err != nil {
		t.Fatalf("NewEnsemble() error: %v", err)
	}

	if _, err := Run(ens, Options{
		Analyses:    map[string]bool{AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
	}); err == nil {
		t.Error("expected a data error with zero transitions")
	}
}
