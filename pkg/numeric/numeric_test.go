package numeric

import (
	"fmt"
	"math"
	"testing"
)

// -----------------------------------------------------------------------------
// Spline Tests
// -----------------------------------------------------------------------------

func TestNewSpline_InterpolatesKnots(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := []float64{0, 1, 4, 9, 16}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}
	for i := range xs {
		if got := s.At(xs[i]); math.Abs(got-ys[i]) > 1e-9 {
			t.Errorf("At(%g) = %g, want %g", xs[i], got, ys[i])
		}
	}
}

func TestNewSpline_Validation(t *testing.T) {
	tests := []struct {
		name string
		xs   []float64
		ys   []float64
	}{
		{"mismatched lengths", []float64{0, 1}, []float64{0}},
		{"too few points", []float64{0}, []float64{0}},
		{"non-increasing x", []float64{0, 2, 1}, []float64{0, 1, 2}},
		{"duplicate x", []float64{0, 1, 1}, []float64{0, 1, 2}},
		{"NaN y", []float64{0, 1, 2}, []float64{0, math.NaN(), 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewSpline(tt.xs, tt.ys); err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestSpline_ClampsOutOfRange(t *testing.T) {
	xs := []float64{0, 1, 2, 3}
	ys := []float64{5, 6, 7, 8}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}

	if got := s.At(-10); got != 5 {
		t.Errorf("At(-10) = %g, want boundary value 5", got)
	}
	if got := s.At(100); got != 8 {
		t.Errorf("At(100) = %g, want boundary value 8", got)
	}
}

func TestSpline_Max(t *testing.T) {
	// Samples of a concave profile peaking at x = 5.
	var xs, ys []float64
	for x := 0.0; x <= 10.0; x += 0.5 {
		xs = append(xs, x)
		ys = append(ys, -(x-5)*(x-5))
	}

	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}

	x, y := s.Max()
	if math.Abs(x-5) > 1e-3 {
		t.Errorf("Max() position = %g, want 5", x)
	}
	if math.Abs(y) > 1e-3 {
		t.Errorf("Max() value = %g, want 0", y)
	}
}

func TestSpline_Deterministic(t *testing.T) {
	xs := []float64{0, 10, 20, 30}
	ys := []float64{0, 3, 2, 7}

	a, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}
	b, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}
	for x := -5.0; x <= 35.0; x += 0.7 {
		if a.At(x) != b.At(x) {
			t.Fatalf("identical inputs gave different values at x=%g", x)
		}
	}
}

// -----------------------------------------------------------------------------
// Scalar Minimization Tests
// -----------------------------------------------------------------------------

func TestMinimizeScalar_Parabola(t *testing.T) {
	f := func(x float64) float64 { return (x - 2.5) * (x - 2.5) }

	got := MinimizeScalar(f, 0, 10)
	if math.Abs(got-2.5) > 1e-5 {
		t.Errorf("MinimizeScalar() = %g, want 2.5", got)
	}
}

func TestMinimizeScalar_MinimumAtBoundary(t *testing.T) {
	f := func(x float64) float64 { return x }

	got := MinimizeScalar(f, 1, 4)
	if math.Abs(got-1) > 1e-4 {
		t.Errorf("MinimizeScalar() = %g, want boundary 1", got)
	}
}

func TestMinimizeScalar_SwappedInterval(t *testing.T) {
	f := func(x float64) float64 { return (x - 3) * (x - 3) }

	got := MinimizeScalar(f, 10, 0)
	if math.Abs(got-3) > 1e-5 {
		t.Errorf("MinimizeScalar() = %g, want 3", got)
	}
}

// -----------------------------------------------------------------------------
// Bounded Minimization Tests
// -----------------------------------------------------------------------------

func TestMinimizeBounded_Quadratic(t *testing.T) {
	f := func(x []float64) float64 {
		return (x[0]-1)*(x[0]-1) + (x[1]+2)*(x[1]+2)
	}
	bounds := []Bounds{Unbounded(), Unbounded()}

	x, val, err := MinimizeBounded(f, []float64{0, 0}, bounds)
	if err != nil {
		t.Fatalf("MinimizeBounded() error: %v", err)
	}
	if math.Abs(x[0]-1) > 1e-4 || math.Abs(x[1]+2) > 1e-4 {
		t.Errorf("minimizer = %v, want [1, -2]", x)
	}
	if val > 1e-6 {
		t.Errorf("minimum value = %g, want ~0", val)
	}
}

func TestMinimizeBounded_RespectsBox(t *testing.T) {
	// Unconstrained minimum at 5 lies outside the box [0, 2].
	f := func(x []float64) float64 { return (x[0] - 5) * (x[0] - 5) }
	bounds := []Bounds{{Lo: 0, Hi: 2}}

	x, _, err := MinimizeBounded(f, []float64{1}, bounds)
	if err != nil {
		t.Fatalf("MinimizeBounded() error: %v", err)
	}
	if x[0] < 0 || x[0] > 2 {
		t.Errorf("minimizer %g escaped bounds [0, 2]", x[0])
	}
	if math.Abs(x[0]-2) > 1e-3 {
		t.Errorf("minimizer = %g, want boundary 2", x[0])
	}
}

func TestMinimizeBounded_InfeasibleBounds(t *testing.T) {
	f := func(x []float64) float64 { return x[0] * x[0] }
	bounds := []Bounds{{Lo: 2, Hi: 1}}

	if _, _, err := MinimizeBounded(f, []float64{0}, bounds); err == nil {
		t.Error("expected infeasible-bounds error, got nil")
	}
}

// -----------------------------------------------------------------------------
// Integration Tests
// -----------------------------------------------------------------------------

func TestQuadratureExp_KnownIntegral(t *testing.T) {
	// Integral of exp(x) over [0, 1] is e - 1.
	g := func(x float64) float64 { return x }

	got, err := QuadratureExp(g, 1)
	if err != nil {
		t.Fatalf("QuadratureExp() error: %v", err)
	}
	want := math.E - 1
	if math.Abs(got-want) > 1e-8 {
		t.Errorf("QuadratureExp() = %g, want %g", got, want)
	}
}

func TestQuadratureExp_ZeroUpperLimit(t *testing.T) {
	g := func(x float64) float64 { return x }

	got, err := QuadratureExp(g, 0)
	if err != nil {
		t.Fatalf("QuadratureExp() error: %v", err)
	}
	if got != 0 {
		t.Errorf("QuadratureExp(0) = %g, want 0", got)
	}
}

// TestIntegrationStrategiesAgree cross-validates the log-sum-exp trapezoid
// against direct quadrature on a gently varying bias profile with
// magnitude below 10, the regime where both strategies are valid.
func TestIntegrationStrategiesAgree(t *testing.T) {
	var xs, ys []float64
	for x := 0.0; x <= 1000.0; x += 50.0 {
		xs = append(xs, x)
		ys = append(ys, 10*math.Sin(math.Pi*x/2000))
	}
	s, err := NewSpline(xs, ys)
	if err != nil {
		t.Fatalf("NewSpline() error: %v", err)
	}
	g := s.At

	for _, upper := range []float64{50, 250, 777.5, 1000} {
		direct, err := QuadratureExp(g, upper)
		if err != nil {
			t.Fatalf("QuadratureExp(%g) error: %v", upper, err)
		}
		logTrick := TrapezoidLogExp(g, upper, 1.0)

		rel := math.Abs(logTrick-direct) / direct
		if rel > 1e-4 {
			t.Errorf("strategies disagree at t=%g: direct=%g logTrick=%g rel=%g",
				upper, direct, logTrick, rel)
		}
	}
}

// TestTrapezoidLogExp_LargeBias checks the log-domain accumulation stays
// well-defined where direct exp would overflow mid-sum.
func TestTrapezoidLogExp_LargeBias(t *testing.T) {
	// Bias of ~700 makes exp(g) hover at the float64 overflow edge.
	g := func(x float64) float64 { return 690 + x/1000 }

	got := TrapezoidLogExp(g, 100, 1.0)
	if math.IsNaN(got) {
		t.Fatal("log-trick integration produced NaN")
	}
	if got <= 0 {
		t.Errorf("expected a large positive value, got %g", got)
	}
}

func TestTrapezoidLogExp_ZeroUpperLimit(t *testing.T) {
	g := func(x float64) float64 { return x }

	if got := TrapezoidLogExp(g, 0, 1.0); got != 0 {
		t.Errorf("TrapezoidLogExp(t=0) = %g, want 0", got)
	}
}

func TestTrapezoidLogExp_SubStepInterval(t *testing.T) {
	// For t < dt a single panel covers [0, t]; on a constant integrand
	// the result is exact.
	g := func(x float64) float64 { return 0 }

	got := TrapezoidLogExp(g, 0.25, 1.0)
	if math.Abs(got-0.25) > 1e-12 {
		t.Errorf("TrapezoidLogExp(0.25) = %g, want 0.25", got)
	}
}

// -----------------------------------------------------------------------------
// Pool Tests
// -----------------------------------------------------------------------------

func TestPool_MapPreservesOrder(t *testing.T) {
	p := NewPool(4)
	xs := make([]float64, 100)
	for i := range xs {
		xs[i] = float64(i)
	}

	out, err := p.Map(xs, func(x float64) (float64, error) {
		return 2 * x, nil
	})
	if err != nil {
		t.Fatalf("Map() error: %v", err)
	}
	for i := range xs {
		if out[i] != 2*xs[i] {
			t.Fatalf("out[%d] = %g, want %g", i, out[i], 2*xs[i])
		}
	}
}

func TestPool_MapFailFast(t *testing.T) {
	p := NewPool(2)
	xs := []float64{0, 1, 2, 3}

	out, err := p.Map(xs, func(x float64) (float64, error) {
		if x == 2 {
			return 0, fmt.Errorf("task failed at x=%g", x)
		}
		return x, nil
	})
	if err == nil {
		t.Fatal("expected batch failure, got nil error")
	}
	if out != nil {
		t.Error("failed batch must not return partial results")
	}
}

func TestNewPool_DefaultWorkers(t *testing.T) {
	if got := NewPool(0).Workers(); got != DefaultWorkers {
		t.Errorf("NewPool(0).Workers() = %d, want %d", got, DefaultWorkers)
	}
	if got := NewPool(8).Workers(); got != 8 {
		t.Errorf("NewPool(8).Workers() = %d, want 8", got)
	}
}
