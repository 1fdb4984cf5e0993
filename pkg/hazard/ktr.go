package hazard

import (
	"github.com/ratekit/ratekit/pkg/numeric"
)

// KTR is the Kramers time-dependent rate model. Its effective potential
// is a spline of the ensemble-averaged running-maximum bias, built once;
// the acceleration exponent gamma scales the spline inside the hazard
// exponent, so the spline itself is gamma-independent.
type KTR struct {
	spline   *numeric.Spline
	pool     *numeric.Pool
	logTrick bool
}

// NewKTR builds the maximum-bias spline from the aggregated (ts, vs)
// series produced by trajectory.AverageMaxBias.
func NewKTR(ts, vs []float64, pool *numeric.Pool, logTrick bool) (*KTR, error) {
	spline, err := numeric.NewSpline(ts, vs)
	if err != nil {
		return nil, err
	}
	return &KTR{spline: spline, pool: pool, logTrick: logTrick}, nil
}

// PotentialFor freezes the model at a gamma candidate: the hazard factor
// becomes exp(gamma * Vmb(t)).
func (m *KTR) PotentialFor(gamma float64) (*Potential, error) {
	return &Potential{
		spline:   m.spline,
		mult:     gamma,
		logTrick: m.logTrick,
		pool:     m.pool,
	}, nil
}

// Spline returns the gamma-independent maximum-bias spline.
func (m *KTR) Spline() *numeric.Spline {
	return m.spline
}
