package hazard

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
	"github.com/ratekit/ratekit/pkg/numeric"
)

// EATR is the ensemble-averaged time-dependent rate model. Its effective
// potential is the log of the masked ensemble average of
// exp(beta*gamma*bias(t)), which is nonlinear in gamma, so the spline
// must be rebuilt for every gamma candidate.
type EATR struct {
	vdata    [][]float64 // NaN-padded replicas-by-rows bias matrix, shift applied
	ts       []float64   // common time axis
	beta     float64
	pool     *numeric.Pool
	logTrick bool
}

// NewEATR wraps the padded instantaneous-bias matrix and common time
// axis produced by trajectory.InstantBias.
func NewEATR(vdata [][]float64, ts []float64, beta float64, pool *numeric.Pool, logTrick bool) (*EATR, error) {
	if len(vdata) == 0 || len(ts) == 0 {
		return nil, errors.Data(errors.ErrDataEmptyEnsemble,
			"EATR model needs a non-empty bias matrix and time axis")
	}
	for i := range vdata {
		if len(vdata[i]) != len(ts) {
			return nil, errors.Dataf(errors.ErrDataBadSeries,
				"bias matrix row %d has %d entries, time axis has %d",
				i, len(vdata[i]), len(ts))
		}
	}
	return &EATR{vdata: vdata, ts: ts, beta: beta, pool: pool, logTrick: logTrick}, nil
}

// effectivePotential computes log <exp(beta*gamma*V)> per time column,
// masking NaN padding. With logTrick set the average is anchored at the
// per-column maximum so large bias magnitudes cannot overflow the
// intermediate exponentials.
func (m *EATR) effectivePotential(gamma float64) []float64 {
	cols := len(m.ts)
	out := make([]float64, cols)
	bg := m.beta * gamma

	for j := 0; j < cols; j++ {
		if m.logTrick {
			colMax := math.Inf(-1)
			for i := range m.vdata {
				if v := m.vdata[i][j]; !math.IsNaN(v) && v > colMax {
					colMax = v
				}
			}
			sum := 0.0
			n := 0
			for i := range m.vdata {
				v := m.vdata[i][j]
				if math.IsNaN(v) {
					continue
				}
				sum += math.Exp(bg * (v - colMax))
				n++
			}
			out[j] = bg*colMax + math.Log(sum/float64(n))
		} else {
			sum := 0.0
			n := 0
			for i := range m.vdata {
				v := m.vdata[i][j]
				if math.IsNaN(v) {
					continue
				}
				sum += math.Exp(bg * v)
				n++
			}
			out[j] = math.Log(sum / float64(n))
		}
	}
	return out
}

// PotentialFor rebuilds the gamma-dependent effective-potential spline
// and freezes the model at that gamma. The hazard factor is
// exp(Veff(t; gamma)) with no additional multiplier.
func (m *EATR) PotentialFor(gamma float64) (*Potential, error) {
	vs := m.effectivePotential(gamma)
	spline, err := numeric.NewSpline(m.ts, vs)
	if err != nil {
		return nil, err
	}
	return &Potential{
		spline:   spline,
		mult:     1,
		logTrick: m.logTrick,
		pool:     m.pool,
	}, nil
}

// Beta returns the inverse temperature the model was built with.
func (m *EATR) Beta() float64 {
	return m.beta
}
