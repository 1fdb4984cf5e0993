package trajectory

import (
	"math"

	"gonum.org/v1/gonum/integrate"

	"github.com/ratekit/ratekit/pkg/errors"
)

// RunningMax returns the monotone non-decreasing running maximum of xs.
func RunningMax(xs []float64) []float64 {
	out := make([]float64, len(xs))
	best := math.Inf(-1)
	for i, x := range xs {
		if x > best {
			best = x
		}
		out[i] = best
	}
	return out
}

// AccelerationFactors computes the iMetaD acceleration factor per replica
// by trapezoidal integration of exp(beta*(bias+shift)) over the time
// column, divided by the replica's final time.
func (e *Ensemble) AccelerationFactors(biasShift float64) []float64 {
	out := make([]float64, len(e.Replicas))
	for i, r := range e.Replicas {
		ts := r.Column(e.Schema.Time)
		bias := r.Column(e.Schema.Bias)
		integrand := make([]float64, len(bias))
		for j, v := range bias {
			integrand[j] = math.Exp(e.Beta * (v + biasShift))
		}
		out[i] = integrate.Trapezoidal(ts, integrand) / r.FinalTime(e.Schema)
	}
	return out
}

// RescaledFinalTimes returns each replica's final time multiplied by its
// acceleration factor. The factor comes from the Acc column when the
// schema declares one, otherwise from AccelerationFactors.
func (e *Ensemble) RescaledFinalTimes(biasShift float64) []float64 {
	out := make([]float64, len(e.Replicas))
	if e.Schema.Acc != nil {
		for i, r := range e.Replicas {
			last := r.Rows[r.Len()-1]
			out[i] = r.FinalTime(e.Schema) * last[*e.Schema.Acc]
		}
		return out
	}
	acc := e.AccelerationFactors(biasShift)
	for i, r := range e.Replicas {
		out[i] = r.FinalTime(e.Schema) * acc[i]
	}
	return out
}

// maxBiasSeries returns the per-replica running-maximum bias: the
// MaxBias column when declared, otherwise the running maximum of the
// bias column.
func (e *Ensemble) maxBiasSeries() [][]float64 {
	out := make([][]float64, len(e.Replicas))
	for i, r := range e.Replicas {
		if e.Schema.MaxBias != nil {
			out[i] = r.Column(*e.Schema.MaxBias)
		} else {
			out[i] = RunningMax(r.Column(e.Schema.Bias))
		}
	}
	return out
}

// padColumns stacks ragged per-replica series into a replicas-by-maxRows
// matrix, padding short replicas with NaN. Aggregations mask the NaN
// entries rather than letting them poison column statistics.
func padColumns(series [][]float64, maxRows int) [][]float64 {
	out := make([][]float64, len(series))
	for i, s := range series {
		row := make([]float64, maxRows)
		copy(row, s)
		for j := len(s); j < maxRows; j++ {
			row[j] = math.NaN()
		}
		out[i] = row
	}
	return out
}

// maskedColumnMean averages each column across replicas, ignoring NaN
// padding. Columns where every entry is NaN yield NaN.
func maskedColumnMean(padded [][]float64, maxRows int) []float64 {
	out := make([]float64, maxRows)
	for j := 0; j < maxRows; j++ {
		sum := 0.0
		n := 0
		for i := range padded {
			if v := padded[i][j]; !math.IsNaN(v) {
				sum += v
				n++
			}
		}
		if n == 0 {
			out[j] = math.NaN()
		} else {
			out[j] = sum / float64(n)
		}
	}
	return out
}

// AverageMaxBias computes the KTR bias aggregation: the column-wise
// masked mean of each replica's running-maximum bias, shifted and scaled
// by beta, over the ensemble's common time axis. The result feeds the
// gamma-independent maximum-bias spline.
func (e *Ensemble) AverageMaxBias(biasShift float64) (ts, vs []float64, err error) {
	ts, err = e.timeAxis()
	if err != nil {
		return nil, nil, err
	}
	maxRows := e.MaxRows()
	padded := padColumns(e.maxBiasSeries(), maxRows)
	vs = maskedColumnMean(padded, maxRows)
	for j := range vs {
		vs[j] = (vs[j] + biasShift) * e.Beta
	}
	return ts, vs, nil
}

// InstantBias returns the NaN-padded matrix of raw (non-running-max)
// bias values with the shift applied, plus the common time axis. The
// EATR estimator recomputes its exponential ensemble average from this
// matrix for every gamma candidate, since that aggregation is nonlinear
// in gamma.
func (e *Ensemble) InstantBias(biasShift float64) (vdata [][]float64, ts []float64, err error) {
	ts, err = e.timeAxis()
	if err != nil {
		return nil, nil, err
	}
	series := make([][]float64, len(e.Replicas))
	for i, r := range e.Replicas {
		col := r.Column(e.Schema.Bias)
		for j := range col {
			col[j] += biasShift
		}
		series[i] = col
	}
	return padColumns(series, e.MaxRows()), ts, nil
}

// ZeroTransitionsError is returned by estimators when every replica was
// right-censored; kept here so both orchestrator and estimators report
// the condition identically.
func ZeroTransitionsError(n int) error {
	return errors.Dataf(errors.ErrDataZeroTransitions,
		"all %d replicas were right-censored; no transition times to fit", n)
}
