// Package trajectory holds the data model for biased-simulation ensembles:
// replicas, their time series, transition events, and the bias aggregation
// used by the KTR and EATR estimators.
package trajectory

import (
	"math"

	"github.com/ratekit/ratekit/pkg/errors"
)

// Schema names the semantic columns of a replica's time series. Column
// indices are declared once at ingestion; estimator code never addresses
// raw indices.
type Schema struct {
	// Time is the index of the simulation-time column.
	Time int

	// Bias is the index of the instantaneous bias column.
	Bias int

	// Acc is the index of the acceleration-factor column, or nil when
	// acceleration factors are computed from the bias instead.
	Acc *int

	// MaxBias is the index of a precomputed running-maximum bias column,
	// or nil when the running maximum is derived from Bias.
	MaxBias *int
}

// Replica is one independent biased simulation run: a rectangular time
// series plus a transition flag derived from the simulation log.
// Replicas are immutable once loaded; bootstrap draws index subsets and
// never mutates the source.
type Replica struct {
	// Name identifies the run (its directory name).
	Name string

	// Rows is the rectangular time series; Rows[j][k] is column k at row j.
	Rows [][]float64

	// Transitioned is true iff a transition was observed before the run
	// ended. A censored replica contributes elapsed time but no
	// transition time to the likelihood.
	Transitioned bool
}

// Validate checks the replica series is usable: at least two rows, a
// rectangular shape wide enough for the schema, and a strictly
// increasing time column.
func (r *Replica) Validate(s Schema) error {
	if len(r.Rows) < 2 {
		return errors.Dataf(errors.ErrDataBadSeries,
			"replica has %d rows, need at least 2", len(r.Rows)).
			WithContext("replica", r.Name)
	}
	width := len(r.Rows[0])
	need := maxColumn(s)
	if width <= need {
		return errors.Dataf(errors.ErrDataBadSeries,
			"replica has %d columns but the schema addresses column %d", width, need).
			WithContext("replica", r.Name)
	}
	prev := math.Inf(-1)
	for j, row := range r.Rows {
		if len(row) != width {
			return errors.Dataf(errors.ErrDataBadSeries,
				"replica is ragged: row %d has %d columns, row 0 has %d", j, len(row), width).
				WithContext("replica", r.Name)
		}
		t := row[s.Time]
		if t <= prev {
			return errors.Dataf(errors.ErrDataBadSeries,
				"time column is not strictly increasing at row %d", j).
				WithContext("replica", r.Name)
		}
		prev = t
	}
	return nil
}

func maxColumn(s Schema) int {
	m := s.Time
	if s.Bias > m {
		m = s.Bias
	}
	if s.Acc != nil && *s.Acc > m {
		m = *s.Acc
	}
	if s.MaxBias != nil && *s.MaxBias > m {
		m = *s.MaxBias
	}
	return m
}

// Len returns the number of rows in the series.
func (r *Replica) Len() int {
	return len(r.Rows)
}

// Column extracts one column as a fresh slice.
func (r *Replica) Column(k int) []float64 {
	out := make([]float64, len(r.Rows))
	for j, row := range r.Rows {
		out[j] = row[k]
	}
	return out
}

// FinalTime returns the last value of the time column.
func (r *Replica) FinalTime(s Schema) float64 {
	return r.Rows[len(r.Rows)-1][s.Time]
}

// Ensemble is an ordered collection of replicas sharing one schema and
// one inverse temperature.
type Ensemble struct {
	Replicas []*Replica
	Schema   Schema

	// Beta is the inverse temperature converting bias to dimensionless
	// energy.
	Beta float64
}

// NewEnsemble validates every replica against the schema and returns the
// assembled ensemble.
func NewEnsemble(replicas []*Replica, s Schema, beta float64) (*Ensemble, error) {
	if len(replicas) == 0 {
		return nil, errors.Data(errors.ErrDataEmptyEnsemble, "ensemble contains no replicas")
	}
	for _, r := range replicas {
		if err := r.Validate(s); err != nil {
			return nil, err
		}
	}
	return &Ensemble{Replicas: replicas, Schema: s, Beta: beta}, nil
}

// Size returns the number of replicas N.
func (e *Ensemble) Size() int {
	return len(e.Replicas)
}

// Events returns the per-replica transition flags in ensemble order.
func (e *Ensemble) Events() []bool {
	out := make([]bool, len(e.Replicas))
	for i, r := range e.Replicas {
		out[i] = r.Transitioned
	}
	return out
}

// TransitionCount returns M, the number of transitioned replicas.
func (e *Ensemble) TransitionCount() int {
	m := 0
	for _, r := range e.Replicas {
		if r.Transitioned {
			m++
		}
	}
	return m
}

// FinalTimes returns each replica's final simulation time.
func (e *Ensemble) FinalTimes() []float64 {
	out := make([]float64, len(e.Replicas))
	for i, r := range e.Replicas {
		out[i] = r.FinalTime(e.Schema)
	}
	return out
}

// MaxRows returns the maximum row count across the ensemble.
func (e *Ensemble) MaxRows() int {
	m := 0
	for _, r := range e.Replicas {
		if r.Len() > m {
			m = r.Len()
		}
	}
	return m
}

// timeAxis returns the time column of a replica spanning the maximum row
// count. Every aggregation aligns ragged replicas against this axis.
func (e *Ensemble) timeAxis() ([]float64, error) {
	maxRows := e.MaxRows()
	for _, r := range e.Replicas {
		if r.Len() == maxRows {
			return r.Column(e.Schema.Time), nil
		}
	}
	return nil, errors.Data(errors.ErrDataNoTimeAxis,
		"no replica spans the maximum observed row count")
}

// Subset returns a new ensemble over the replicas at the given indices,
// in order and with repetition allowed (bootstrap resampling). The
// underlying replicas are shared, never copied or mutated.
func (e *Ensemble) Subset(idx []int) *Ensemble {
	replicas := make([]*Replica, len(idx))
	for i, j := range idx {
		replicas[i] = e.Replicas[j]
	}
	return &Ensemble{Replicas: replicas, Schema: e.Schema, Beta: e.Beta}
}
