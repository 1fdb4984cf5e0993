package rates

// Analysis method names as the orchestrator and configuration know them.
const (
	AnalysisIMetaDMLE = "iMetaD MLE"
	AnalysisIMetaDCDF = "iMetaD CDF"
	AnalysisKTRMLE    = "KTR Vmb MLE"
	AnalysisKTRCDF    = "KTR Vmb CDF"
	AnalysisEATRMLE   = "EATR MLE"
	AnalysisEATRCDF   = "EATR CDF"
)

// AnalysisNames lists every recognized analysis in execution order.
var AnalysisNames = []string{
	AnalysisIMetaDMLE,
	AnalysisIMetaDCDF,
	AnalysisKTRMLE,
	AnalysisKTRCDF,
	AnalysisEATRMLE,
	AnalysisEATRCDF,
}

// fieldNames is the canonical ordered set of result fields. Every field
// is pre-declared so downstream consumers can rely on key presence
// regardless of which analyses ran.
var fieldNames = []string{
	"iMetaD MLE k",
	"iMetaD MLE std k",
	"iMetaD CDF k",
	"iMetaD CDF std k",
	"iMetaD CDF KS klo",
	"iMetaD CDF KS khi",
	"KTR Vmb MLE k",
	"KTR Vmb MLE std k",
	"KTR Vmb MLE g",
	"KTR Vmb MLE std g",
	"KTR Vmb CDF k",
	"KTR Vmb CDF std k",
	"KTR Vmb CDF g",
	"KTR Vmb CDF std g",
	"KTR Vmb CDF KS klo",
	"KTR Vmb CDF KS khi",
	"KTR Vmb CDF KS glo",
	"KTR Vmb CDF KS ghi",
	"EATR MLE k",
	"EATR MLE std k",
	"EATR MLE g",
	"EATR MLE std g",
	"EATR CDF k",
	"EATR CDF std k",
	"EATR CDF g",
	"EATR CDF std g",
	"EATR CDF KS klo",
	"EATR CDF KS khi",
	"EATR CDF KS glo",
	"EATR CDF KS ghi",
}

// Results is the immutable outcome of one orchestrator call: a fixed
// set of named fields, each either set by the analysis that produced it
// or nil when that analysis did not run or failed numerically.
type Results struct {
	runID  string
	fields map[string]*float64
}

func newResults(runID string) *Results {
	fields := make(map[string]*float64, len(fieldNames))
	for _, name := range fieldNames {
		fields[name] = nil
	}
	return &Results{runID: runID, fields: fields}
}

func (r *Results) set(name string, v float64) {
	x := v
	r.fields[name] = &x
}

// RunID identifies this orchestrator call.
func (r *Results) RunID() string {
	return r.runID
}

// FieldNames returns the canonical field order.
func FieldNames() []string {
	out := make([]string, len(fieldNames))
	copy(out, fieldNames)
	return out
}

// Value returns a field by name; ok is false when the field is unset.
func (r *Results) Value(name string) (v float64, ok bool) {
	p, known := r.fields[name]
	if !known || p == nil {
		return 0, false
	}
	return *p, true
}

// Fields returns a copy of the full field mapping, nil defaults
// included.
func (r *Results) Fields() map[string]*float64 {
	out := make(map[string]*float64, len(r.fields))
	for name, p := range r.fields {
		if p == nil {
			out[name] = nil
			continue
		}
		x := *p
		out[name] = &x
	}
	return out
}
