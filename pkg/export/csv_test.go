package export

import (
	"bytes"
	"encoding/csv"
	"math"
	"strconv"
	"strings"
	"testing"

	"github.com/ratekit/ratekit/pkg/rates"
	"github.com/ratekit/ratekit/pkg/trajectory"
)

func testResults(t *testing.T) *rates.Results {
	t.Helper()
	var replicas []*trajectory.Replica
	for i := 0; i < 10; i++ {
		u := (float64(i) + 0.5) / 10.0
		tt := -math.Log(1-u) / 1e-3
		replicas = append(replicas, &trajectory.Replica{
			Name:         "run",
			Rows:         [][]float64{{0, 0}, {tt, 0}},
			Transitioned: true,
		})
	}
	ens, err := trajectory.NewEnsemble(replicas, trajectory.Schema{Time: 0, Bias: 1}, 1.0)
	if err != nil {
		t.Fatalf("NewEnsemble() error: %v", err)
	}
	res, err := rates.Run(ens, rates.Options{
		Analyses:    map[string]bool{rates.AnalysisIMetaDMLE: true},
		GammaBounds: [2]float64{0, 1},
	})
	if err != nil {
		t.Fatalf("Run() error: %v", err)
	}
	return res
}

func TestCSVWriter_HeaderAndRow(t *testing.T) {
	res := testResults(t)

	var buf bytes.Buffer
	if err := ExportResultsToCSV(&buf, []*rates.Results{res}, nil); err != nil {
		t.Fatalf("ExportResultsToCSV() error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("reading output back: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d rows, want header + 1 data row", len(records))
	}

	header, row := records[0], records[1]
	wantCols := 1 + len(rates.FieldNames())
	if len(header) != wantCols || len(row) != wantCols {
		t.Fatalf("got %d/%d columns, want %d", len(header), len(row), wantCols)
	}
	if header[0] != "run_id" {
		t.Errorf("header[0] = %q, want run_id", header[0])
	}
	if header[1] != "imetad_mle_k" {
		t.Errorf("header[1] = %q, want imetad_mle_k", header[1])
	}
	if row[0] != res.RunID() {
		t.Errorf("row[0] = %q, want the run ID", row[0])
	}

	// The one computed field parses back to the stored value.
	k, err := strconv.ParseFloat(row[1], 64)
	if err != nil {
		t.Fatalf("parsing k column %q: %v", row[1], err)
	}
	want, _ := res.Value("iMetaD MLE k")
	if math.Abs(k-want)/want > 1e-5 {
		t.Errorf("k column = %g, want %g", k, want)
	}

	// Every field whose analysis never ran exports as NA.
	naCount := 0
	for _, cell := range row[2:] {
		if cell == "NA" {
			naCount++
		}
	}
	if naCount != len(rates.FieldNames())-1 {
		t.Errorf("%d NA cells, want %d", naCount, len(rates.FieldNames())-1)
	}
}

func TestCSVWriter_TSVDialect(t *testing.T) {
	res := testResults(t)

	var buf bytes.Buffer
	cfg := DefaultCSVConfig()
	cfg.Dialect = DialectTSV
	if err := ExportResultsToCSV(&buf, []*rates.Results{res}, cfg); err != nil {
		t.Fatalf("ExportResultsToCSV() error: %v", err)
	}
	first := strings.SplitN(buf.String(), "\n", 2)[0]
	if !strings.Contains(first, "\t") {
		t.Error("TSV output contains no tabs")
	}
	if strings.Contains(first, ",") {
		t.Error("TSV header contains commas")
	}
}

func TestCSVWriter_NoHeader(t *testing.T) {
	res := testResults(t)

	var buf bytes.Buffer
	cfg := DefaultCSVConfig()
	cfg.IncludeHeader = false
	w := NewCSVWriter(&buf, cfg)
	if err := w.Write(res); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error: %v", err)
	}
	if w.RowsWritten() != 1 {
		t.Errorf("RowsWritten() = %d, want 1", w.RowsWritten())
	}
	if strings.Contains(buf.String(), "run_id") {
		t.Error("header written despite IncludeHeader = false")
	}
}

func TestColumnName(t *testing.T) {
	cases := map[string]string{
		"iMetaD MLE k":       "imetad_mle_k",
		"KTR Vmb CDF KS khi": "ktr_vmb_cdf_ks_khi",
		"EATR CDF std g":     "eatr_cdf_std_g",
	}
	for in, want := range cases {
		if got := columnName(in); got != want {
			t.Errorf("columnName(%q) = %q, want %q", in, got, want)
		}
	}
}
