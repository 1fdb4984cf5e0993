// Package export writes analysis results to tabular formats for
// downstream statistical tooling.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ratekit/ratekit/pkg/rates"
)

// CSVDialect specifies the CSV format variant.
type CSVDialect string

const (
	// DialectStandard uses RFC 4180 compliant CSV.
	DialectStandard CSVDialect = "standard"

	// DialectTSV uses tab-separated values instead of commas.
	DialectTSV CSVDialect = "tsv"
)

// CSVConfig specifies options for CSV export.
type CSVConfig struct {
	// Dialect specifies the CSV format variant.
	// Default: DialectStandard
	Dialect CSVDialect

	// IncludeHeader writes column headers as the first row.
	// Default: true
	IncludeHeader bool

	// Precision is the number of significant decimal places for
	// floating-point values, written in scientific notation since
	// rates span many decades.
	// Default: 6
	Precision int

	// NAString is the representation for unset fields.
	// Default: "NA" (compatible with R and Python pandas)
	NAString string
}

// DefaultCSVConfig returns a CSVConfig with sensible defaults.
func DefaultCSVConfig() *CSVConfig {
	return &CSVConfig{
		Dialect:       DialectStandard,
		IncludeHeader: true,
		Precision:     6,
		NAString:      "NA",
	}
}

// CSVWriter writes results records to CSV format, one row per
// orchestrator call.
type CSVWriter struct {
	config      *CSVConfig
	writer      *csv.Writer
	headerDone  bool
	rowsWritten int
}

// NewCSVWriter creates a CSVWriter that writes to w. If config is nil,
// DefaultCSVConfig() is used.
func NewCSVWriter(w io.Writer, config *CSVConfig) *CSVWriter {
	if config == nil {
		config = DefaultCSVConfig()
	}

	csvWriter := csv.NewWriter(w)
	if config.Dialect == DialectTSV {
		csvWriter.Comma = '\t'
	}

	return &CSVWriter{
		config: config,
		writer: csvWriter,
	}
}

// WriteHeader writes the CSV header row. It is called automatically on
// first Write when IncludeHeader is set.
func (cw *CSVWriter) WriteHeader() error {
	if cw.headerDone {
		return nil
	}
	if err := cw.writer.Write(buildHeaders()); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	cw.headerDone = true
	return nil
}

// Write writes one results record as a CSV row.
func (cw *CSVWriter) Write(r *rates.Results) error {
	if cw.config.IncludeHeader && !cw.headerDone {
		if err := cw.WriteHeader(); err != nil {
			return err
		}
	}
	if err := cw.writer.Write(cw.formatResults(r)); err != nil {
		return fmt.Errorf("failed to write CSV row: %w", err)
	}
	cw.rowsWritten++
	return nil
}

// WriteAll writes multiple results records.
func (cw *CSVWriter) WriteAll(results []*rates.Results) error {
	for _, r := range results {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes buffered data to the underlying writer.
func (cw *CSVWriter) Flush() error {
	cw.writer.Flush()
	if err := cw.writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// RowsWritten returns the number of data rows written (excluding the
// header).
func (cw *CSVWriter) RowsWritten() int {
	return cw.rowsWritten
}

// buildHeaders constructs the column headers: the run identifier
// followed by every result field in canonical order. Names are
// snake_case identifiers for R and pandas compatibility.
func buildHeaders() []string {
	headers := []string{"run_id"}
	for _, name := range rates.FieldNames() {
		headers = append(headers, columnName(name))
	}
	return headers
}

// columnName lowers a result-field name to a snake_case identifier,
// e.g. "KTR Vmb CDF KS khi" becomes "ktr_vmb_cdf_ks_khi".
func columnName(field string) string {
	return strings.ToLower(strings.ReplaceAll(field, " ", "_"))
}

func (cw *CSVWriter) formatResults(r *rates.Results) []string {
	row := []string{r.RunID()}
	for _, name := range rates.FieldNames() {
		v, ok := r.Value(name)
		if !ok {
			row = append(row, cw.config.NAString)
			continue
		}
		row = append(row, strconv.FormatFloat(v, 'e', cw.config.Precision, 64))
	}
	return row
}

// ExportResultsToCSV is a convenience function writing records to w in
// one call. If config is nil, DefaultCSVConfig() is used.
func ExportResultsToCSV(w io.Writer, results []*rates.Results, config *CSVConfig) error {
	writer := NewCSVWriter(w, config)
	if err := writer.WriteAll(results); err != nil {
		return err
	}
	return writer.Flush()
}
