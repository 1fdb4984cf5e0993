package trajectory

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ratekit/ratekit/pkg/errors"
)

// LoaderOptions controls how replica directories are read.
type LoaderOptions struct {
	// ColvarName is the trajectory table file name inside each run
	// directory (e.g. "COLVAR").
	ColvarName string

	// LogName is the companion simulation log whose length signals a
	// transition (e.g. "plumed.log").
	LogName string

	// PlogLen is the line-count threshold: a log longer than this marks
	// the replica as transitioned.
	PlogLen int

	// InconNames prefixes file names with the run identifier
	// (<dir>/<run>/<run><name> instead of <dir>/<run>/<name>).
	InconNames bool
}

// LoadEnsemble reads one replica per run identifier from subdirectories
// of dir and assembles a validated ensemble.
func LoadEnsemble(dir string, runs []string, s Schema, beta float64, opts LoaderOptions) (*Ensemble, error) {
	if len(runs) == 0 {
		return nil, errors.Data(errors.ErrDataEmptyEnsemble, "no runs configured")
	}

	replicas := make([]*Replica, 0, len(runs))
	for _, run := range runs {
		colvar := filepath.Join(dir, run, opts.ColvarName)
		plog := filepath.Join(dir, run, opts.LogName)
		if opts.InconNames {
			colvar = filepath.Join(dir, run, run+opts.ColvarName)
			plog = filepath.Join(dir, run, run+opts.LogName)
		}

		rows, err := ReadTable(colvar)
		if err != nil {
			return nil, err
		}
		lines, err := countLines(plog)
		if err != nil {
			return nil, err
		}

		replicas = append(replicas, &Replica{
			Name:         run,
			Rows:         rows,
			Transitioned: lines > opts.PlogLen,
		})
	}
	return NewEnsemble(replicas, s, beta)
}

// ReadTable parses a whitespace-delimited numeric table. Comment lines
// (starting with '#') and blank lines are skipped. A non-numeric first
// data line is tolerated as a header, matching the common one-line-header
// convention of simulation output.
func ReadTable(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed,
			fmt.Sprintf("cannot open trajectory table %s", path))
	}
	defer f.Close()

	var rows [][]float64
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		row := make([]float64, len(fields))
		ok := true
		for k, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				ok = false
				break
			}
			row[k] = v
		}
		if !ok {
			// Tolerate one header line before any data.
			if len(rows) == 0 {
				continue
			}
			return nil, errors.IO(errors.ErrIOParseFailed,
				fmt.Sprintf("non-numeric value at %s:%d", path, lineNo))
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.IOWrap(err, errors.ErrIOReadFailed,
			fmt.Sprintf("reading trajectory table %s", path))
	}
	if len(rows) == 0 {
		return nil, errors.IO(errors.ErrIOParseFailed,
			fmt.Sprintf("trajectory table %s contains no numeric rows", path))
	}
	return rows, nil
}

// countLines returns the number of lines in the file at path.
func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.IOWrap(err, errors.ErrIOReadFailed,
			fmt.Sprintf("cannot open transition log %s", path))
	}
	defer f.Close()

	n := 0
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		n++
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.IOWrap(err, errors.ErrIOReadFailed,
			fmt.Sprintf("reading transition log %s", path))
	}
	return n, nil
}
