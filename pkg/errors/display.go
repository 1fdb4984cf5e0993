// Package errors provides error formatting and display functions.
// Renders RateErrors with color coding for TTY output.
package errors

import (
	"fmt"
	"io"
	"os"
	"sort"

	"golang.org/x/term"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m" // Error type/code
	colorYellow = "\033[33m" // Context information
	colorCyan   = "\033[36m" // Suggestions
	colorDim    = "\033[90m" // Secondary/cause info
)

// Formatter handles error display with optional color support.
type Formatter struct {
	// UseColor enables ANSI color codes in output.
	// When false, output is plain text suitable for logs.
	UseColor bool

	// Writer is the output destination. Defaults to os.Stderr.
	Writer io.Writer

	// Indent is the prefix for context and suggestion lines.
	Indent string
}

// DefaultFormatter returns a Formatter configured for standard error output.
// Color is enabled if stderr is a TTY.
func DefaultFormatter() *Formatter {
	return &Formatter{
		UseColor: IsTTY(os.Stderr),
		Writer:   os.Stderr,
		Indent:   "  ",
	}
}

// IsTTY returns true if the given file is a terminal.
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// color wraps s in the given ANSI code when color is enabled.
func (f *Formatter) color(code, s string) string {
	if !f.UseColor {
		return s
	}
	return code + s + colorReset
}

// Print writes a formatted error to the Formatter's writer.
// RateErrors are rendered with code, category, context, cause, and
// suggestions; other errors fall back to their Error() string.
func (f *Formatter) Print(err error) {
	w := f.Writer
	if w == nil {
		w = os.Stderr
	}

	re, ok := err.(*RateError)
	if !ok {
		fmt.Fprintf(w, "%s\n", f.color(colorRed, err.Error()))
		return
	}

	fmt.Fprintf(w, "%s %s\n",
		f.color(colorRed, fmt.Sprintf("[%s]", re.Code)),
		re.Message)

	if re.HasContext() {
		keys := make([]string, 0, len(re.Context))
		for k := range re.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(w, "%s%s\n", f.Indent,
				f.color(colorYellow, fmt.Sprintf("%s: %s", k, re.Context[k])))
		}
	}

	if re.Cause != nil {
		fmt.Fprintf(w, "%s%s\n", f.Indent,
			f.color(colorDim, fmt.Sprintf("caused by: %v", re.Cause)))
	}

	for _, s := range re.Suggestions {
		fmt.Fprintf(w, "%s%s\n", f.Indent,
			f.color(colorCyan, fmt.Sprintf("hint: %s", s)))
	}
}
