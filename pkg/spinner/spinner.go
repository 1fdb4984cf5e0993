// Package spinner provides animated terminal feedback for long-running
// analyses: loading large trajectory ensembles, bootstrap loops, and
// bracket searches can run for minutes.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

const (
	hideCursor     = "\033[?25l"
	showCursor     = "\033[?25h"
	carriageReturn = "\r"

	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorReset = "\033[0m"

	symbolSuccess = "✓"
	symbolFailure = "✗"
)

// CharSet defines the animation characters to cycle through.
type CharSet []string

var (
	// Braille provides smooth animation on Unicode terminals.
	Braille = CharSet{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

	// Line is the classic rotating line, safe on any terminal.
	Line = CharSet{"|", "/", "-", "\\"}
)

// Config holds spinner options.
type Config struct {
	// CharSet defaults to Braille.
	CharSet CharSet

	// Message is the text displayed next to the spinner.
	Message string

	// RefreshRate defaults to 80ms.
	RefreshRate time.Duration

	// ShowElapsed appends the elapsed time to the message.
	ShowElapsed bool

	// Writer defaults to os.Stderr.
	Writer io.Writer

	// IsTTY overrides terminal auto-detection. When the output is not
	// a terminal the spinner degrades to static messages.
	IsTTY *bool
}

// Spinner displays an animated status line in the terminal.
type Spinner struct {
	mu sync.Mutex

	config     Config
	active     bool
	startTime  time.Time
	stopCh     chan struct{}
	doneCh     chan struct{}
	frame      int
	isTTY      bool
	lastOutput int
}

// New creates a spinner with the given message and default options.
func New(message string) *Spinner {
	return NewWithConfig(Config{Message: message, ShowElapsed: true})
}

// NewWithConfig creates a spinner with custom options.
func NewWithConfig(config Config) *Spinner {
	if len(config.CharSet) == 0 {
		config.CharSet = Braille
	}
	if config.RefreshRate == 0 {
		config.RefreshRate = 80 * time.Millisecond
	}
	if config.Writer == nil {
		config.Writer = os.Stderr
	}

	isTTY := isTerminalWriter(config.Writer)
	if config.IsTTY != nil {
		isTTY = *config.IsTTY
	}
	return &Spinner{config: config, isTTY: isTTY}
}

func isTerminalWriter(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// IsActive reports whether the spinner is currently running.
func (s *Spinner) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Elapsed returns the duration since Start, or 0 before the first
// Start.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.startTime.IsZero() {
		return 0
	}
	return time.Since(s.startTime)
}

// Start begins the animation. Starting an active spinner is a no-op.
// Without a terminal the message is printed once, statically.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return
	}
	s.active = true
	s.startTime = time.Now()
	s.frame = 0
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})

	if !s.isTTY {
		fmt.Fprintf(s.config.Writer, "%s...\n", s.config.Message)
		return
	}
	fmt.Fprint(s.config.Writer, hideCursor)
	go s.spin()
}

// Stop halts the animation and clears the status line. Stopping an
// inactive spinner is a no-op; Stop blocks until the animation
// goroutine has exited.
func (s *Spinner) Stop() {
	s.stopWith("")
}

// StopWithSuccess halts the animation and leaves a green check line.
func (s *Spinner) StopWithSuccess(message string) {
	s.stopWith(colorGreen + symbolSuccess + colorReset + " " + message)
}

// StopWithFailure halts the animation and leaves a red cross line.
func (s *Spinner) StopWithFailure(message string) {
	s.stopWith(colorRed + symbolFailure + colorReset + " " + message)
}

func (s *Spinner) stopWith(final string) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false

	if !s.isTTY {
		s.mu.Unlock()
		if final != "" {
			fmt.Fprintln(s.config.Writer, stripColors(final))
		}
		return
	}

	close(s.stopCh)
	done := s.doneCh
	s.mu.Unlock()
	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearLine()
	fmt.Fprint(s.config.Writer, showCursor)
	if final != "" {
		fmt.Fprintln(s.config.Writer, final)
	}
}

func (s *Spinner) spin() {
	ticker := time.NewTicker(s.config.RefreshRate)
	defer ticker.Stop()

	s.render()
	for {
		select {
		case <-s.stopCh:
			close(s.doneCh)
			return
		case <-ticker.C:
			s.render()
		}
	}
}

func (s *Spinner) render() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}

	char := s.config.CharSet[s.frame%len(s.config.CharSet)]
	s.frame++

	output := char + " " + s.config.Message
	if s.config.ShowElapsed {
		output += " " + formatElapsed(time.Since(s.startTime))
	}
	s.clearLine()
	fmt.Fprint(s.config.Writer, output)
	s.lastOutput = len(output)
}

// clearLine overwrites the previous output with spaces. Caller must
// hold the mutex.
func (s *Spinner) clearLine() {
	if s.lastOutput > 0 {
		spaces := strings.Repeat(" ", s.lastOutput)
		fmt.Fprint(s.config.Writer, carriageReturn+spaces+carriageReturn)
		s.lastOutput = 0
	}
}

func formatElapsed(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("(%.1fs)", d.Seconds())
	}
	return fmt.Sprintf("(%dm %ds)", int(d.Minutes()), int(d.Seconds())%60)
}

func stripColors(s string) string {
	for _, code := range []string{colorGreen, colorRed, colorReset} {
		s = strings.ReplaceAll(s, code, "")
	}
	return s
}
