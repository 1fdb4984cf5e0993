package spinner

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func nonTTY(buf *bytes.Buffer, message string) *Spinner {
	no := false
	return NewWithConfig(Config{
		Message: message,
		Writer:  buf,
		IsTTY:   &no,
	})
}

func TestSpinner_NonTTYStaticMessages(t *testing.T) {
	var buf bytes.Buffer
	s := nonTTY(&buf, "Fitting hazard model")

	s.Start()
	if !s.IsActive() {
		t.Error("spinner not active after Start")
	}
	s.StopWithSuccess("fit complete")

	out := buf.String()
	if !strings.Contains(out, "Fitting hazard model...") {
		t.Errorf("missing static start message in %q", out)
	}
	if !strings.Contains(out, "✓ fit complete") {
		t.Errorf("missing success line in %q", out)
	}
	if strings.Contains(out, "\033[") {
		t.Errorf("ANSI escapes leaked into non-TTY output: %q", out)
	}
}

func TestSpinner_StopWithFailure(t *testing.T) {
	var buf bytes.Buffer
	s := nonTTY(&buf, "Loading ensemble")
	s.Start()
	s.StopWithFailure("load failed")

	if !strings.Contains(buf.String(), "✗ load failed") {
		t.Errorf("missing failure line in %q", buf.String())
	}
}

func TestSpinner_DoubleStartAndStopAreNoOps(t *testing.T) {
	var buf bytes.Buffer
	s := nonTTY(&buf, "Bootstrapping")

	s.Stop() // never started
	s.Start()
	s.Start()
	s.Stop()
	s.Stop()

	if got := strings.Count(buf.String(), "Bootstrapping..."); got != 1 {
		t.Errorf("start message printed %d times, want 1", got)
	}
}

func TestSpinner_Elapsed(t *testing.T) {
	var buf bytes.Buffer
	s := nonTTY(&buf, "working")
	if s.Elapsed() != 0 {
		t.Error("elapsed nonzero before Start")
	}
	s.Start()
	time.Sleep(10 * time.Millisecond)
	if s.Elapsed() <= 0 {
		t.Error("elapsed not advancing after Start")
	}
	s.Stop()
}

func TestFormatElapsed(t *testing.T) {
	if got := formatElapsed(1500 * time.Millisecond); got != "(1.5s)" {
		t.Errorf("formatElapsed(1.5s) = %q", got)
	}
	if got := formatElapsed(90 * time.Second); got != "(1m 30s)" {
		t.Errorf("formatElapsed(90s) = %q", got)
	}
}
