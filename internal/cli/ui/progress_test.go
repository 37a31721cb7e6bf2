package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestSpinnerStartStop(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{
		Message:  "Fetching users",
		NoColor:  true,
		Interval: 10 * time.Millisecond,
	})

	spinner.Start()
	spinner.Start()
	time.Sleep(50 * time.Millisecond)
	spinner.Stop()
	spinner.Stop()

	out := buf.String()
	if !strings.Contains(out, "Fetching users") {
		t.Errorf("expected spinner message, got %q", out)
	}
	if !strings.HasSuffix(out, "\r\033[K") {
		t.Errorf("expected the line cleared once on stop, got %q", out)
	}
	if strings.Count(out, "\r\033[K") != 1 {
		t.Errorf("expected a single clear sequence, got %q", out)
	}
}

func TestSpinnerStopWithoutStart(t *testing.T) {
	var buf bytes.Buffer
	NewSpinner(&buf, SpinnerOptions{NoColor: true}).Stop()

	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestSpinnerSuccessAndError(t *testing.T) {
	var buf bytes.Buffer
	spinner := NewSpinner(&buf, SpinnerOptions{Message: "Logging in", NoColor: true})
	spinner.Start()
	spinner.Success("Logged in")
	if !strings.Contains(buf.String(), "✓ Logged in\n") {
		t.Errorf("expected success line, got %q", buf.String())
	}

	buf.Reset()
	spinner.Start()
	spinner.Error("Login failed")
	if !strings.Contains(buf.String(), "❌ Login failed\n") {
		t.Errorf("expected error line, got %q", buf.String())
	}
}

func TestWithSpinner(t *testing.T) {
	var buf bytes.Buffer
	boom := errors.New("boom")

	err := WithSpinner(&buf, "Working", false, true, func() error { return boom })
	if !errors.Is(err, boom) {
		t.Errorf("expected fn error returned, got %v", err)
	}
	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Errorf("expected spinner stopped, got %q", buf.String())
	}

	buf.Reset()
	called := false
	err = WithSpinner(&buf, "Working", true, true, func() error {
		called = true
		return nil
	})
	if err != nil || !called {
		t.Errorf("expected fn to run quietly, err=%v called=%v", err, called)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output when quiet, got %q", buf.String())
	}
}

func TestSpinnerDefaultInterval(t *testing.T) {
	spinner := NewSpinner(&bytes.Buffer{}, SpinnerOptions{})
	if spinner.interval != 100*time.Millisecond {
		t.Errorf("expected default interval 100ms, got %s", spinner.interval)
	}
}
