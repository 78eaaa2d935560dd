package utils

import (
	"errors"
	"testing"
	"time"
)

func TestLatencyTrackerPercentile(t *testing.T) {
	tracker := NewLatencyTracker(10)
	for _, d := range []time.Duration{
		10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond,
		40 * time.Millisecond, 50 * time.Millisecond,
	} {
		tracker.Observe(d)
	}

	if tracker.Count() != 5 {
		t.Fatalf("count = %d, want 5", tracker.Count())
	}
	if p95 := tracker.Percentile(95); p95 < 40*time.Millisecond {
		t.Fatalf("p95 = %v, want >= 40ms", p95)
	}
	if got := tracker.Percentile(0); got != 10*time.Millisecond {
		t.Fatalf("p0 = %v, want 10ms", got)
	}
	if got := tracker.Percentile(100); got != 50*time.Millisecond {
		t.Fatalf("p100 = %v, want 50ms", got)
	}
}

func TestLatencyTrackerRingOverwrite(t *testing.T) {
	tracker := NewLatencyTracker(3)
	for i := 1; i <= 10; i++ {
		tracker.Observe(time.Duration(i) * time.Millisecond)
	}

	if tracker.Count() != 3 {
		t.Fatalf("count = %d, want ring size 3", tracker.Count())
	}
	// Only the newest three samples (8ms, 9ms, 10ms) remain.
	if got := tracker.Percentile(0); got != 8*time.Millisecond {
		t.Fatalf("oldest surviving sample = %v, want 8ms", got)
	}
	if got := tracker.Percentile(100); got != 10*time.Millisecond {
		t.Fatalf("newest sample = %v, want 10ms", got)
	}
}

func TestParseRFC3339(t *testing.T) {
	if _, err := ParseRFC3339("2026-08-25T10:00:00Z"); err != nil {
		t.Fatalf("valid timestamp rejected: %v", err)
	}
	if _, err := ParseRFC3339("yesterday"); err == nil {
		t.Fatalf("expected error for non-RFC3339 input")
	}
}

func TestAppErrorFormatting(t *testing.T) {
	base := NewAppError("triage.ask", "analysis failed", nil)
	if base.Error() != "triage.ask: analysis failed" {
		t.Fatalf("unexpected format: %q", base.Error())
	}

	wrapped := NewAppError("triage.ask", "analysis failed", errors.New("boom"))
	if wrapped.Error() != "triage.ask: analysis failed: boom" {
		t.Fatalf("unexpected format: %q", wrapped.Error())
	}
	if !errors.As(wrapped, new(*AppError)) {
		t.Fatalf("errors.As should unwrap AppError")
	}
}
