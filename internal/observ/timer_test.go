package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerPhases(t *testing.T) {
	tm := NewTimer()
	end := tm.Begin("parse")
	end("3 files")
	tm.Begin("verify")("")

	report := tm.Report()
	if len(report.Phases) != 2 {
		t.Fatalf("Phases = %d, want 2", len(report.Phases))
	}
	if report.Phases[0].Name != "parse" || report.Phases[0].Note != "3 files" {
		t.Fatalf("first phase = %+v", report.Phases[0])
	}
	if report.Phases[1].Name != "verify" {
		t.Fatalf("second phase = %+v", report.Phases[1])
	}

	var want float64
	for _, p := range report.Phases {
		want += p.DurationMS
	}
	if report.TotalMS != want {
		t.Fatalf("TotalMS = %f, want the sum of phases %f", report.TotalMS, want)
	}
}

func TestTimerEmpty(t *testing.T) {
	report := NewTimer().Report()
	if report.TotalMS != 0 || len(report.Phases) != 0 {
		t.Fatalf("empty timer report = %+v", report)
	}
}

func TestSummaryLaysOutPhases(t *testing.T) {
	tm := &Timer{phases: []Phase{
		{Name: "parse", Dur: 1500 * time.Microsecond, Note: "2 files"},
		{Name: "intern", Dur: 250 * time.Microsecond},
	}}

	got := tm.Summary()
	if !strings.HasPrefix(got, "timings:\n") {
		t.Fatalf("summary header missing: %q", got)
	}
	for _, want := range []string{"parse", "1.50 ms", "// 2 files", "intern", "0.25 ms", "total", "1.75 ms"} {
		if !strings.Contains(got, want) {
			t.Fatalf("summary %q missing %q", got, want)
		}
	}
}
