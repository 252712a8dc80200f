package observ

import (
	"strings"
	"testing"
	"time"
)

func TestTimerNesting(t *testing.T) {
	tm := NewTimer()
	outer := tm.Begin("lower")
	inner := tm.Begin("verify")
	time.Sleep(time.Millisecond)
	tm.End(inner, "ok")
	tm.End(outer, "ok")
	tm.End(outer, "again")

	ph := tm.Phases()
	if len(ph) != 2 || ph[0].Note != "ok" {
		t.Fatalf("phases = %+v", ph)
	}
	if ph[0].Dur < ph[1].Dur {
		t.Error("parent must not be shorter than its child")
	}
	if tm.Total() != ph[0].Dur {
		t.Errorf("total %v counts nested phases", tm.Total())
	}
	r := tm.Report()
	if r.Phases[1].Depth != 1 {
		t.Errorf("depth = %d", r.Phases[1].Depth)
	}
}

func TestSummary(t *testing.T) {
	tm := NewTimer()
	tm.End(tm.Begin("parse"), "")
	tm.End(tm.Begin("codegen"), "failed")
	s := tm.Summary()
	for _, want := range []string{"timings:\n", "parse", "codegen", "// failed", "total"} {
		if !strings.Contains(s, want) {
			t.Errorf("summary lacks %q:\n%s", want, s)
		}
	}
}

func TestEmptyReport(t *testing.T) {
	r := NewTimer().Report()
	if r.TotalMS != 0 || len(r.Phases) != 0 {
		t.Fatalf("report = %+v", r)
	}
}
