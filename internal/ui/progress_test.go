package ui

import (
	"strings"
	"testing"
	"time"

	"viper/internal/driver"
)

func TestProgressFollowsEvents(t *testing.T) {
	files := []string{"a.py", "b.py"}
	m := NewProgressModel("compile", files, nil).(*progressModel)

	m.applyEvent(driver.Event{File: "a.py", State: driver.StateParsed, Status: driver.StatusWorking})
	if m.items[0].status != "lowering" || m.items[1].status != "queued" {
		t.Fatalf("items = %+v", m.items)
	}
	if got := m.percent(); got != 0.125 {
		t.Errorf("percent = %v", got)
	}

	m.applyEvent(driver.Event{File: "b.py", State: driver.StateFailed, Status: driver.StatusError, Exit: driver.ExitSemantic})
	m.applyEvent(driver.Event{File: "a.py", State: driver.StateDone, Status: driver.StatusDone, Elapsed: 3 * time.Millisecond})
	if m.percent() != 1 {
		t.Errorf("percent = %v", m.percent())
	}
	if m.items[1].state != driver.StateInit {
		t.Errorf("a failure must keep the last reached state, got %s", m.items[1].state)
	}

	view := m.View()
	for _, want := range []string{"a.py", "b.py", "(exit 3)", "3ms"} {
		if !strings.Contains(view, want) {
			t.Errorf("view lacks %q:\n%s", want, view)
		}
	}
}

func TestUnknownFileMovesHeader(t *testing.T) {
	m := NewProgressModel("build", []string{"a.py"}, nil).(*progressModel)
	m.applyEvent(driver.Event{File: "a.out", State: driver.StateGenerated, Status: driver.StatusWorking})
	if m.stageLabel != "assembling" {
		t.Errorf("stageLabel = %q", m.stageLabel)
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("internal/very/long/path.py", 12); got != "internal/..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("a.py", 12); got != "a.py" {
		t.Errorf("truncate = %q", got)
	}
}
