// Package observ measures how long the stages of one compile unit take.
package observ

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// Phase is one timed stage.
type Phase struct {
	Name  string
	Start time.Time
	Dur   time.Duration
	Note  string
	open  bool
}

// Timer records phases in the order they were begun. Stages may nest; a
// nested phase is counted in its parent as well, so Total only sums the
// phases that were not running inside another one.
type Timer struct {
	mu     sync.Mutex
	phases []Phase
	depth  []int
	open   int
}

func NewTimer() *Timer { return &Timer{phases: make([]Phase, 0, 8)} }

// Begin starts a phase and returns its index for End.
func (t *Timer) Begin(name string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.phases = append(t.phases, Phase{Name: name, Start: time.Now(), open: true})
	t.depth = append(t.depth, t.open)
	t.open++
	return len(t.phases) - 1
}

// End closes phase idx. Unknown or already closed indices are ignored.
func (t *Timer) End(idx int, note string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if idx < 0 || idx >= len(t.phases) || !t.phases[idx].open {
		return
	}
	p := &t.phases[idx]
	p.Dur = time.Since(p.Start)
	p.Note = note
	p.open = false
	t.open--
}

// Phases returns a copy of the recorded phases.
func (t *Timer) Phases() []Phase {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Phase, len(t.phases))
	copy(out, t.phases)
	return out
}

// Total sums the top-level phases.
func (t *Timer) Total() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	var total time.Duration
	for i, p := range t.phases {
		if t.depth[i] == 0 {
			total += p.Dur
		}
	}
	return total
}

// Summary renders the table printed by --time-report. Nested phases are
// indented under their parent.
func (t *Timer) Summary() string {
	report := t.Report()
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		name := strings.Repeat("  ", p.Depth) + p.Name
		fmt.Fprintf(&sb, "  %-22s %9.3f ms", name, p.DurationMS)
		if report.TotalMS > 0 && p.Depth == 0 {
			fmt.Fprintf(&sb, " %5.1f%%", 100*p.DurationMS/report.TotalMS)
		}
		if p.Note != "" {
			sb.WriteString("  // " + p.Note)
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-22s %9.3f ms\n", "total", report.TotalMS)
	return sb.String()
}

// PhaseReport сжатая запись фазы для сериализации.
type PhaseReport struct {
	Name       string  `json:"name"`
	Depth      int     `json:"depth,omitempty"`
	DurationMS float64 `json:"duration_ms"`
	Note       string  `json:"note,omitempty"`
}

// Report is the serializable form of a Timer.
type Report struct {
	TotalMS float64       `json:"total_ms"`
	Phases  []PhaseReport `json:"phases"`
}

func (t *Timer) Report() Report {
	total := t.Total()
	t.mu.Lock()
	defer t.mu.Unlock()
	report := Report{TotalMS: millis(total), Phases: make([]PhaseReport, len(t.phases))}
	for i, p := range t.phases {
		report.Phases[i] = PhaseReport{
			Name:       p.Name,
			Depth:      t.depth[i],
			DurationMS: millis(p.Dur),
			Note:       p.Note,
		}
	}
	return report
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
