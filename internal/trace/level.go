package trace

import (
	"fmt"
	"slices"
	"strings"
)

// Level controls tracing verbosity.
type Level uint8

const (
	LevelOff    Level = iota
	LevelError        // nothing streamed; the ring is dumped on ICE
	LevelPhase        // driver stages and passes
	LevelDetail       // plus per-unit events
	LevelDebug        // plus per-function work
)

var levelNames = [...]string{"off", "error", "phase", "detail", "debug"}

// widest admitted scope per level; 0 admits nothing.
var levelScope = [...]Scope{0, 0, ScopePass, ScopeModule, ScopeNode}

func (l Level) String() string {
	if int(l) < len(levelNames) {
		return levelNames[l]
	}
	return "unknown"
}

// ParseLevel converts a --trace-level value; case is ignored.
func ParseLevel(s string) (Level, error) {
	if i := slices.Index(levelNames[:], strings.ToLower(s)); i >= 0 {
		return Level(i), nil
	}
	return LevelOff, fmt.Errorf("invalid trace level %q (want %s)", s, strings.Join(levelNames[:], "|"))
}

// ShouldEmit reports whether events of scope are recorded at level l.
func (l Level) ShouldEmit(scope Scope) bool {
	return int(l) < len(levelScope) && scope != 0 && scope <= levelScope[l]
}
