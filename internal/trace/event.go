package trace

import "time"

// Kind is what an Event marks.
type Kind uint8

const (
	KindSpanBegin Kind = iota + 1
	KindSpanEnd
	KindPoint
	KindHeartbeat
)

var kindNames = [...]string{
	KindSpanBegin: "begin",
	KindSpanEnd:   "end",
	KindPoint:     "point",
	KindHeartbeat: "heartbeat",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "unknown"
}

// Scope is the granularity of an event; a Level admits every scope up to
// its own (see Level.ShouldEmit).
type Scope uint8

const (
	ScopeDriver Scope = iota + 1 // one compile unit or CLI command
	ScopePass                    // a driver stage or one IR pass
	ScopeModule                  // state transitions of a unit
	ScopeNode                    // per-function work inside a pass
)

var scopeNames = [...]string{
	ScopeDriver: "driver",
	ScopePass:   "pass",
	ScopeModule: "module",
	ScopeNode:   "node",
}

func (s Scope) String() string {
	if int(s) < len(scopeNames) && scopeNames[s] != "" {
		return scopeNames[s]
	}
	return "unknown"
}

// Event is one trace record. Seq orders events across goroutines; GID tells
// concurrent units apart in the Chrome view.
type Event struct {
	Time     time.Time
	Seq      uint64
	Kind     Kind
	Scope    Scope
	SpanID   uint64
	ParentID uint64 // 0 for a root span
	GID      uint64
	Name     string // "parse", "pass loop_lowering", "state Parsed", ...
	Detail   string
	Extra    map[string]string
}
