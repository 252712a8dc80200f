package driver

import "time"

// State is the position of a CompileUnit in the pipeline. States only move
// forward; Failed is absorbing.
type State uint8

const (
	StateInit State = iota
	StateTokenized
	StateParsed
	StateLowered
	StateVerified
	StatePassed // repeated once per pass batch
	StateGenerated
	StateLinked
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "Init"
	case StateTokenized:
		return "Tokenized"
	case StateParsed:
		return "Parsed"
	case StateLowered:
		return "Lowered"
	case StateVerified:
		return "Verified"
	case StatePassed:
		return "Passed"
	case StateGenerated:
		return "Generated"
	case StateLinked:
		return "Linked"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	}
	return "unknown"
}

// Transition is one recorded state change.
type Transition struct {
	From, To State
	At       time.Time
	Note     string
}

// canMove reports whether from -> to is a legal transition. Passed may
// repeat, Done may follow any non-failed state (stop-early requests), and
// every state may fail.
func canMove(from, to State) bool {
	switch {
	case from == StateFailed || from == StateDone:
		return false
	case to == StateFailed || to == StateDone:
		return true
	case from == StatePassed && to == StatePassed:
		return true
	}
	return to > from
}
