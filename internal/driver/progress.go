package driver

import "time"

// Status is the progress of one unit inside its current state.
type Status uint8

const (
	StatusQueued Status = iota
	StatusWorking
	StatusDone
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusWorking:
		return "working"
	case StatusDone:
		return "done"
	case StatusError:
		return "error"
	}
	return "unknown"
}

// Event reports progress for a file.
type Event struct {
	File    string
	State   State
	Status  Status
	Exit    ExitCode
	Elapsed time.Duration
}

// ProgressSink consumes progress events; OnEvent may be called from several
// goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel. A nil channel drops them.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(ev Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- ev
}

func (env *Env) emit(ev Event) {
	if env != nil && env.Progress != nil {
		env.Progress.OnEvent(ev)
	}
}
