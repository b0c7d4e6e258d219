package driver

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageParse covers reading .affine files and interning their maps.
	StageParse Stage = "parse"
	// StageIntern covers assembling parsed maps into an IR module.
	StageIntern Stage = "intern"
	// StageVerify covers module verification.
	StageVerify Stage = "verify"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task finished cleanly.
	StatusDone Status = "done"
	// StatusError indicates the task failed.
	StatusError Status = "error"
)

// Event reports progress for a file, or for the overall run when File is
// empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. Implementations must be safe for
// concurrent OnEvent calls; the driver reports from its worker goroutines.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

// emit forwards evt to sink when one is configured.
func emit(sink ProgressSink, evt Event) {
	if sink != nil {
		sink.OnEvent(evt)
	}
}
