package driver

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Stage describes a phase of lowering a module.
type Stage string

const (
	StageDecode Stage = "decode"
	StageLower  Stage = "lower"
)

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusError   Status = "error"
)

// Event reports progress for a function, or for the whole module when Func
// is empty.
type Event struct {
	Func    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// Sink receives progress events. Events for different functions arrive
// from different goroutines.
type Sink interface {
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

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

func (f SinkFunc) OnEvent(evt Event) { f(evt) }

func emit(s Sink, evt Event) {
	if s != nil {
		s.OnEvent(evt)
	}
}

type teeSink []Sink

func (t teeSink) OnEvent(evt Event) {
	for _, s := range t {
		s.OnEvent(evt)
	}
}

// Tee forwards every event to each non-nil sink.
func Tee(sinks ...Sink) Sink {
	out := make(teeSink, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// Progress counts queued and finished functions. It is safe for
// concurrent use.
type Progress struct {
	queued   atomic.Int64
	finished atomic.Int64
}

func (p *Progress) OnEvent(evt Event) {
	if evt.Func == "" {
		return
	}
	switch evt.Status {
	case StatusQueued:
		p.queued.Add(1)
	case StatusDone, StatusCached, StatusError:
		p.finished.Add(1)
	}
}

// Reset zeroes the counters before another run.
func (p *Progress) Reset() {
	p.queued.Store(0)
	p.finished.Store(0)
}

func (p *Progress) String() string {
	return fmt.Sprintf("%d/%d functions", p.finished.Load(), p.queued.Load())
}
