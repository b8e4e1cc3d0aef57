package trace

import (
	"strconv"
	"sync"
	"time"
)

// Heartbeat emits a driver-scope event at a fixed interval. Its detail is
// the status callback's answer, such as "3/10 functions"; a stream of
// heartbeats with no span ends points at a function that does not finish.
type Heartbeat struct {
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// StartHeartbeat returns nil when tracing is off or interval is not
// positive. status may be nil.
func StartHeartbeat(tracer Tracer, interval time.Duration, status func() string) *Heartbeat {
	if tracer == nil || !tracer.Enabled() || interval <= 0 {
		return nil
	}
	h := &Heartbeat{stop: make(chan struct{}), done: make(chan struct{})}
	go h.run(tracer, interval, status)
	return h
}

func (h *Heartbeat) run(tracer Tracer, interval time.Duration, status func() string) {
	defer close(h.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for beat := 1; ; beat++ {
		select {
		case <-h.stop:
			return
		case now := <-ticker.C:
			ev := &Event{
				Time:  now,
				Seq:   NextSeq(),
				Kind:  KindHeartbeat,
				Scope: ScopeDriver,
				Name:  "heartbeat",
				Extra: map[string]string{"beat": strconv.Itoa(beat)},
			}
			if status != nil {
				ev.Detail = status()
			}
			tracer.Emit(ev)
		}
	}
}

// Stop ends the heartbeat and waits for its goroutine. Safe on nil and
// safe to call twice.
func (h *Heartbeat) Stop() {
	if h == nil {
		return
	}
	h.once.Do(func() { close(h.stop) })
	<-h.done
}
