package trace

import (
	"context"
	"sync/atomic"
	"time"
)

var (
	seqCounter  atomic.Uint64
	spanCounter atomic.Uint64
)

// NextSeq returns a process-wide increasing sequence number.
func NextSeq() uint64 { return seqCounter.Add(1) }

// NextSpanID returns a fresh span ID. IDs start at 1; 0 means no parent.
func NextSpanID() uint64 { return spanCounter.Add(1) }

// Span is an open interval of work. A disabled span has a nil tracer and
// every method on it is a no-op.
type Span struct {
	tracer  Tracer
	ctx     SpanContext
	parent  uint64
	scope   Scope
	name    string
	started time.Time
	extra   map[string]string
}

var disabled = &Span{}

// Begin opens a span below parent and emits its begin event.
func Begin(t Tracer, scope Scope, name string, parent SpanContext) *Span {
	if t == nil || !t.Level().ShouldEmit(scope) {
		return disabled
	}
	s := &Span{
		tracer:  t,
		ctx:     SpanContext{SpanID: NextSpanID(), Func: parent.Func},
		parent:  parent.SpanID,
		scope:   scope,
		name:    name,
		started: time.Now(),
	}
	s.emit(KindSpanBegin, "", nil)
	return s
}

func (s *Span) emit(kind Kind, detail string, extra map[string]string) {
	s.tracer.Emit(&Event{
		Time:     time.Now(),
		Seq:      NextSeq(),
		Kind:     kind,
		Scope:    s.scope,
		SpanID:   s.ctx.SpanID,
		ParentID: s.parent,
		Func:     s.ctx.Func,
		Name:     s.name,
		Detail:   detail,
		Extra:    extra,
	})
}

// End emits the end event and returns the span's duration.
func (s *Span) End(detail string) time.Duration {
	if s == nil || s.tracer == nil {
		return 0
	}
	s.emit(KindSpanEnd, detail, s.extra)
	return time.Since(s.started)
}

// WithExtra attaches a key-value pair to the end event.
func (s *Span) WithExtra(key, value string) *Span {
	if s == nil || s.tracer == nil {
		return s
	}
	if s.extra == nil {
		s.extra = make(map[string]string, 2)
	}
	s.extra[key] = value
	return s
}

// ID returns the span ID, 0 for a disabled span.
func (s *Span) ID() uint64 {
	if s == nil {
		return 0
	}
	return s.ctx.SpanID
}

// Context returns the SpanContext children of s should use.
func (s *Span) Context() SpanContext {
	if s == nil {
		return SpanContext{}
	}
	return s.ctx
}

// Start opens a span with the tracer and parent found in ctx and returns a
// context in which it is the parent.
func Start(ctx context.Context, scope Scope, name string) (context.Context, *Span) {
	st := stateOf(ctx)
	s := Begin(st.tracer, scope, name, st.span)
	if s == disabled {
		return ctx, s
	}
	return WithSpanContext(ctx, s.ctx), s
}

// StartFunc opens the function-scope span for lowering fn. Spans and points
// below it carry fn in Event.Func.
func StartFunc(ctx context.Context, fn string) (context.Context, *Span) {
	st := stateOf(ctx)
	parent := st.span
	parent.Func = fn
	s := Begin(st.tracer, ScopeFunc, "lower", parent)
	if s == disabled {
		return ctx, s
	}
	return WithSpanContext(ctx, s.ctx), s
}

// Point emits an instant event below parent. ev supplies Scope, Name,
// Detail and Extra; the rest is filled in.
func Point(t Tracer, parent SpanContext, ev Event) {
	if t == nil || !t.Level().ShouldEmit(ev.Scope) {
		return
	}
	ev.Time = time.Now()
	ev.Seq = NextSeq()
	ev.Kind = KindPoint
	ev.SpanID = NextSpanID()
	ev.ParentID = parent.SpanID
	if ev.Func == "" {
		ev.Func = parent.Func
	}
	t.Emit(&ev)
}
