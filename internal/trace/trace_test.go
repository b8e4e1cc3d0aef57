package trace_test

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"restruct/internal/trace"
)

func TestLevelShouldEmit(t *testing.T) {
	tests := []struct {
		level trace.Level
		scope trace.Scope
		want  bool
	}{
		{trace.LevelOff, trace.ScopeDriver, false},
		{trace.LevelPhase, trace.ScopePass, true},
		{trace.LevelPhase, trace.ScopeFunc, false},
		{trace.LevelDetail, trace.ScopeFunc, true},
		{trace.LevelDetail, trace.ScopeNode, false},
		{trace.LevelDebug, trace.ScopeNode, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
}

func TestStartFuncTagsNestedEvents(t *testing.T) {
	ring := trace.NewRingTracer(16, trace.LevelDebug)
	ctx := trace.WithTracer(context.Background(), ring)

	ctx, pass := trace.Start(ctx, trace.ScopePass, "lower-module:calc")
	fctx, fn := trace.StartFunc(ctx, "add")
	trace.Point(trace.FromContext(fctx), trace.CurrentSpan(fctx), trace.Event{Scope: trace.ScopeNode, Name: "loop", Detail: "while1"})
	fn.WithExtra("blocks", "4").End("ok")
	pass.End("")

	events := ring.Snapshot()
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	if events[0].Func != "" {
		t.Fatalf("module span carries func %q", events[0].Func)
	}
	if events[1].ParentID != pass.ID() || events[1].Func != "add" {
		t.Fatalf("func span = %+v", events[1])
	}
	point := events[2]
	if point.Kind != trace.KindPoint || point.ParentID != fn.ID() || point.Func != "add" {
		t.Fatalf("point = %+v", point)
	}
	end := events[3]
	if end.Kind != trace.KindSpanEnd || end.Extra["blocks"] != "4" || end.Detail != "ok" {
		t.Fatalf("unexpected end event: %+v", end)
	}
	if trace.CurrentSpan(ctx).Func != "" {
		t.Fatal("StartFunc leaked the function into the parent context")
	}
}

func TestDisabledScopesKeepParent(t *testing.T) {
	ring := trace.NewRingTracer(8, trace.LevelPhase)
	ctx := trace.WithTracer(context.Background(), ring)
	ctx, pass := trace.Start(ctx, trace.ScopePass, "decode")
	fctx, fn := trace.StartFunc(ctx, "add")
	if fn.ID() != 0 {
		t.Fatal("func span should be disabled at phase level")
	}
	if trace.CurrentSpan(fctx).SpanID != pass.ID() {
		t.Fatal("a disabled span replaced the parent")
	}
	fn.End("")
	pass.End("")
	if ring.Len() != 2 {
		t.Fatalf("ring holds %d events, want 2", ring.Len())
	}
}

func TestRingWrapsInOrder(t *testing.T) {
	ring := trace.NewRingTracer(3, trace.LevelDebug)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		trace.Point(ring, trace.SpanContext{}, trace.Event{Scope: trace.ScopeDriver, Name: name})
	}
	if ring.Len() != 3 {
		t.Fatalf("len = %d, want 3", ring.Len())
	}
	var names []string
	for _, ev := range ring.Snapshot() {
		names = append(names, ev.Name)
	}
	if got := strings.Join(names, ","); got != "c,d,e" {
		t.Fatalf("snapshot order = %s, want c,d,e", got)
	}

	var buf bytes.Buffer
	if err := ring.Dump(&buf, trace.FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if n := strings.Count(buf.String(), "\n"); n != 3 {
		t.Fatalf("dump has %d lines, want 3", n)
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{
		Level:  trace.LevelPhase,
		Mode:   trace.ModeStream,
		Format: trace.FormatNDJSON,
		Output: &buf,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sp := trace.Begin(tr, trace.ScopeDriver, "lower", trace.SpanContext{})
	trace.Point(tr, sp.Context(), trace.Event{Scope: trace.ScopeFunc, Name: "filtered"})
	sp.End("")
	if err := tr.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2:\n%s", len(lines), buf.String())
	}
	var ev map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ev); err != nil {
		t.Fatalf("bad json: %v", err)
	}
	if ev["kind"] != "begin" || ev["scope"] != "driver" || ev["name"] != "lower" {
		t.Fatalf("unexpected event: %v", ev)
	}
}

func TestNewBothKeepsRing(t *testing.T) {
	var buf bytes.Buffer
	tr, err := trace.New(trace.Config{Level: trace.LevelPhase, Mode: trace.ModeBoth, Output: &buf, RingSize: 4})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	trace.Begin(tr, trace.ScopePass, "decode", trace.SpanContext{}).End("")
	if err := tr.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	ring := trace.RingOf(tr)
	if ring == nil || ring.Len() != 2 {
		t.Fatalf("ring = %v", ring)
	}
	if !strings.Contains(buf.String(), "decode") {
		t.Fatalf("stream output = %q", buf.String())
	}
}

func TestNewOffReturnsNop(t *testing.T) {
	tr, err := trace.New(trace.Config{Level: trace.LevelOff})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if tr.Enabled() {
		t.Fatalf("nop tracer should be disabled")
	}
	if trace.FromContext(context.Background()) != trace.Nop {
		t.Fatalf("empty context should yield Nop")
	}
}

type recorder struct {
	mu     sync.Mutex
	events []trace.Event
}

func (r *recorder) Emit(ev *trace.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, *ev)
}
func (r *recorder) Flush() error       { return nil }
func (r *recorder) Close() error       { return nil }
func (r *recorder) Level() trace.Level { return trace.LevelPhase }
func (r *recorder) Enabled() bool      { return true }
func (r *recorder) snapshot() []trace.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]trace.Event(nil), r.events...)
}

func TestHeartbeatReportsStatus(t *testing.T) {
	rec := &recorder{}
	hb := trace.StartHeartbeat(rec, time.Millisecond, func() string { return "1/2 functions" })
	deadline := time.Now().Add(2 * time.Second)
	for len(rec.snapshot()) == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	hb.Stop()
	hb.Stop()

	events := rec.snapshot()
	if len(events) == 0 {
		t.Fatal("no heartbeat within 2s")
	}
	if events[0].Kind != trace.KindHeartbeat || events[0].Detail != "1/2 functions" || events[0].Extra["beat"] != "1" {
		t.Fatalf("heartbeat = %+v", events[0])
	}
	if trace.StartHeartbeat(trace.Nop, time.Millisecond, nil) != nil {
		t.Fatal("heartbeat started for a disabled tracer")
	}
}

func TestParseLevelModeFormat(t *testing.T) {
	if l, err := trace.ParseLevel("DETAIL"); err != nil || l != trace.LevelDetail {
		t.Fatalf("ParseLevel = %v, %v", l, err)
	}
	if _, err := trace.ParseLevel("verbose"); err == nil {
		t.Fatalf("expected error")
	}
	if m, err := trace.ParseMode("both"); err != nil || m != trace.ModeBoth {
		t.Fatalf("ParseMode = %v, %v", m, err)
	}
	if m, err := trace.ParseMode(""); err != nil || m != trace.ModeStream {
		t.Fatalf("ParseMode(\"\") = %v, %v", m, err)
	}
	if f, err := trace.ParseFormat("json"); err != nil || f != trace.FormatNDJSON {
		t.Fatalf("ParseFormat = %v, %v", f, err)
	}
}
