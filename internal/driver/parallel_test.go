package driver_test

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"restruct/internal/driver"
	"restruct/internal/ir"
	"restruct/internal/observ"
)

// addFunc builds `name(a, b) { r = a + b; return r }`.
func addFunc(name string) *ir.Func {
	b := ir.NewBuilder(name)
	b.Param("a", ir.IntType)
	b.Param("b", ir.IntType)
	b.Local("r", ir.IntType)
	entry := b.Block("entry")
	sum := b.Binary(entry, "r", ir.OpAdd, b.Var(entry, "a", ir.IntType), b.Var(entry, "b", ir.IntType))
	b.Return(entry, sum)
	return b.Func()
}

func brokenFunc(name string) *ir.Func {
	b := ir.NewBuilder(name)
	b.Block("entry")
	return b.Func()
}

func testModule() *ir.Module {
	return &ir.Module{Name: "calc", Funcs: []*ir.Func{addFunc("add"), brokenFunc("broken"), addFunc("plus")}}
}

func TestLowerModuleKeepsGoingAfterErrors(t *testing.T) {
	res, err := driver.LowerModule(context.Background(), testModule(), driver.Options{Jobs: 2})
	if err != nil {
		t.Fatalf("LowerModule: %v", err)
	}
	if len(res.Funcs) != 3 {
		t.Fatalf("got %d results, want 3", len(res.Funcs))
	}
	for i, name := range []string{"add", "broken", "plus"} {
		if res.Funcs[i].Name != name {
			t.Fatalf("result %d is %q, want %q", i, res.Funcs[i].Name, name)
		}
	}
	if !errors.Is(res.Funcs[1].Err, ir.ErrUnterminated) {
		t.Fatalf("broken: err = %v", res.Funcs[1].Err)
	}
	if res.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", res.Failed())
	}
	if got := res.Funcs[0].Text; got != "r = a + b\nreturn r\n" {
		t.Fatalf("add lowered to %q", got)
	}
	if res.Funcs[0].Result == nil || res.Funcs[0].Cached {
		t.Fatal("a fresh lowering should carry its statement tree")
	}
}

func TestLowerModuleSelection(t *testing.T) {
	res, err := driver.LowerModule(context.Background(), testModule(), driver.Options{Funcs: []string{"plus"}})
	if err != nil {
		t.Fatalf("LowerModule: %v", err)
	}
	if len(res.Funcs) != 1 || res.Funcs[0].Name != "plus" {
		t.Fatalf("selected %+v", res.Funcs)
	}

	_, err = driver.LowerModule(context.Background(), testModule(), driver.Options{Funcs: []string{"nope"}})
	if !errors.Is(err, driver.ErrNoSuchFunc) {
		t.Fatalf("err = %v, want ErrNoSuchFunc", err)
	}
}

func TestLowerModuleCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := driver.LowerModule(ctx, testModule(), driver.Options{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestLowerModuleEvents(t *testing.T) {
	var mu sync.Mutex
	counts := map[driver.Status]int{}
	sink := driver.SinkFunc(func(ev driver.Event) {
		mu.Lock()
		defer mu.Unlock()
		counts[ev.Status]++
	})
	timer := observ.NewTimer()
	if _, err := driver.LowerModule(context.Background(), testModule(), driver.Options{Sink: sink, Timer: timer}); err != nil {
		t.Fatalf("LowerModule: %v", err)
	}
	if counts[driver.StatusQueued] != 3 || counts[driver.StatusWorking] != 3 {
		t.Fatalf("events = %v", counts)
	}
	if counts[driver.StatusDone] != 2 || counts[driver.StatusError] != 1 {
		t.Fatalf("events = %v", counts)
	}
	if n := len(timer.Report().Phases); n != 3 {
		t.Fatalf("timer recorded %d phases, want 3", n)
	}
}

func TestLowerModuleCache(t *testing.T) {
	cache, err := driver.OpenCache(t.TempDir())
	if err != nil {
		t.Fatalf("OpenCache: %v", err)
	}
	opts := driver.Options{Cache: cache, Salt: "test"}

	first, err := driver.LowerModule(context.Background(), testModule(), opts)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	second, err := driver.LowerModule(context.Background(), testModule(), opts)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	for i := range second.Funcs {
		f := second.Funcs[i]
		if f.Err != nil {
			if first.Funcs[i].Err == nil {
				t.Fatalf("%s: error only on the second run: %v", f.Name, f.Err)
			}
			continue
		}
		if !f.Cached || f.Result != nil {
			t.Fatalf("%s: expected a cache hit", f.Name)
		}
		if f.Text != first.Funcs[i].Text || f.Visited != first.Funcs[i].Visited {
			t.Fatalf("%s: cached result differs", f.Name)
		}
		if len(f.Decls) != 1 || f.Decls[0].Name != "r" {
			t.Fatalf("%s: cached decls = %+v", f.Name, f.Decls)
		}
	}
	if cache.WriteFailures() != 0 {
		t.Fatalf("cache writes failed: %d", cache.WriteFailures())
	}

	if err := cache.DropAll(); err != nil {
		t.Fatalf("DropAll: %v", err)
	}
	third, err := driver.LowerModule(context.Background(), testModule(), opts)
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if third.Funcs[0].Cached {
		t.Fatal("DropAll left entries behind")
	}
}

func TestFuncKey(t *testing.T) {
	m := testModule()
	k1, err := driver.FuncKey(m, m.Funcs[0], "a")
	if err != nil {
		t.Fatalf("FuncKey: %v", err)
	}
	k2, _ := driver.FuncKey(m, m.Funcs[0], "a")
	k3, _ := driver.FuncKey(m, m.Funcs[0], "b")
	k4, _ := driver.FuncKey(m, m.Funcs[2], "a")
	if k1 != k2 {
		t.Fatal("FuncKey is not deterministic")
	}
	if k1 == k3 || k1 == k4 {
		t.Fatal("FuncKey ignores the salt or the function")
	}
	if k1.IsZero() || len(k1.String()) != 64 {
		t.Fatalf("unexpected digest %s", k1)
	}
}

func TestLowerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "calc.json")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	m := &ir.Module{Name: "calc", Funcs: []*ir.Func{addFunc("add")}}
	if err := ir.Encode(f, m, ir.EncodingJSON); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	timer := observ.NewTimer()
	res, err := driver.LowerFile(context.Background(), path, driver.Options{Timer: timer})
	if err != nil {
		t.Fatalf("LowerFile: %v", err)
	}
	if res.Module != "calc" || len(res.Funcs) != 1 || res.Funcs[0].Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}

	d := driver.TimingDiagnostic(res.Module, timer.Report())
	if len(d.Notes) != 1 {
		t.Fatalf("timing diagnostic has %d notes", len(d.Notes))
	}
	var payload struct {
		Phases []observ.PhaseReport `json:"phases"`
	}
	if err := json.Unmarshal([]byte(d.Notes[0].Msg), &payload); err != nil {
		t.Fatalf("note is not JSON: %v", err)
	}
	if len(payload.Phases) != 2 || !strings.HasPrefix(payload.Phases[1].Name, "lower:") {
		t.Fatalf("phases = %+v", payload.Phases)
	}
}
