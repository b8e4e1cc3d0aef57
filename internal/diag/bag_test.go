package diag_test

import (
	"sync"
	"testing"

	"restruct/internal/diag"
)

func TestBagLimitAndDropped(t *testing.T) {
	b := diag.NewBag(2)
	loc := diag.FuncLocation("f")
	for i := 0; i < 4; i++ {
		b.Add(diag.NewWarning(diag.LowUnknownPattern, loc, "x"))
	}
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
	if b.Dropped() != 2 {
		t.Fatalf("dropped = %d, want 2", b.Dropped())
	}
	if !b.HasWarnings() || b.HasErrors() {
		t.Fatalf("unexpected severity flags")
	}
}

func TestBagConcurrentAdd(t *testing.T) {
	b := diag.NewBag(0)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Add(diag.NewWarning(diag.LowInfo, diag.FuncLocation("f"), "m"))
		}()
	}
	wg.Wait()
	if b.Len() != 16 {
		t.Fatalf("len = %d, want 16", b.Len())
	}
}

func TestBagSortAndDedup(t *testing.T) {
	b := diag.NewBag(0)
	b.Add(diag.NewWarning(diag.LowForeignPlatform, diag.InstrLocation("g", "entry", 1), "b"))
	b.Add(diag.NewWarning(diag.LowUnknownPattern, diag.BlockLocation("f", "sw0"), "a"))
	b.Add(diag.NewError(diag.LowUnknownPattern, diag.BlockLocation("f", "sw0"), "a"))
	b.Add(diag.NewWarning(diag.LowUnknownPattern, diag.BlockLocation("f", "sw0"), "a"))
	b.Dedup()
	if b.Len() != 3 {
		t.Fatalf("len after dedup = %d, want 3", b.Len())
	}
	b.Sort()
	items := b.Items()
	if items[0].Severity != diag.SevError || items[0].Primary.Func != "f" {
		t.Fatalf("first item = %+v", items[0])
	}
	if items[2].Primary.Func != "g" {
		t.Fatalf("last item = %+v", items[2])
	}
}

func TestDedupReporter(t *testing.T) {
	b := diag.NewBag(0)
	r := diag.NewDedupReporter(diag.BagReporter{Bag: b})
	loc := diag.BlockLocation("f", "bb1")
	diag.ReportWarning(r, diag.LowErasedNoName, loc, "phi v3").Emit()
	diag.ReportWarning(r, diag.LowErasedNoName, loc, "phi v3").Emit()
	diag.ReportWarning(r, diag.LowErasedNoName, loc, "phi v4").WithNote(loc, "used here").Emit()
	if b.Len() != 2 {
		t.Fatalf("len = %d, want 2", b.Len())
	}
	if n := len(b.Items()[1].Notes); n != 1 {
		t.Fatalf("notes = %d, want 1", n)
	}
}

func TestReportBuilderEmitsOnce(t *testing.T) {
	b := diag.NewBag(0)
	rb := diag.ReportWarning(diag.BagReporter{Bag: b}, diag.LowInfo, diag.FuncLocation("f"), "m")
	rb.Emit()
	rb.Emit()
	if b.Len() != 1 {
		t.Fatalf("len = %d, want 1", b.Len())
	}
}
