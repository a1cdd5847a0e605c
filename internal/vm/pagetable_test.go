package vm

import (
	"testing"

	"rv39kernel/internal/mem"
)

func freshFrames(t *testing.T) {
	t.Helper()
	mem.InitFrameAllocator(0)
}

func TestPageTableMapTranslateUnmap(t *testing.T) {
	freshFrames(t)
	pt, err := NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	defer pt.Destroy()

	va := VA(0x1000)
	if err := pt.Map(va, 77, FlagV|FlagR|FlagW); err != nil {
		t.Fatalf("Map: %v", err)
	}

	pte, ok := pt.Translate(va)
	if !ok {
		t.Fatal("Translate failed for a mapped page")
	}
	if pte.PPN() != 77 {
		t.Fatalf("Translate PPN = %d, want 77", pte.PPN())
	}

	pt.Unmap(va)
	if _, ok := pt.Translate(va); ok {
		t.Fatal("Translate should fail after Unmap")
	}
}

func TestPageTableRemapPanics(t *testing.T) {
	freshFrames(t)
	pt, err := NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	defer pt.Destroy()

	va := VA(0x2000)
	if err := pt.Map(va, 1, FlagV|FlagR); err != nil {
		t.Fatalf("Map: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic remapping an already-valid page")
		}
	}()
	pt.Map(va, 2, FlagV|FlagR)
}

func TestPageTableUnmapUnmappedPanics(t *testing.T) {
	freshFrames(t)
	pt, err := NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	defer pt.Destroy()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic unmapping a page with no mapping")
		}
	}()
	pt.Unmap(VA(0x3000))
}

func TestPageTableTranslateMissingReturnsFalse(t *testing.T) {
	freshFrames(t)
	pt, err := NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	defer pt.Destroy()

	if _, ok := pt.Translate(VA(0x4000)); ok {
		t.Fatal("Translate should fail for an address with no mapping")
	}
}

func TestFromTokenRoundTripsSatp(t *testing.T) {
	freshFrames(t)
	pt, err := NewPageTable()
	if err != nil {
		t.Fatalf("NewPageTable: %v", err)
	}
	defer pt.Destroy()

	if err := pt.Map(VA(0x5000), 9, FlagV|FlagR); err != nil {
		t.Fatalf("Map: %v", err)
	}

	view := FromToken(pt.Satp())
	pte, ok := view.Translate(VA(0x5000))
	if !ok || pte.PPN() != 9 {
		t.Fatalf("view.Translate = %v, %v, want ppn 9, true", pte, ok)
	}
}

func TestFromTokenAllocPanics(t *testing.T) {
	freshFrames(t)
	view := FromToken(8<<60 | 0)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic allocating through a non-owning view")
		}
	}()
	view.walk(VA(0x1000), true)
}
