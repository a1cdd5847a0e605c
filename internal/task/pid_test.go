package task

import "testing"

func TestPIDAllocatorAllocIsMonotonicAndRecycles(t *testing.T) {
	p := &PIDAllocator{}
	a := p.Alloc()
	b := p.Alloc()
	if a == b {
		t.Fatalf("two allocations returned the same pid %d", a)
	}
	p.Dealloc(a)
	c := p.Alloc()
	if c != a {
		t.Fatalf("Alloc after Dealloc = %d, want recycled %d", c, a)
	}
}

func TestPIDAllocatorDeallocUnallocatedPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic freeing a never-allocated pid")
		}
	}()
	p := &PIDAllocator{}
	p.Dealloc(5)
}

func TestPIDAllocatorDoubleFreePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double free")
		}
	}()
	p := &PIDAllocator{}
	pid := p.Alloc()
	p.Dealloc(pid)
	p.Dealloc(pid)
}

func TestAllocPIDGlobalRoundTrip(t *testing.T) {
	pid := AllocPID()
	FreePID(pid)
}
