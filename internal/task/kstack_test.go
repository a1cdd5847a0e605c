package task

import (
	"testing"

	"rv39kernel/internal/config"
	"rv39kernel/internal/mem"
	"rv39kernel/internal/vm"
)

func TestKernelStackRangeDescendsWithGuardPages(t *testing.T) {
	b0, t0 := kernelStackRange(0)
	_, t1 := kernelStackRange(1)

	if t0 != vm.VA(config.Trampoline) {
		t.Fatalf("pid 0 top = %#x, want trampoline %#x", t0, config.Trampoline)
	}
	if t0-b0 != vm.VA(config.KernelStackSize) {
		t.Fatalf("stack size = %#x, want %#x", t0-b0, config.KernelStackSize)
	}
	if b0-t1 != vm.VA(config.GuardPageSize) {
		t.Fatalf("gap between pid 0 bottom and pid 1 top = %#x, want one guard page", b0-t1)
	}
}

func TestMapAndUnmapKernelStack(t *testing.T) {
	mem.InitFrameAllocator(0)

	kernel, err := vm.NewMemorySet()
	if err != nil {
		t.Fatalf("NewMemorySet: %v", err)
	}

	top, err := MapKernelStack(kernel, 3)
	if err != nil {
		t.Fatalf("MapKernelStack: %v", err)
	}
	_, wantTop := kernelStackRange(3)
	if top != wantTop {
		t.Fatalf("MapKernelStack top = %#x, want %#x", top, wantTop)
	}

	UnmapKernelStack(kernel, 3)
}

func TestUnmapKernelStackWithoutMapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic unmapping a kernel stack that was never mapped")
		}
	}()
	mem.InitFrameAllocator(0)
	kernel, err := vm.NewMemorySet()
	if err != nil {
		t.Fatalf("NewMemorySet: %v", err)
	}
	UnmapKernelStack(kernel, 99)
}
