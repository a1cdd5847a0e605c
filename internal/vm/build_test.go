package vm

import (
	"testing"

	"rv39kernel/internal/config"
	"rv39kernel/internal/mem"
)

func TestNewKernelSpaceMapsSegmentsAndTrampoline(t *testing.T) {
	mem.InitFrameAllocator(0)
	SetTrampolineFrame(mem.PPN(1 << 20))

	ks, err := NewKernelSpace(config.KernelTextEnd, config.KernelRodataEnd, config.KernelDataEnd)
	if err != nil {
		t.Fatalf("NewKernelSpace: %v", err)
	}
	defer ks.Destroy()

	// Identity-mapped regions point straight at their own physical
	// address rather than an AllocFrame-backed page, so only the page
	// table's PTE is checked here; MemorySet.Translate additionally
	// resolves through mem's frame-handle-backed dmap, which identity
	// mappings never populate.
	textPTE, ok := ks.PageTable().Translate(VA(config.KernelBase))
	if !ok || textPTE.PPN() != uint64(mem.PPNFromAddr(config.KernelBase)) {
		t.Fatalf("kernel text start not identity-mapped: pte=%v ok=%v", textPTE, ok)
	}
	uartPTE, ok := ks.PageTable().Translate(VA(config.UARTBase))
	if !ok || uartPTE.PPN() != uint64(mem.PPNFromAddr(config.UARTBase)) {
		t.Fatalf("UART MMIO window not identity-mapped: pte=%v ok=%v", uartPTE, ok)
	}
	if _, ok := ks.PageTable().Translate(VA(config.Trampoline)); !ok {
		t.Fatal("trampoline page not mapped in the kernel address space")
	}
}

func TestFromExistedUserClonesFramedContents(t *testing.T) {
	mem.InitFrameAllocator(0)
	SetTrampolineFrame(mem.PPN(1 << 20))

	src, err := NewMemorySet()
	if err != nil {
		t.Fatalf("NewMemorySet: %v", err)
	}
	defer src.Destroy()

	ma := NewFramed(VA(0x1000), VA(0x1000+config.PageSize), FlagR|FlagW|FlagU)
	if err := src.Insert(ma); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := src.UserCopyOut(VA(0x1000), []byte("clone me")); err != nil {
		t.Fatalf("UserCopyOut: %v", err)
	}

	dst, err := FromExistedUser(src)
	if err != nil {
		t.Fatalf("FromExistedUser: %v", err)
	}
	defer dst.Destroy()

	got := make([]byte, len("clone me"))
	if err := dst.UserCopyIn(got, VA(0x1000)); err != nil {
		t.Fatalf("UserCopyIn from clone: %v", err)
	}
	if string(got) != "clone me" {
		t.Fatalf("clone contents = %q, want %q", got, "clone me")
	}

	// Mutating the source after cloning must not affect the clone: frames
	// are copied, not shared.
	if err := src.UserCopyOut(VA(0x1000), []byte("mutated!")); err != nil {
		t.Fatalf("UserCopyOut to source: %v", err)
	}
	got2 := make([]byte, len("clone me"))
	if err := dst.UserCopyIn(got2, VA(0x1000)); err != nil {
		t.Fatalf("UserCopyIn from clone after source mutation: %v", err)
	}
	if string(got2) != "clone me" {
		t.Fatalf("clone contents changed after mutating source: %q", got2)
	}
}
