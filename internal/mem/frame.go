package mem

import (
	"fmt"

	"rv39kernel/internal/cell"
	"rv39kernel/internal/config"
)

// PPN is a physical page number.
type PPN uint64

// Addr returns the physical address of the start of the page.
func (p PPN) Addr() uint64 {
	return uint64(p) << config.PageShift
}

// PPNFromAddr floors a physical address to its page number.
func PPNFromAddr(addr uint64) PPN {
	return PPN(addr >> config.PageShift)
}

// PPNCeil rounds a physical address up to the next page number.
func PPNCeil(addr uint64) PPN {
	return PPN((addr + config.PageSize - 1) >> config.PageShift)
}

// FrameAllocator is a bump cursor over [current, end) plus a LIFO stack
// of recycled PPNs.
type FrameAllocator struct {
	base     PPN
	current  PPN
	end      PPN
	recycled []PPN
}

// NewFrameAllocator creates an uninitialized allocator.
func NewFrameAllocator() *FrameAllocator {
	return &FrameAllocator{}
}

// Init fixes the allocatable PPN range to [start, end).
func (f *FrameAllocator) Init(start, end PPN) {
	f.base = start
	f.current = start
	f.end = end
	f.recycled = nil
}

// Alloc pops the recycled stack first, else bumps current, else fails.
func (f *FrameAllocator) Alloc() (PPN, bool) {
	if n := len(f.recycled); n > 0 {
		ppn := f.recycled[n-1]
		f.recycled = f.recycled[:n-1]
		return ppn, true
	}
	if f.current == f.end {
		return 0, false
	}
	ppn := f.current
	f.current++
	return ppn, true
}

// Dealloc returns ppn to the recycled stack. A double-free or a free of a
// PPN never handed out is a programmer bug and panics.
func (f *FrameAllocator) Dealloc(ppn PPN) {
	if ppn >= f.current {
		panic(fmt.Sprintf("mem: frame %#x was never allocated", ppn.Addr()))
	}
	for _, r := range f.recycled {
		if r == ppn {
			panic(fmt.Sprintf("mem: double free of frame %#x", ppn.Addr()))
		}
	}
	f.recycled = append(f.recycled, ppn)
}

// Counts reports (allocated, recycled, remaining); the invariant
// allocated + recycled + remaining == initial capacity should always
// hold.
func (f *FrameAllocator) Counts() (allocated, recycled, remaining int) {
	allocated = int(f.current-f.base) - len(f.recycled)
	return allocated, len(f.recycled), int(f.end - f.current)
}

// Frames is the global physical frame allocator singleton.
var Frames = cell.New(*NewFrameAllocator())

// InitFrameAllocator fixes the allocatable region as current = ceil(end
// of the kernel image), end = floor(MemoryEnd), both in PPN units.
func InitFrameAllocator(kernelEnd uint64) {
	h := Frames.Borrow()
	defer h.Drop()
	h.Get().Init(PPNCeil(kernelEnd), PPNFromAddr(config.MemoryEnd))
}

// FrameHandle is an owning handle to a single zeroed physical frame; its
// destructor (Drop) returns the frame to the allocator. Go has no RAII
// destructors, so call sites must call Drop explicitly at every point a
// scope exit would otherwise do it, notably memory-set recycle and
// fork-clone teardown.
type FrameHandle struct {
	PPN PPN
	bk  *backingPage
}

// backingPage is the kernel's view of frame content: a 4 KiB slab.
// On real hardware this would be a Dmap-style direct-mapped VA pointing
// at physical memory (biscuit's Physmem.Dmap) and does not need a
// separate allocation; modeled here as owned storage so the rest of the
// kernel can operate on the frame's bytes without a true direct map.
type backingPage [config.PageSize]byte

// dmap stands in for the real kernel's direct map: a table from PPN to
// the backing bytes of every frame currently on loan, so that any
// holder of a bare PPN (not just the FrameHandle that allocated it) can
// resolve it to memory. Real hardware needs no such table because
// physical memory is addressable directly; this kernel fakes that with
// per-frame Go allocations instead, so Resolve plays the role of
// biscuit's Physmem.Dmap.
var dmap = map[PPN]*backingPage{}

// AllocFrame allocates and zeroes a frame, wrapping it in an owning
// handle.
func AllocFrame() (*FrameHandle, bool) {
	h := Frames.Borrow()
	defer h.Drop()
	ppn, ok := h.Get().Alloc()
	if !ok {
		return nil, false
	}
	bk := &backingPage{}
	dmap[ppn] = bk
	return &FrameHandle{PPN: ppn, bk: bk}, true
}

// Resolve returns the backing bytes of any frame currently on loan from
// the allocator, regardless of which FrameHandle owns it.
func Resolve(ppn PPN) (*[config.PageSize]byte, bool) {
	bk, ok := dmap[ppn]
	if !ok {
		return nil, false
	}
	return (*[config.PageSize]byte)(bk), true
}

// Bytes returns the frame's backing storage.
func (fh *FrameHandle) Bytes() *[config.PageSize]byte {
	return (*[config.PageSize]byte)(fh.bk)
}

// Drop releases the frame back to the allocator. Safe to call at most
// once; a second call panics as a double-free, matching Dealloc.
func (fh *FrameHandle) Drop() {
	h := Frames.Borrow()
	defer h.Drop()
	h.Get().Dealloc(fh.PPN)
	delete(dmap, fh.PPN)
}
