package vm

import (
	"fmt"
	"unsafe"

	"rv39kernel/internal/mem"
)

// PageTable owns the root frame of a three-level Sv39 page table plus
// every intermediate-level frame it has allocated along the way. It has
// no notion of an address space's permitted regions; that lives one
// layer up in MemorySet.
type PageTable struct {
	root   mem.PPN
	owning bool
	frames []*mem.FrameHandle // root plus every intermediate frame, for teardown
}

// NewPageTable allocates a zeroed root frame.
func NewPageTable() (*PageTable, error) {
	fh, ok := mem.AllocFrame()
	if !ok {
		return nil, fmt.Errorf("vm: out of physical frames allocating page table root")
	}
	return &PageTable{root: fh.PPN, owning: true, frames: []*mem.FrameHandle{fh}}, nil
}

// FromToken reconstructs a non-owning view of an already-built page
// table from its satp token (bits [43:0] are the root PPN). A view
// built this way must never have Destroy or Map called on it: it
// exists so trap handling can translate addresses through whichever
// task's table satp currently names, without re-deriving it from that
// task's own MemorySet.
func FromToken(satp uint64) *PageTable {
	return &PageTable{root: mem.PPN(satp & ((1 << 44) - 1))}
}

// Satp encodes this table's root as an MMU-ready satp value, mode 8
// (Sv39).
func (pt *PageTable) Satp() uint64 {
	return 8<<60 | uint64(pt.root)
}

// entriesAt returns the 512 PTE slots of the table frame at ppn,
// resolved through the frame allocator's direct map so that both
// owning tables and FromToken views can walk any level.
func entriesAt(ppn mem.PPN) *[512]PTE {
	bk, ok := mem.Resolve(ppn)
	if !ok {
		panic(fmt.Sprintf("vm: page table frame %#x is not a live allocation", ppn.Addr()))
	}
	return (*[512]PTE)(unsafe.Pointer(bk))
}

// walk finds the leaf PTE for va, allocating intermediate-level frames
// on the way down when alloc is true. It returns (nil, nil) if the walk
// hits a missing intermediate level and alloc is false. alloc must
// never be true on a FromToken view, since such a view has nowhere to
// record the new frame for teardown.
func (pt *PageTable) walk(va VA, alloc bool) (*PTE, error) {
	if alloc && !pt.owning {
		panic("vm: cannot allocate through a non-owning page table view")
	}
	ppn := pt.root
	for level := 2; level > 0; level-- {
		entries := entriesAt(ppn)
		idx := va.VPN(level)
		pte := &entries[idx]
		if !pte.IsValid() {
			if !alloc {
				return nil, nil
			}
			fh, ok := mem.AllocFrame()
			if !ok {
				return nil, fmt.Errorf("vm: out of physical frames walking page table")
			}
			pt.frames = append(pt.frames, fh)
			*pte = NewPTE(uint64(fh.PPN), FlagV)
		}
		ppn = mem.PPN(pte.PPN())
	}
	entries := entriesAt(ppn)
	return &entries[va.VPN(0)], nil
}

// Map installs a leaf mapping from the page containing va to ppn with
// flags, allocating intermediate tables as needed. Mapping an
// already-valid leaf is a programmer bug (regions never overlap) and
// panics.
func (pt *PageTable) Map(va VA, ppn mem.PPN, flags PTEFlags) error {
	pte, err := pt.walk(va.Floor(), true)
	if err != nil {
		return err
	}
	if pte.IsValid() {
		panic(fmt.Sprintf("vm: remap of already-valid page at %#x", uint64(va)))
	}
	*pte = NewPTE(uint64(ppn), flags|FlagV)
	return nil
}

// Unmap clears the leaf mapping for the page containing va. Unmapping a
// page with no mapping is a programmer bug and panics.
func (pt *PageTable) Unmap(va VA) {
	pte, err := pt.walk(va.Floor(), false)
	if err != nil {
		panic(err)
	}
	if pte == nil || !pte.IsValid() {
		panic(fmt.Sprintf("vm: unmap of unmapped page at %#x", uint64(va)))
	}
	*pte = 0
}

// Translate resolves va to its PTE, or (0, false) if unmapped.
func (pt *PageTable) Translate(va VA) (PTE, bool) {
	pte, err := pt.walk(va.Floor(), false)
	if err != nil || pte == nil || !pte.IsValid() {
		return 0, false
	}
	return *pte, true
}

// Destroy frees every frame this table owns, root and intermediates
// alike. It must never be called on a FromToken view.
func (pt *PageTable) Destroy() {
	if !pt.owning {
		panic("vm: Destroy called on a non-owning page table view")
	}
	for _, fh := range pt.frames {
		fh.Drop()
	}
	pt.frames = nil
}
