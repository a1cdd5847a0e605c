package vm

import (
	"fmt"

	"rv39kernel/internal/config"
	"rv39kernel/internal/mem"
)

// MapType distinguishes the two ways a MapArea can back its pages,
// generalizing biscuit's mtype_t down to the two kinds this kernel
// needs: no copy-on-write, no file-backed pages, no shared anonymous
// regions.
type MapType int

const (
	// Identical maps VPN == PPN directly; used only for kernel space,
	// where physical and virtual addresses coincide.
	Identical MapType = iota
	// Framed allocates a fresh owned frame per virtual page.
	Framed
)

// MapArea is one contiguous, uniformly-permissioned region of a
// MemorySet, the counterpart of biscuit's Vminfo_t.
type MapArea struct {
	startVA, endVA VA
	mtype          MapType
	flags          PTEFlags
	frames         map[VA]*mem.FrameHandle // only populated for Framed
}

// NewIdentical creates a region mapping [start, end) onto the physical
// addresses of the same value.
func NewIdentical(start, end VA, flags PTEFlags) *MapArea {
	return &MapArea{startVA: start.Floor(), endVA: end.Ceil(), mtype: Identical, flags: flags}
}

// NewFramed creates a region that will own one fresh frame per page
// when mapped.
func NewFramed(start, end VA, flags PTEFlags) *MapArea {
	return &MapArea{
		startVA: start.Floor(), endVA: end.Ceil(), mtype: Framed, flags: flags,
		frames: make(map[VA]*mem.FrameHandle),
	}
}

func (ma *MapArea) mapOne(pt *PageTable, va VA) error {
	switch ma.mtype {
	case Identical:
		return pt.Map(va, mem.PPNFromAddr(uint64(va)), ma.flags)
	case Framed:
		fh, ok := mem.AllocFrame()
		if !ok {
			return fmt.Errorf("vm: out of physical frames mapping %#x", uint64(va))
		}
		ma.frames[va] = fh
		return pt.Map(va, fh.PPN, ma.flags)
	default:
		panic("vm: unknown map type")
	}
}

// Map installs every page of the region into pt.
func (ma *MapArea) Map(pt *PageTable) error {
	for va := ma.startVA; va < ma.endVA; va += VA(config.PageSize) {
		if err := ma.mapOne(pt, va); err != nil {
			return err
		}
	}
	return nil
}

// Unmap removes every page of the region from pt and, for Framed
// regions, returns the owned frames to the allocator.
func (ma *MapArea) Unmap(pt *PageTable) {
	for va := ma.startVA; va < ma.endVA; va += VA(config.PageSize) {
		pt.Unmap(va)
		if ma.mtype == Framed {
			if fh, ok := ma.frames[va]; ok {
				fh.Drop()
				delete(ma.frames, va)
			}
		}
	}
}

// CopyFrom copies len(data) bytes into the region starting at its
// first page, used to load ELF segment contents (Framed regions only).
func (ma *MapArea) CopyFrom(data []byte) {
	if ma.mtype != Framed {
		panic("vm: CopyFrom on a non-framed region")
	}
	off := 0
	for va := ma.startVA; off < len(data); va += VA(config.PageSize) {
		fh := ma.frames[va]
		n := copy(fh.Bytes()[:], data[off:])
		off += n
	}
}

// MemorySet is one process's (or the kernel's) address space: an owned
// page table plus the list of regions mapped into it, the counterpart
// of biscuit's Vm_t without the COW/shared-file machinery this kernel
// does not need.
type MemorySet struct {
	pt    *PageTable
	areas []*MapArea
}

// NewMemorySet allocates an empty address space.
func NewMemorySet() (*MemorySet, error) {
	pt, err := NewPageTable()
	if err != nil {
		return nil, err
	}
	return &MemorySet{pt: pt}, nil
}

// Satp returns the MMU-ready token naming this address space's table.
func (ms *MemorySet) Satp() uint64 { return ms.pt.Satp() }

// PageTable exposes the underlying table for translation helpers.
func (ms *MemorySet) PageTable() *PageTable { return ms.pt }

// Insert maps a new region into this address space and records it for
// teardown.
func (ms *MemorySet) Insert(ma *MapArea) error {
	if err := ma.Map(ms.pt); err != nil {
		return err
	}
	ms.areas = append(ms.areas, ma)
	return nil
}

// RemoveArea unmaps a single previously-inserted region (returning any
// frames it owned) and drops it from the area list, for regions whose
// lifetime is shorter than their MemorySet's, such as a task's kernel
// stack being torn down independently of the kernel address space that
// contains it.
func (ms *MemorySet) RemoveArea(ma *MapArea) {
	for i, cand := range ms.areas {
		if cand == ma {
			ma.Unmap(ms.pt)
			ms.areas = append(ms.areas[:i], ms.areas[i+1:]...)
			return
		}
	}
	panic("vm: RemoveArea: region not owned by this memory set")
}

// MapTrampoline maps the single, shared trampoline physical frame at
// TRAMPOLINE in every address space, outside the area list since it is
// never unmapped and never owns its own frame (every MemorySet points
// at the one frame handed to MapTrampoline).
func (ms *MemorySet) MapTrampoline(ppn mem.PPN) error {
	return ms.pt.Map(VA(config.Trampoline), ppn, FlagR|FlagX)
}

// Destroy unmaps every region and frees the page table itself.
func (ms *MemorySet) Destroy() {
	for _, ma := range ms.areas {
		ma.Unmap(ms.pt)
	}
	ms.areas = nil
	ms.pt.Destroy()
}

// Translate resolves a user-space byte pointer within this address
// space's mapped regions, returning a slice into the backing frame that
// runs from va to the end of its page.
// Generalizes biscuit's Userdmap8_inner; unlike biscuit this kernel has
// no page-fault-driven lazy COW path to invoke on a miss, so an
// unmapped address is simply reported as a fault.
func (ms *MemorySet) Translate(va VA) ([]byte, error) {
	pte, ok := ms.pt.Translate(va)
	if !ok {
		return nil, fmt.Errorf("vm: fault translating %#x", uint64(va))
	}
	page, ok := mem.Resolve(mem.PPN(pte.PPN()))
	if !ok {
		return nil, fmt.Errorf("vm: stale mapping at %#x", uint64(va))
	}
	off := va.Offset()
	return page[off:], nil
}

// UserReadN reads n (<=8) bytes starting at va as a little-endian
// unsigned integer, crossing page boundaries as needed (spec'd the same
// way as biscuit's Userreadn/userreadn_inner).
func (ms *MemorySet) UserReadN(va VA, n int) (uint64, error) {
	if n > 8 {
		panic("vm: UserReadN: n too large")
	}
	var ret uint64
	for i := 0; i < n; {
		src, err := ms.Translate(va + VA(i))
		if err != nil {
			return 0, err
		}
		l := n - i
		if len(src) < l {
			l = len(src)
		}
		var v uint64
		for j := l - 1; j >= 0; j-- {
			v = v<<8 | uint64(src[j])
		}
		ret |= v << (8 * uint(i))
		i += l
	}
	return ret, nil
}

// UserWriteN writes the low n bytes of val to va, crossing page
// boundaries as needed.
func (ms *MemorySet) UserWriteN(va VA, n int, val uint64) error {
	if n > 8 {
		panic("vm: UserWriteN: n too large")
	}
	for i := 0; i < n; {
		dst, err := ms.Translate(va + VA(i))
		if err != nil {
			return err
		}
		l := n - i
		if len(dst) < l {
			l = len(dst)
		}
		v := val >> (8 * uint(i))
		for j := 0; j < l; j++ {
			dst[j] = byte(v >> (8 * uint(j)))
		}
		i += l
	}
	return nil
}

// UserCopyOut copies len(src) bytes from kernel memory to the user
// address va, the counterpart of biscuit's K2user.
func (ms *MemorySet) UserCopyOut(va VA, src []byte) error {
	for len(src) > 0 {
		dst, err := ms.Translate(va)
		if err != nil {
			return err
		}
		n := copy(dst, src)
		src = src[n:]
		va += VA(n)
	}
	return nil
}

// UserCopyIn copies len(dst) bytes from the user address va into dst,
// the counterpart of biscuit's User2k.
func (ms *MemorySet) UserCopyIn(dst []byte, va VA) error {
	for len(dst) > 0 {
		src, err := ms.Translate(va)
		if err != nil {
			return err
		}
		n := copy(dst, src)
		dst = dst[n:]
		va += VA(n)
	}
	return nil
}

// UserCString copies a NUL-terminated string from user space, up to
// maxLen bytes, the counterpart of biscuit's Userstr (grounded on
// ustr.Ustr for the accumulation idiom).
func (ms *MemorySet) UserCString(va VA, maxLen int) (string, error) {
	var out []byte
	for {
		page, err := ms.Translate(va)
		if err != nil {
			return "", err
		}
		for _, c := range page {
			if c == 0 {
				return string(out), nil
			}
			out = append(out, c)
			if len(out) > maxLen {
				return "", fmt.Errorf("vm: user string exceeds %d bytes", maxLen)
			}
		}
		va += VA(len(page))
	}
}
