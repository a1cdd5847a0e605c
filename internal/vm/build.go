package vm

import (
	"bytes"
	"debug/elf"
	"fmt"

	"rv39kernel/internal/config"
)

// NewKernelSpace builds the identity-mapped kernel address space: every
// physical page from KernelBase to MemoryEnd mapped VPN==PPN with the
// permissions appropriate to its segment, plus the MMIO windows the
// kernel touches directly.
func NewKernelSpace(textEnd, rodataEnd, dataEnd uint64) (*MemorySet, error) {
	ms, err := NewMemorySet()
	if err != nil {
		return nil, err
	}
	segments := []struct {
		start, end uint64
		flags      PTEFlags
	}{
		{config.KernelBase, textEnd, FlagR | FlagX},
		{textEnd, rodataEnd, FlagR},
		{rodataEnd, dataEnd, FlagR | FlagW},
		{dataEnd, config.MemoryEnd, FlagR | FlagW},
		{config.UARTBase, config.UARTBase + config.PageSize, FlagR | FlagW},
		{config.SystemResetBase, config.SystemResetBase + config.PageSize, FlagR | FlagW},
		{config.MTimeCmpBase, config.MTimeCmpBase + config.PageSize, FlagR | FlagW},
	}
	for _, s := range segments {
		if err := ms.Insert(NewIdentical(VA(s.start), VA(s.end), s.flags)); err != nil {
			return nil, err
		}
	}
	if err := ms.MapTrampoline(trampolinePPN); err != nil {
		return nil, err
	}
	return ms, nil
}

// ELFImage is the parsed result of loading a user program, enough for
// task creation to build its initial TrapContext.
type ELFImage struct {
	Entry        VA
	UserStackTop VA
}

// NewFromELF builds a user address space from an ELF binary's bytes:
// one Framed region per loadable (PT_LOAD) segment, a user stack one
// guard page above the highest loaded segment, the trap-context page,
// and the trampoline page shared with every
// other address space (spec generalizes biscuit's exec() loader, which
// performs the equivalent walk over program headers by hand; here
// debug/elf does the header parsing, the same library the retrieved
// corpus reaches for when it needs to read an ELF program header table).
func NewFromELF(data []byte) (*MemorySet, *ELFImage, error) {
	f, err := elf.NewFile(bytes.NewReader(data))
	if err != nil {
		return nil, nil, fmt.Errorf("vm: parse elf: %w", err)
	}
	ms, err := NewMemorySet()
	if err != nil {
		return nil, nil, err
	}

	var maxVA VA
	for _, prog := range f.Progs {
		if prog.Type != elf.PT_LOAD {
			continue
		}
		flags := FlagU
		if prog.Flags&elf.PF_R != 0 {
			flags |= FlagR
		}
		if prog.Flags&elf.PF_W != 0 {
			flags |= FlagW
		}
		if prog.Flags&elf.PF_X != 0 {
			flags |= FlagX
		}
		// Embedded apps are built with a linker script that page-aligns
		// every PT_LOAD segment, so the Floor NewFramed applies to start
		// is exact; an
		// unaligned segment would need a sub-page copy offset CopyFrom
		// does not handle.
		start := VA(prog.Vaddr)
		ma := NewFramed(start, start+VA(prog.Memsz), flags)
		if err := ms.Insert(ma); err != nil {
			return nil, nil, err
		}
		segData := make([]byte, prog.Filesz)
		if _, err := prog.ReadAt(segData, 0); err != nil {
			return nil, nil, fmt.Errorf("vm: read segment: %w", err)
		}
		ma.CopyFrom(segData)
		if top := start.Ceil() + VA(prog.Memsz); top > maxVA {
			maxVA = top.Ceil()
		}
	}

	guardBase := maxVA
	stackTop := guardBase + VA(config.GuardPageSize) + VA(config.UserStackSize)
	stack := NewFramed(guardBase+VA(config.GuardPageSize), stackTop, FlagR|FlagW|FlagU)
	if err := ms.Insert(stack); err != nil {
		return nil, nil, err
	}

	trapCtx := NewFramed(VA(config.TrapContext), VA(config.TrapContext)+VA(config.PageSize), FlagR|FlagW)
	if err := ms.Insert(trapCtx); err != nil {
		return nil, nil, err
	}

	if err := ms.MapTrampoline(trampolinePPN); err != nil {
		return nil, nil, err
	}

	return ms, &ELFImage{Entry: VA(f.Entry), UserStackTop: stackTop}, nil
}

// FromExistedUser clones src into a new address space with freshly
// allocated frames and byte-identical contents, the counterpart of
// fork()'s address-space duplication (spec generalizes biscuit's COW
// fork by always copying eagerly, since this kernel has no page-fault
// driven COW path).
func FromExistedUser(src *MemorySet) (*MemorySet, error) {
	dst, err := NewMemorySet()
	if err != nil {
		return nil, err
	}
	for _, ma := range src.areas {
		var clone *MapArea
		switch ma.mtype {
		case Identical:
			clone = NewIdentical(ma.startVA, ma.endVA, ma.flags)
		case Framed:
			clone = NewFramed(ma.startVA, ma.endVA, ma.flags)
		}
		if err := dst.Insert(clone); err != nil {
			return nil, err
		}
		if ma.mtype == Framed {
			for va, fh := range ma.frames {
				*clone.frames[va].Bytes() = *fh.Bytes()
			}
		}
	}
	if err := dst.MapTrampoline(trampolinePPN); err != nil {
		return nil, err
	}
	return dst, nil
}
