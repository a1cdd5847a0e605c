package vm

import "rv39kernel/internal/mem"

// trampolinePPN is the single physical frame holding the trampoline
// code, shared by every address space's top page. It is allocated once
// at boot (cmd/kernel) and never freed.
var trampolinePPN mem.PPN

// SetTrampolineFrame records the frame cmd/kernel allocated for the
// trampoline page, for every later NewFromELF, FromExistedUser, and
// NewKernelSpace's MapTrampoline call to share. cmd/kernel writes no
// code into that frame; it stays zeroed.
func SetTrampolineFrame(ppn mem.PPN) {
	trampolinePPN = ppn
}

// TrampolineFrame returns the shared trampoline frame.
func TrampolineFrame() mem.PPN {
	return trampolinePPN
}
