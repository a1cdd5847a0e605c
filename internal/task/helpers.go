package task

import (
	"unsafe"

	"rv39kernel/internal/cell"
	"rv39kernel/internal/config"
	"rv39kernel/internal/trap"
	"rv39kernel/internal/vm"
)

func newInnerCell(v Inner) *cell.Cell[Inner] {
	return cell.New(v)
}

func trapContextConfigVA() uint64 {
	return config.TrapContext
}

func trapContextSize() int {
	return int(unsafe.Sizeof(trap.Context{}))
}

// writeTrapContext serializes tc into ms at va, used both when
// building a task's initial context and when forking copies the
// parent's current context into the child's address space.
func writeTrapContext(ms *vm.MemorySet, va vm.VA, tc *trap.Context) error {
	raw := unsafe.Slice((*byte)(unsafe.Pointer(tc)), trapContextSize())
	return ms.UserCopyOut(va, raw)
}

// trapReturnEntry is the virtual address, identical in every address
// space, that riscv64.TrapReturn jumps to once it has swapped satp:
// the trampoline page's __restore entry point. Defaults to the base of
// the trampoline page itself; cmd/kernel sets it through
// SetTrapReturnEntry, currently to that same page base.
var trapReturnEntryAddr uint64 = config.Trampoline

// SetTrapReturnEntry overrides the trampoline's restore entry offset.
func SetTrapReturnEntry(addr uint64) {
	trapReturnEntryAddr = addr
}

func trapReturnTrampolineEntry() uint64 {
	return trapReturnEntryAddr
}

// initProc is INITPROC, the root of the process tree; every orphaned
// child is re-parented to it on its parent's exit.
var initProc *TCB

// SetInitProc records the first task created at boot as INITPROC.
func SetInitProc(t *TCB) {
	initProc = t
}
