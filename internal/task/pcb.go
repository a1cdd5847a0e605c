package task

import (
	"time"
	"unsafe"

	"rv39kernel/internal/cell"
	"rv39kernel/internal/trap"
	"rv39kernel/internal/vm"
)

// Status is a task's scheduling state.
type Status int

const (
	Ready Status = iota
	Running
	Zombie
)

func (s Status) String() string {
	switch s {
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Zombie:
		return "zombie"
	default:
		return "unknown"
	}
}

// Inner is a PCB's mutable state, the fields a Lock/Unlock pair (here, a
// Cell borrow) must guard, mirroring biscuit's Vm_t split between the
// handful of immutable identity fields and the mutex-guarded mutable
// ones.
type Inner struct {
	Status         Status
	TaskCtx        trap.TaskContext
	MemorySet      *vm.MemorySet
	TrapCtxVA      vm.VA
	KernelStackTop vm.VA
	ExitCode       int32
	Parent         *TCB
	Children       []*TCB
	AppName        string
	Accnt          Accnt
	ReadySince     time.Time
}

// TCB (task control block) is the kernel's per-task record: the
// immutable identity (PID) plus a cell-guarded Inner, the same split
// biscuit's Proc_t draws between Pid and the mutex-guarded rest,
// generalized here to single-hart exclusivity instead of a real mutex.
type TCB struct {
	PID   PID
	inner *cell.Cell[Inner]
}

// Borrow acquires exclusive access to this task's mutable state.
func (t *TCB) Borrow() *cell.Handle[Inner] {
	return t.inner.Borrow()
}

// TrapContext returns the live TrapContext for this task, read through
// its own address space's mapping, the same way the original
// implementation's TaskControlBlockInner::get_trap_cx indexes the fixed
// TRAP_CONTEXT virtual address rather than storing a Go pointer (the
// record must be reachable from user-space's page table across a
// satp switch, not just from kernel heap memory).
func (t *TCB) TrapContext() *trap.Context {
	h := t.Borrow()
	defer h.Drop()
	inner := h.Get()
	bytes, err := inner.MemorySet.Translate(inner.TrapCtxVA)
	if err != nil {
		panic("task: trap context page unmapped: " + err.Error())
	}
	return (*trap.Context)(unsafe.Pointer(&bytes[0]))
}
