package task

import (
	"fmt"

	"rv39kernel/internal/trap"
	"rv39kernel/internal/vm"
)

// kernelSpace is the one kernel address space every task's kernel stack
// lives inside, set once at boot.
var kernelSpace *vm.MemorySet

// SetKernelSpace wires the kernel address space cmd/kernel built at
// bring-up; every later NewTask/fork call maps its kernel stack there.
func SetKernelSpace(ks *vm.MemorySet) {
	kernelSpace = ks
}

// trapHandlerEntry is the kernel virtual address of the code a
// TrapContext.TrapHandlerAddr should point at; set once at boot from
// wherever the kernel image links trap_handler's entry point.
var trapHandlerEntry uint64

// SetTrapHandlerEntry wires trapHandlerEntry.
func SetTrapHandlerEntry(addr uint64) {
	trapHandlerEntry = addr
}

// sstatusUserInit is the sstatus value every freshly built task starts
// with: SPP=0 (return to U-mode), SPIE=1 (interrupts enabled once back
// in U-mode). Filled in by cmd/kernel from its own SPIE bit constant,
// so this package does not import riscv64 CSR bit layouts directly.
var sstatusUserInit uint64

// SetSstatusUserInit wires sstatusUserInit.
func SetSstatusUserInit(v uint64) {
	sstatusUserInit = v
}

// NewTask builds a brand new task from an ELF image with no parent
// (used for the very first process only; every other task is created
// by Fork followed by Exec).
func NewTask(name string, elfData []byte) (*TCB, error) {
	ms, img, err := vm.NewFromELF(elfData)
	if err != nil {
		return nil, err
	}
	return newTaskFromSpace(name, ms, img, nil)
}

func newTaskFromSpace(name string, ms *vm.MemorySet, img *vm.ELFImage, parent *TCB) (*TCB, error) {
	pid := AllocPID()
	kstackTop, err := MapKernelStack(kernelSpace, pid)
	if err != nil {
		FreePID(pid)
		return nil, err
	}

	trapCtxVA := vm.VA(trapContextConfigVA())
	tc := trap.NewContext(uint64(img.Entry), uint64(img.UserStackTop),
		kernelSpace.Satp(), uint64(kstackTop), trapHandlerEntry, sstatusUserInit)
	if err := writeTrapContext(ms, trapCtxVA, tc); err != nil {
		return nil, err
	}

	t := &TCB{PID: pid}
	t.inner = newInnerCell(Inner{
		Status:         Ready,
		MemorySet:      ms,
		TrapCtxVA:      trapCtxVA,
		KernelStackTop: kstackTop,
		Parent:         parent,
		AppName:        name,
	})
	h := t.Borrow()
	h.Get().TaskCtx = *trap.GotoRestore(uint64(kstackTop), trapReturnTrampolineEntry())
	h.Drop()

	if parent != nil {
		ph := parent.Borrow()
		ph.Get().Children = append(ph.Get().Children, t)
		ph.Drop()
	}
	registerTask(t)
	Enqueue(t)
	return t, nil
}

// SuspendCurrentAndRunNext puts the running task back on the ready
// queue and switches to the idle loop to pick whatever runs next; used
// by both the yield syscall and timer preemption.
func SuspendCurrentAndRunNext() {
	cur := Current()
	if cur == nil {
		panic("task: suspend called with no running task")
	}
	h := cur.Borrow()
	outgoing := &h.Get().TaskCtx
	h.Drop()

	Enqueue(cur)
	Schedule(outgoing)
}

// ExitCurrentAndRunNext tears down the running task: marks it a
// zombie, records exitCode, re-parents its children to INITPROC, and
// switches to the idle loop. Its address space and kernel stack are
// released here; the TCB itself survives as a zombie until a
// WaitPID reaps it, the same two-phase teardown as the original
// implementation's exit_current_and_run_next.
func ExitCurrentAndRunNext(exitCode int32) {
	cur := Current()
	if cur == nil {
		panic("task: exit called with no running task")
	}
	h := cur.Borrow()
	inner := h.Get()
	inner.Status = Zombie
	inner.ExitCode = exitCode
	children := inner.Children
	inner.Children = nil
	ms := inner.MemorySet
	inner.MemorySet = nil
	h.Drop()

	for _, c := range children {
		ch := c.Borrow()
		ch.Get().Parent = initProc
		ch.Drop()
		if initProc != nil {
			ih := initProc.Borrow()
			ih.Get().Children = append(ih.Get().Children, c)
			ih.Drop()
		}
	}

	if ms != nil {
		ms.Destroy()
	}
	UnmapKernelStack(kernelSpace, cur.PID)

	var idle trap.TaskContext
	Schedule(&idle)
	panic("task: unreachable: scheduled-out zombie resumed")
}

// Fork duplicates the calling task's address space and kernel state
// into a new child task, returning the child. The spec's fork() has no
// copy-on-write fast path (internal/vm.FromExistedUser always copies
// eagerly), so this is more expensive than a real fork but simpler to
// reason about on a kernel with no lazy fault handling.
func Fork(parent *TCB) (*TCB, error) {
	ph := parent.Borrow()
	srcMS := ph.Get().MemorySet
	trapCtxVA := ph.Get().TrapCtxVA
	ph.Drop()

	dstMS, err := vm.FromExistedUser(srcMS)
	if err != nil {
		return nil, err
	}

	pid := AllocPID()
	kstackTop, err := MapKernelStack(kernelSpace, pid)
	if err != nil {
		FreePID(pid)
		return nil, err
	}

	parentTrapBytes, err := srcMS.Translate(trapCtxVA)
	if err != nil {
		return nil, fmt.Errorf("task: fork: read parent trap context: %w", err)
	}
	if err := dstMS.UserCopyOut(trapCtxVA, parentTrapBytes[:trapContextSize()]); err != nil {
		return nil, err
	}

	child := &TCB{PID: pid}
	child.inner = newInnerCell(Inner{
		Status:         Ready,
		MemorySet:      dstMS,
		TrapCtxVA:      trapCtxVA,
		KernelStackTop: kstackTop,
		Parent:         parent,
	})
	ch := child.Borrow()
	ch.Get().TaskCtx = *trap.GotoRestore(uint64(kstackTop), trapReturnTrampolineEntry())
	ch.Drop()

	ph = parent.Borrow()
	ph.Get().Children = append(ph.Get().Children, child)
	ph.Drop()

	// A fork's child sees a zero return value from the fork syscall;
	// the parent's own return value (the child's pid) is set by the
	// syscall handler that called Fork, not here.
	childTrap := child.TrapContext()
	childTrap.X[10] = 0

	registerTask(child)
	Enqueue(child)
	return child, nil
}

// Exec replaces the calling task's address space with a new program,
// keeping its PID and kernel stack. Matches the original
// implementation's exec(): the old MemorySet is destroyed only after
// the new one is built, so a failed load leaves the caller unaffected.
func Exec(t *TCB, name string, elfData []byte) error {
	ms, img, err := vm.NewFromELF(elfData)
	if err != nil {
		return err
	}

	h := t.Borrow()
	old := h.Get().MemorySet
	kstackTop := h.Get().KernelStackTop
	h.Drop()

	trapCtxVA := vm.VA(trapContextConfigVA())
	tc := trap.NewContext(uint64(img.Entry), uint64(img.UserStackTop),
		kernelSpace.Satp(), uint64(kstackTop), trapHandlerEntry, sstatusUserInit)
	if err := writeTrapContext(ms, trapCtxVA, tc); err != nil {
		return err
	}

	h = t.Borrow()
	h.Get().MemorySet = ms
	h.Get().TrapCtxVA = trapCtxVA
	h.Get().AppName = name
	h.Drop()

	if old != nil {
		old.Destroy()
	}
	return nil
}

// WaitAny looks for any zombie child of parent. found reports whether
// one existed; if so it is removed from parent's children, its PID and
// exit code are returned, and its TCB becomes unreachable (reaped).
// noSuchChild reports the other failure mode: target is a specific PID
// that is not (or no longer) among parent's children, or parent has no
// children at all regardless of target. Callers (the waitpid syscall)
// must distinguish that from "target exists among the children but
// none matching it have exited yet", which leaves both found and
// noSuchChild false.
func WaitAny(parent *TCB, target PID) (pid PID, exitCode int32, found, noSuchChild bool) {
	h := parent.Borrow()
	defer h.Drop()
	inner := h.Get()
	if len(inner.Children) == 0 {
		return 0, 0, false, true
	}
	targetExists := target == -1
	for i, c := range inner.Children {
		if target != -1 && c.PID != target {
			continue
		}
		targetExists = true
		ch := c.Borrow()
		isZombie := ch.Get().Status == Zombie
		code := ch.Get().ExitCode
		ch.Drop()
		if isZombie {
			inner.Children = append(inner.Children[:i], inner.Children[i+1:]...)
			FreePID(c.PID)
			unregisterTask(c.PID)
			return c.PID, code, true, false
		}
	}
	return 0, 0, false, !targetExists
}
