// Package syscall dispatches a user ecall to the handler named by a7,
// translating user pointers through the calling task's address space
// along the way. Named syscall rather than something more evasive
// because that is exactly what it is: the numeric-id ABI boundary
// between user tasks and the kernel.
package syscall

import (
	"time"

	"rv39kernel/internal/config"
	"rv39kernel/internal/console"
	"rv39kernel/internal/task"
	"rv39kernel/internal/trap"
	"rv39kernel/internal/vm"
)

// bootTime anchors GetTime's millisecond counter; set once at boot.
var bootTime time.Time

// SetBootTime records the reference point sys_get_time measures from.
func SetBootTime(t time.Time) {
	bootTime = t
}

// Dispatch is installed as trap.Handler.Syscall at boot. It returns the
// value the user task should see in a0, with negative values meaning
// error per the taxonomy every handler below follows.
func Dispatch(ctx *trap.Context, id, a0, a1, a2 uint64) uint64 {
	cur := task.Current()
	switch id {
	case config.SysRead:
		return uint64(int64(sysRead(cur, int(a0), vm.VA(a1), int(a2))))
	case config.SysWrite:
		return uint64(int64(sysWrite(cur, int(a0), vm.VA(a1), int(a2))))
	case config.SysExit:
		task.ExitCurrentAndRunNext(int32(a0))
		panic("syscall: exit did not switch away")
	case config.SysYield:
		task.SuspendCurrentAndRunNext()
		return 0
	case config.SysGetTime:
		return uint64(time.Since(bootTime).Milliseconds())
	case config.SysGetPID:
		return uint64(cur.PID)
	case config.SysShutdown:
		shutdown(a0 == 0)
		panic("syscall: shutdown did not halt")
	case config.SysFork:
		return uint64(sysFork(cur))
	case config.SysExec:
		return uint64(int64(sysExec(cur, vm.VA(a0))))
	case config.SysWaitPID:
		return uint64(int64(sysWaitPID(cur, int32(int64(a0)), vm.VA(a1))))
	default:
		return ^uint64(0) // -1
	}
}

func sysRead(t *task.TCB, fd int, buf vm.VA, length int) int {
	if fd != config.FDStdin {
		return -1
	}
	h := t.Borrow()
	ms := h.Get().MemorySet
	h.Drop()

	data := console.ReadAvailable(length)
	if len(data) == 0 {
		return 0
	}
	if err := ms.UserCopyOut(buf, data); err != nil {
		return -1
	}
	return len(data)
}

func sysWrite(t *task.TCB, fd int, buf vm.VA, length int) int {
	if fd != config.FDStdout {
		return -1
	}
	h := t.Borrow()
	ms := h.Get().MemorySet
	h.Drop()

	data := make([]byte, length)
	if err := ms.UserCopyIn(data, buf); err != nil {
		return -1
	}
	console.Write(data)
	return length
}

func sysFork(parent *task.TCB) int32 {
	child, err := task.Fork(parent)
	if err != nil {
		return -1
	}
	return int32(child.PID)
}

func sysExec(t *task.TCB, pathVA vm.VA) int {
	h := t.Borrow()
	ms := h.Get().MemorySet
	h.Drop()

	name, err := ms.UserCString(pathVA, 256)
	if err != nil {
		return -1
	}
	elfData, ok := appByName(name)
	if !ok {
		return -1
	}
	if err := task.Exec(t, name, elfData); err != nil {
		return -1
	}
	return 0
}

func sysWaitPID(parent *task.TCB, pid int32, exitCodeVA vm.VA) int {
	childPID, code, found, noSuchChild := task.WaitAny(parent, task.PID(pid))
	if noSuchChild {
		return -1
	}
	if !found {
		return -2
	}
	h := parent.Borrow()
	ms := h.Get().MemorySet
	h.Drop()
	if exitCodeVA != 0 {
		if err := ms.UserWriteN(exitCodeVA, 4, uint64(uint32(code))); err != nil {
			return -1
		}
	}
	return int(childPID)
}

// appByName is wired by cmd/kernel at boot to internal/loader's
// AppTable.Lookup, so this package need not import loader directly.
var appByName = func(name string) ([]byte, bool) { return nil, false }

// SetAppLookup installs the loader's name-to-image lookup.
func SetAppLookup(f func(name string) ([]byte, bool)) {
	appByName = f
}

// shutdown is wired by cmd/kernel to the arch-level system reset
// register write; declared here as a variable for the same reason as
// appByName, to keep this package's import graph acyclic.
var shutdown = func(graceful bool) {}

// SetShutdown installs the arch-level shutdown routine.
func SetShutdown(f func(graceful bool)) {
	shutdown = f
}
