// Command kernel is the boot and bring-up sequence: it carves the heap
// and frame allocator out of the fixed memory map, builds the kernel
// address space, wires every ambient/domain collaborator's injection
// point, creates the init task, and hands off to the scheduler's idle
// loop, which never returns.
package main

import (
	"embed"
	"reflect"
	"time"

	"rv39kernel/internal/arch/riscv64"
	"rv39kernel/internal/config"
	"rv39kernel/internal/console"
	"rv39kernel/internal/diag"
	"rv39kernel/internal/loader"
	"rv39kernel/internal/mem"
	"rv39kernel/internal/syscall"
	"rv39kernel/internal/task"
	"rv39kernel/internal/trap"
	"rv39kernel/internal/vm"
)

//go:embed apps
var appsFS embed.FS

// sstatusSPIE is the bit position of sstatus.SPIE; SPP is bit 8 and is
// left clear so every freshly built task starts in U-mode after sret.
const sstatusSPIE = 1 << 5

func main() {
	diag.Logf("rv39kernel booting")
	diag.Logf("%s", config.ProbeFeatures())

	mem.InitKernelHeap(uintptr(config.KernelDataEnd), uintptr(config.KernelHeapSize))
	kernelImageEnd := config.KernelDataEnd + config.KernelHeapSize
	mem.InitFrameAllocator(kernelImageEnd)

	trampolineFrame, ok := mem.AllocFrame()
	if !ok {
		diag.Oops("out of frames allocating the trampoline page")
	}
	vm.SetTrampolineFrame(trampolineFrame.PPN)

	kernelSpace, err := vm.NewKernelSpace(config.KernelTextEnd, config.KernelRodataEnd, config.KernelDataEnd)
	if err != nil {
		diag.Oops(err)
	}
	task.SetKernelSpace(kernelSpace)

	console.SetSink(newHostUART())

	trapHandlerAddr := uint64(reflect.ValueOf(trapEntry).Pointer())
	task.SetTrapHandlerEntry(trapHandlerAddr)
	task.SetSstatusUserInit(sstatusSPIE)
	task.SetTrapReturnEntry(config.Trampoline)

	trap.SetClearPending(riscv64.ClearSSIP)
	riscv64.SetSTVec(uintptr(config.Trampoline))

	syscall.SetBootTime(time.Now())
	syscall.SetShutdown(func(graceful bool) {
		if graceful {
			diag.Logf("shutdown: %#x", config.ResetOK)
		} else {
			diag.Warnf("shutdown: %#x", config.ResetError)
		}
		diag.SystemReset(resetCode(graceful))
	})
	diag.SystemReset = func(code uint32) {
		hostExit(code)
	}

	apps, skipped, err := loader.Load(appsFS, "apps/manifest.txt")
	if err != nil {
		diag.Oops(err)
	}
	for _, name := range skipped {
		diag.Warnf("app %s skipped: incompatible ABI version", name)
	}
	syscall.SetAppLookup(apps.Lookup)

	initData, ok := apps.Lookup("initproc")
	if !ok {
		diag.Oops("no initproc in the embedded app directory")
	}
	initTask, err := task.NewTask("initproc", initData)
	if err != nil {
		diag.Oops(err)
	}
	task.SetInitProc(initTask)

	diag.Logf("entering scheduler")
	task.RunTasks()
}

func resetCode(graceful bool) uint32 {
	if graceful {
		return config.ResetOK
	}
	return config.ResetError
}
