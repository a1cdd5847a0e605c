package task

import (
	"rv39kernel/internal/cell"
	"rv39kernel/internal/config"
	"rv39kernel/internal/vm"
)

// kernelStackRange computes the [bottom, top) virtual address range
// reserved for pid's kernel stack inside the kernel address space.
// Stacks are laid out descending from the trampoline, each separated
// from its neighbor by one guard page so a kernel-stack overflow faults
// instead of silently corrupting the next task's stack.
func kernelStackRange(pid PID) (bottom, top vm.VA) {
	top = vm.VA(config.Trampoline) - vm.VA(pid)*vm.VA(config.KernelStackSize+config.GuardPageSize)
	bottom = top - vm.VA(config.KernelStackSize)
	return bottom, top
}

var kernelStackAreas = cell.New(map[PID]*vm.MapArea{})

// MapKernelStack inserts pid's kernel stack into the kernel address
// space and returns its top (the initial kernel stack pointer).
func MapKernelStack(kernel *vm.MemorySet, pid PID) (vm.VA, error) {
	bottom, top := kernelStackRange(pid)
	ma := vm.NewFramed(bottom, top, vm.FlagR|vm.FlagW)
	if err := kernel.Insert(ma); err != nil {
		return 0, err
	}
	h := kernelStackAreas.Borrow()
	(*h.Get())[pid] = ma
	h.Drop()
	return top, nil
}

// UnmapKernelStack removes pid's kernel stack from the kernel address
// space, called once the task is reaped.
func UnmapKernelStack(kernel *vm.MemorySet, pid PID) {
	h := kernelStackAreas.Borrow()
	ma, ok := (*h.Get())[pid]
	if ok {
		delete(*h.Get(), pid)
	}
	h.Drop()
	if !ok {
		panic("task: UnmapKernelStack: no kernel stack recorded for pid")
	}
	kernel.RemoveArea(ma)
}
