// Package trap holds the two register-snapshot records the assembly
// trampoline and task switch code read and write directly (TrapContext,
// TaskContext) plus the scause-keyed dispatch that decides what a trap
// means, styled after gopher-os's irq.Frame/irq.Regs split between
// CPU-pushed state and general-purpose register state.
package trap

// Context is the full register snapshot saved on every transition from
// user mode into the kernel, resident at config.TrapContext in every
// user address space's page table. Its field order and size are fixed:
// the assembly trampoline (__alltraps/__restore) indexes into it by
// byte offset, not by Go field name.
type Context struct {
	X               [32]uint64 // x0..x31, x2 (sp) and x4 (tp) included for symmetry with the save/restore loop
	Sstatus         uint64
	Sepc            uint64
	KernelSatp      uint64
	KernelSP        uint64
	TrapHandlerAddr uint64
}

// NewContext builds the initial Context for a freshly exec'd or forked
// task: general registers zeroed except sp, sstatus carries SPP=0 (U
// mode) with SPIE set so interrupts are enabled after sret.
func NewContext(entry, userSP, kernelSatp, kernelSP, trapHandler uint64, sstatusUser uint64) *Context {
	c := &Context{}
	c.X[2] = userSP
	c.Sepc = entry
	c.Sstatus = sstatusUser
	c.KernelSatp = kernelSatp
	c.KernelSP = kernelSP
	c.TrapHandlerAddr = trapHandler
	return c
}

// TaskContext is the callee-saved register set __switch swaps between
// two tasks' kernel stacks: return address, stack pointer, and the 12
// RISC-V callee-saved general registers s0-s11.
type TaskContext struct {
	RA uint64
	SP uint64
	S  [12]uint64
}

// GotoRestore builds the TaskContext a brand new task's kernel stack
// starts from: RA points at trap_return so the first __switch into this
// task lands directly in the user-return path instead of an ordinary
// function return.
func GotoRestore(kernelSP, trapReturnAddr uint64) *TaskContext {
	return &TaskContext{RA: trapReturnAddr, SP: kernelSP}
}
