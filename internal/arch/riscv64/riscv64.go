// Package riscv64 declares the Go-side signatures of the machine-level
// routines this kernel cannot express in Go: CSR access, the
// trampoline's user/kernel boundary crossing, and the task-switch
// register save/restore. Each declaration below is implemented in a
// sibling .s file, the same split gopher-os uses in cpu_amd64.go for
// EnableInterrupts/DisableInterrupts/Halt/FlushTLBEntry.
package riscv64

import "unsafe"

// EnableSupervisorInterrupts sets sstatus.SIE.
func EnableSupervisorInterrupts()

// DisableSupervisorInterrupts clears sstatus.SIE.
func DisableSupervisorInterrupts()

// SetSATP writes the satp CSR and issues an sfence.vma flushing the
// entire TLB, activating a new page table.
func SetSATP(satp uint64)

// ReadSATP returns the current satp CSR value.
func ReadSATP() uint64

// SetSTVec writes addr to stvec as is, so the mode bits are those of
// addr (a page-aligned address gives Direct mode).
func SetSTVec(addr uintptr)

// ClearSSIP clears sip.SSIP, acknowledging a delivered
// supervisor-software interrupt so the same timer tick is not
// redelivered.
func ClearSSIP()

// Switch saves the caller's callee-saved registers into *old and
// restores them from *new, returning only once some later Switch call
// saves back into *old. This is the kernel-to-kernel context switch the
// scheduler drives; it never touches user registers, those live in a
// trap.Context, not here.
func Switch(old, new unsafe.Pointer)

// TrapReturn transfers control from kernel mode back to the user task
// named by trapCtxVA (the virtual address, in the target address
// space, of its TrapContext page) and satp (that address space's page
// table root). It jumps through the trampoline page so the instructions
// executing the satp swap are identically mapped before and after.
// The __restore target it jumps to is the trampoline_restore placeholder
// in riscv64_riscv64.s, which returns at once to TrapReturn's caller.
func TrapReturn(trapCtxVA, satp uintptr)
