package main

import (
	"rv39kernel/internal/console"
	"rv39kernel/internal/diag"
	"rv39kernel/internal/syscall"
	"rv39kernel/internal/task"
	"rv39kernel/internal/trap"
)

// trapHandler is the scause-keyed dispatch table trap.Handle consults;
// built once at boot since neither callback captures per-trap state.
var trapHandler = trap.Handler{
	Syscall: syscall.Dispatch,
	Tick: func() bool {
		// Drain UART input into the console's receive ring so sys_read
		// can serve it.
		console.PollRX()
		// Every software interrupt preempts: this kernel has no
		// remaining-quantum accounting beyond "a tick happened".
		return true
	},
}

// trapEntry is the kernel-side landing pad __alltraps tail-calls after
// saving user registers into ctx, reachable through
// trap.Context.TrapHandlerAddr. It mirrors the original non-Go
// implementation's trap_handler: dispatch, then act on the outcome
// before trap_return ever runs. Yield and Kill both fall through to a
// context switch; when this function's goroutine-equivalent is next
// resumed by the scheduler, it returns whichever TrapContext the
// now-current task owns, since exec() may have replaced it.
func trapEntry(ctx *trap.Context, rawScause, stval uint64) *trap.Context {
	cur := task.Current()
	result := trap.Handle(ctx, rawScause, stval, trapHandler)
	switch result.Outcome {
	case trap.Continue:
		return ctx
	case trap.Yield:
		task.SuspendCurrentAndRunNext()
	case trap.Kill:
		diag.Warnf("task %d killed, exit code %d", cur.PID, result.ExitCode)
		task.ExitCurrentAndRunNext(result.ExitCode)
	}
	return task.Current().TrapContext()
}
