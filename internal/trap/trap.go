package trap

import "rv39kernel/internal/config"

// Cause mirrors the fields of RISC-V's scause CSR: an interrupt bit and
// an exception/interrupt code.
type Cause struct {
	IsInterrupt bool
	Code        uint64
}

// Well-known scause codes this kernel acts on; values match the
// privileged ISA spec's Table for Supervisor-mode scause.
const (
	SupervisorSoftwareInterrupt = 1
	InstructionAccessFault      = 1
	IllegalInstruction          = 2
	LoadAccessFault             = 5
	StoreOrAMOAccessFault       = 7
	UserEnvCall                 = 8
	InstructionPageFault        = 12
	LoadPageFault               = 13
	StoreOrAMOPageFault         = 15
)

// DecodeScause splits a raw scause CSR value into a Cause.
func DecodeScause(raw uint64) Cause {
	return Cause{IsInterrupt: raw>>63 != 0, Code: raw & (1<<63 - 1)}
}

// Outcome tells the caller of Handle what should happen to the task
// that trapped, since trap.Handle itself must not reach into
// internal/task (that would be an import cycle: task owns the trap
// loop, not the other way around).
type Outcome int

const (
	// Continue means the trap was fully handled in place (a syscall
	// that returned a value, or a timer tick that has been
	// reprogrammed); trap_return should resume the same task.
	Continue Outcome = iota
	// Yield means the trapping task should be suspended and the
	// scheduler should pick another ready task (timer preemption or an
	// explicit yield syscall).
	Yield
	// Kill means the trapping task faulted and must be torn down with
	// the given exit code.
	Kill
)

// Result is what Handle reports back to the owner of the trap loop.
type Result struct {
	Outcome  Outcome
	ExitCode int32
}

// Handler is supplied by cmd/kernel at boot (wrapping
// internal/syscall.Dispatch) so this package's dispatch table can call
// back into code that would otherwise have to import trap, inverting the
// natural dependency the way gopher-os's irq.HandleException
// registration table does.
type Handler struct {
	// Syscall dispatches a user ecall; it receives the raw a7 and a0-a2
	// register values already pulled out of a Context and returns the
	// new a0.
	Syscall func(ctx *Context, id, a0, a1, a2 uint64) uint64
	// Tick is invoked on every supervisor-software-interrupt (the
	// M-mode timer shim's signal) and returns whether the running task
	// should be preempted.
	Tick func() bool
}

// Handle dispatches one trap according to cause, matching the switch
// in the original non-Go implementation's trap_handler: ecall advances
// sepc past the ecall instruction before dispatching, faults kill the
// task, a software interrupt reprograms nothing here (the M-mode shim
// already did) but asks the scheduler to reconsider.
func Handle(ctx *Context, rawScause uint64, stval uint64, h Handler) Result {
	cause := DecodeScause(rawScause)
	switch {
	case !cause.IsInterrupt && cause.Code == UserEnvCall:
		ctx.Sepc += 4
		ctx.X[10] = h.Syscall(ctx, ctx.X[17], ctx.X[10], ctx.X[11], ctx.X[12])
		return Result{Outcome: Continue}

	case !cause.IsInterrupt && (cause.Code == StoreOrAMOPageFault ||
		cause.Code == LoadPageFault || cause.Code == InstructionPageFault ||
		cause.Code == StoreOrAMOAccessFault || cause.Code == LoadAccessFault ||
		cause.Code == InstructionAccessFault):
		return Result{Outcome: Kill, ExitCode: -2}

	case !cause.IsInterrupt && cause.Code == IllegalInstruction:
		return Result{Outcome: Kill, ExitCode: -3}

	case cause.IsInterrupt && cause.Code == SupervisorSoftwareInterrupt:
		clearSoftwareInterruptPending()
		if h.Tick() {
			return Result{Outcome: Yield}
		}
		return Result{Outcome: Continue}

	default:
		panic(unhandledTrapMessage(cause, stval))
	}
}

func unhandledTrapMessage(cause Cause, stval uint64) string {
	kind := "exception"
	if cause.IsInterrupt {
		kind = "interrupt"
	}
	return "trap: unhandled " + kind + " code=" + itoa(cause.Code) + " stval=" + itoa(stval)
}

// itoa avoids pulling in strconv purely for a panic message format that
// the rest of the kernel already needs fmt for elsewhere; kept tiny and
// local because this is the one path (a panicking trap) where importing
// fmt's full machinery is the kind of thing the teacher's own
// runtime-adjacent code avoids on an unrecoverable path.
func itoa(v uint64) string {
	if v == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// clearSoftwareInterruptPending clears sip.SSIP so the same timer event
// is not redelivered; implemented in internal/arch/riscv64 since it is
// a CSR write.
var clearSoftwareInterruptPending = func() {}

// SetClearPending wires the arch-specific CSR clear. cmd/kernel calls
// this once at boot.
func SetClearPending(f func()) {
	clearSoftwareInterruptPending = f
}

// SchedPeriod is how often (in timer ticks) the M-mode shim raises
// SupervisorSoftwareInterrupt, exposed here so cmd/kernel's boot
// sequence can program the initial mtimecmp without importing config
// directly in two places.
const SchedPeriod = config.SchedPeriodTicks
