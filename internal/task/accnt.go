package task

import "sync/atomic"

// Accnt accumulates per-task CPU-time accounting: nanoseconds spent
// running versus nanoseconds spent runnable-but-waiting for the CPU.
// Grounded on biscuit's accnt.Accnt_t (Utadd/Systadd-by-atomic-add,
// Add-to-merge), generalized from user/system time (this kernel has no
// notion of a syscall being "system time" distinct from "user time"; a
// task is simply running or not) down to running-time versus
// scheduled-time.
type Accnt struct {
	RunNS       int64
	ScheduledNS int64
}

// AddRun adds delta nanoseconds of wall-clock running time.
func (a *Accnt) AddRun(delta int64) {
	atomic.AddInt64(&a.RunNS, delta)
}

// AddScheduled adds delta nanoseconds spent ready but not running.
func (a *Accnt) AddScheduled(delta int64) {
	atomic.AddInt64(&a.ScheduledNS, delta)
}

// Snapshot returns a consistent copy of the counters.
func (a *Accnt) Snapshot() Accnt {
	return Accnt{
		RunNS:       atomic.LoadInt64(&a.RunNS),
		ScheduledNS: atomic.LoadInt64(&a.ScheduledNS),
	}
}
