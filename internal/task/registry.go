package task

import (
	"rv39kernel/internal/cell"
	"rv39kernel/internal/diag"
)

// registry tracks every task from creation until a WaitPID reaps its
// zombie, the set internal/diag.DumpProfile needs to snapshot
// accounting across tasks the ready queue and processor alone cannot
// enumerate (a task that is neither ready nor running, but not yet
// reaped, is invisible to both).
var registry = cell.New(map[PID]*TCB{})

func registerTask(t *TCB) {
	r := registry.Borrow()
	(*r.Get())[t.PID] = t
	r.Drop()
}

func unregisterTask(pid PID) {
	r := registry.Borrow()
	delete(*r.Get(), pid)
	r.Drop()
}

// Accounting snapshots every tracked task's CPU-time counters for
// internal/diag.DumpProfile.
func Accounting() []diag.TaskSample {
	r := registry.Borrow()
	defer r.Drop()
	out := make([]diag.TaskSample, 0, len(*r.Get()))
	for pid, t := range *r.Get() {
		h := t.Borrow()
		acc := h.Get().Accnt.Snapshot()
		name := h.Get().AppName
		h.Drop()
		out = append(out, diag.TaskSample{
			PID:         int32(pid),
			Name:        name,
			RunNS:       acc.RunNS,
			ScheduledNS: acc.ScheduledNS,
		})
	}
	return out
}
