package task

import (
	"time"
	"unsafe"

	"rv39kernel/internal/arch/riscv64"
	"rv39kernel/internal/cell"
	"rv39kernel/internal/trap"
)

// readyQueue is the FIFO of runnable tasks, the single-hart kernel's
// entire scheduling policy.
type readyQueue struct {
	q []*TCB
}

func (r *readyQueue) push(t *TCB) { r.q = append(r.q, t) }

func (r *readyQueue) pop() (*TCB, bool) {
	if len(r.q) == 0 {
		return nil, false
	}
	t := r.q[0]
	r.q = r.q[1:]
	return t, true
}

var manager = cell.New(readyQueue{})

// Enqueue marks t Ready and appends it to the ready queue.
func Enqueue(t *TCB) {
	h := t.Borrow()
	h.Get().Status = Ready
	h.Get().ReadySince = time.Now()
	h.Drop()

	m := manager.Borrow()
	m.Get().push(t)
	m.Drop()
}

// processor holds the single hart's idle-task context and a pointer to
// whichever task is currently running, the counterpart of the original
// implementation's Processor struct scaled down from N harts to one.
type processor struct {
	current  *TCB
	idleTask trap.TaskContext
	runStart time.Time
}

var proc = cell.New(processor{})

// Current returns the task presently running on this hart, or nil if
// the idle loop itself is running.
func Current() *TCB {
	p := proc.Borrow()
	defer p.Drop()
	return p.Get().current
}

// RunTasks is the idle loop: while any task is ready, switch into it;
// __switch back into this loop happens only when that task yields
// (including timer preemption) or exits. It never returns.
func RunTasks() {
	for {
		m := manager.Borrow()
		next, ok := m.Get().pop()
		m.Drop()
		if !ok {
			continue
		}

		h := next.Borrow()
		h.Get().Status = Running
		h.Get().Accnt.AddScheduled(int64(time.Since(h.Get().ReadySince)))
		taskCtxPtr := &h.Get().TaskCtx
		h.Drop()

		p := proc.Borrow()
		p.Get().current = next
		p.Get().runStart = time.Now()
		idlePtr := &p.Get().idleTask
		p.Drop()

		riscv64.Switch(unsafe.Pointer(idlePtr), unsafe.Pointer(taskCtxPtr))
	}
}

// Schedule switches away from the currently running task, saving its
// context into outgoing (a pointer into that task's own
// Inner.TaskCtx), and back into the idle loop, which will then pick the
// next ready task.
func Schedule(outgoing *trap.TaskContext) {
	p := proc.Borrow()
	outgoingTask := p.Get().current
	runStart := p.Get().runStart
	p.Get().current = nil
	idlePtr := &p.Get().idleTask
	p.Drop()

	if outgoingTask != nil {
		h := outgoingTask.Borrow()
		h.Get().Accnt.AddRun(int64(time.Since(runStart)))
		h.Drop()
	}

	riscv64.Switch(unsafe.Pointer(outgoing), unsafe.Pointer(idlePtr))
}
