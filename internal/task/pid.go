package task

import (
	"fmt"

	"rv39kernel/internal/cell"
)

// PID is a process identifier.
type PID int32

// PIDAllocator hands out dense, monotonically increasing PIDs, recycling
// freed ones through a LIFO free list, the same bump-plus-recycle shape
// as mem.FrameAllocator but over the much smaller PID space.
type PIDAllocator struct {
	next  PID
	freed []PID
}

// Alloc returns a fresh PID, preferring a recycled one.
func (p *PIDAllocator) Alloc() PID {
	if n := len(p.freed); n > 0 {
		pid := p.freed[n-1]
		p.freed = p.freed[:n-1]
		return pid
	}
	pid := p.next
	p.next++
	return pid
}

// Dealloc returns pid to the free list. Freeing a PID that was never
// allocated, or freeing it twice, is a programmer bug.
func (p *PIDAllocator) Dealloc(pid PID) {
	if pid >= p.next {
		panic(fmt.Sprintf("task: pid %d was never allocated", pid))
	}
	for _, f := range p.freed {
		if f == pid {
			panic(fmt.Sprintf("task: double free of pid %d", pid))
		}
	}
	p.freed = append(p.freed, pid)
}

var pidAllocator = cell.New(PIDAllocator{})

// AllocPID draws the next PID from the global allocator.
func AllocPID() PID {
	h := pidAllocator.Borrow()
	defer h.Drop()
	return h.Get().Alloc()
}

// FreePID returns pid to the global allocator.
func FreePID(pid PID) {
	h := pidAllocator.Borrow()
	defer h.Drop()
	h.Get().Dealloc(pid)
}
