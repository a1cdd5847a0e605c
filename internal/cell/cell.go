// Package cell implements the kernel's "exclusive cell": a dynamic
// at-most-one-borrower check used in lieu of a lock on a non-reentrant,
// single-hart kernel. Every long-lived global singleton (heap, frame
// allocator, kernel memory set, PID allocator, task manager, processor,
// each PCB's mutable inner state) lives behind one of these.
//
// A borrow must be released before any scheduler-invoking operation; a
// borrow that is never released deadlocks the next kernel entry that
// needs the same cell.
package cell

import (
	"fmt"

	"golang.org/x/sync/semaphore"
)

// Cell wraps a T behind an at-most-one dynamic borrow check, backed by a
// weighted semaphore of weight 1. A TryAcquire failure means the cell is
// already borrowed, an over-borrow programmer bug, so Borrow panics
// rather than blocking: the kernel is single-hart and a blocked acquire
// here can only mean a bug, not contention.
type Cell[T any] struct {
	sem   *semaphore.Weighted
	inner T
}

// New wraps v in a fresh, unborrowed Cell.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{sem: semaphore.NewWeighted(1), inner: v}
}

// Borrow acquires exclusive access to the cell's contents and returns a
// handle that must be released with Handle.Drop before the calling task
// gives up the CPU.
func (c *Cell[T]) Borrow() *Handle[T] {
	if !c.sem.TryAcquire(1) {
		panic(fmt.Sprintf("exclusive cell already borrowed: %T", c.inner))
	}
	return &Handle[T]{c: c}
}

// TryBorrow attempts to acquire the cell without panicking, returning
// (handle, true) on success and (nil, false) if already borrowed.
func (c *Cell[T]) TryBorrow() (*Handle[T], bool) {
	if !c.sem.TryAcquire(1) {
		return nil, false
	}
	return &Handle[T]{c: c}, true
}

// Handle is a live borrow of a Cell's contents.
type Handle[T any] struct {
	c        *Cell[T]
	released bool
}

// Get returns a pointer to the borrowed value.
func (h *Handle[T]) Get() *T {
	if h.released {
		panic("use of dropped exclusive-cell handle")
	}
	return &h.c.inner
}

// Drop releases the borrow. It is idempotent so deferred-drop call sites
// (mirroring the teacher's Lock/Unlock pairing) are safe to call twice.
func (h *Handle[T]) Drop() {
	if h.released {
		return
	}
	h.released = true
	h.c.sem.Release(1)
}
