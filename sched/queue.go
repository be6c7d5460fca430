package sched

import (
	"fmt"

	"ossim/errs"
	"ossim/proc"

	"github.com/sirupsen/logrus"
)

// MaxQueueSize bounds how many processes a single queue holds at
// once, mirroring the source's fixed-size proc array per queue.
const MaxQueueSize = 128

// queue is a bounded, array-backed holding pen for runnable
// processes. It underlies both the single ready/run queues and each
// priority level's queue in the MLQ scheduler.
type queue struct {
	procs []*proc.PCB
}

func (q *queue) empty() bool {
	return len(q.procs) == 0
}

// enqueue appends p. If the queue is already at capacity, the
// process is rejected: the caller must decide what to do with a
// process that didn't get a slot rather than have it silently
// vanish, unlike the source's enqueue, which drops it after printing
// a message.
func (q *queue) enqueue(p *proc.PCB) error {
	if len(q.procs) >= MaxQueueSize {
		logrus.WithField("pid", p.ID).Warn("sched: queue is full, rejecting process")
		return fmt.Errorf("pid %d: %w", p.ID, errs.ErrQueueFull)
	}
	q.procs = append(q.procs, p)
	return nil
}

// dequeue removes and returns the process at the front of the queue,
// or nil if empty. Every entry in one MLQ priority-level queue already
// shares that level's priority, so FIFO order within a level is what
// the source's priority-scanning dequeue reduces to in practice; the
// single-queue policy is FIFO by definition.
func (q *queue) dequeue() *proc.PCB {
	if len(q.procs) == 0 {
		return nil
	}
	p := q.procs[0]
	q.procs = q.procs[1:]
	return p
}
