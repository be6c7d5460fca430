// Package sched implements the dispatcher: either a multi-level
// queue scheduler with slot-based weighted round robin across
// priority levels, or a single FIFO queue, selected at construction
// time rather than by the source's MLQ_SCHED build-time switch.
package sched

import (
	"context"
	"sync"

	"ossim/proc"

	"golang.org/x/sync/errgroup"
)

// MaxPrio is the number of MLQ priority levels, and the ceiling on a
// process's Priority field.
const MaxPrio = 4

// Policy selects which dispatch discipline a Scheduler runs.
type Policy int

const (
	// MLQ dispatches via MaxPrio priority levels, each replenished
	// with MaxPrio-level slots once every level has been drained to
	// zero in the current round, or once no level with queued
	// processes has a slot left.
	MLQ Policy = iota
	// SingleQueue dispatches a single FIFO run queue.
	SingleQueue
)

// Scheduler holds the runnable-process queues for one simulated
// machine and dispatches Get/Put/Add against whichever policy it was
// built with.
type Scheduler struct {
	mu     sync.Mutex
	policy Policy

	mlq  [MaxPrio]queue
	slot [MaxPrio]int

	ready queue
	run   queue
}

// New builds a Scheduler for the given policy.
func New(policy Policy) *Scheduler {
	s := &Scheduler{policy: policy}
	if policy == MLQ {
		s.resetSlots()
	}
	return s
}

func (s *Scheduler) resetSlots() {
	for p := range s.slot {
		s.slot[p] = MaxPrio - p
	}
}

// Empty reports whether the scheduler has no runnable process
// anywhere.
func (s *Scheduler) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == MLQ {
		for i := range s.mlq {
			if !s.mlq[i].empty() {
				return false
			}
		}
		return true
	}
	return s.ready.empty() && s.run.empty()
}

// Get removes and returns the next process to run, or nil if none is
// runnable right now.
func (s *Scheduler) Get() *proc.PCB {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == MLQ {
		return s.getMLQ()
	}
	return s.getSingle()
}

// getMLQ implements the slot-based weighted round robin: once every
// level's slot count has reached zero, all levels refill to
// MaxPrio-level before the scan resumes from level 0. All levels also
// refill when every level that has queued processes is out of slots.
func (s *Scheduler) getMLQ() *proc.PCB {
	allZero := true
	for _, sl := range s.slot {
		if sl > 0 {
			allZero = false
			break
		}
	}
	if allZero {
		s.resetSlots()
	}
	for p := 0; p < MaxPrio; p++ {
		if s.mlq[p].empty() || s.slot[p] <= 0 {
			continue
		}
		s.slot[p]--
		return s.mlq[p].dequeue()
	}
	// No level with queued work has a slot left. Levels with nothing
	// queued may still hold slots, so refill every level now and serve
	// the first non-empty one rather than leave its work stranded.
	for p := 0; p < MaxPrio; p++ {
		if !s.mlq[p].empty() {
			s.resetSlots()
			s.slot[p]--
			return s.mlq[p].dequeue()
		}
	}
	return nil
}

func (s *Scheduler) getSingle() *proc.PCB {
	if s.ready.empty() {
		for !s.run.empty() {
			p := s.run.dequeue()
			_ = s.ready.enqueue(p)
		}
	}
	return s.ready.dequeue()
}

// Put returns a process that yielded the CPU back to the scheduler.
// Under MLQ it goes back to its own priority level; under
// SingleQueue it lands on the run queue behind everything already
// waiting on the next sweep.
func (s *Scheduler) Put(p *proc.PCB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == MLQ {
		_ = s.mlq[levelOf(p)].enqueue(p)
		return
	}
	_ = s.run.enqueue(p)
}

// Add admits a newly created process to the scheduler for the first
// time.
func (s *Scheduler) Add(p *proc.PCB) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policy == MLQ {
		_ = s.mlq[levelOf(p)].enqueue(p)
		return
	}
	_ = s.ready.enqueue(p)
}

func levelOf(p *proc.PCB) int {
	if p.Priority < 0 {
		return 0
	}
	if p.Priority >= MaxPrio {
		return MaxPrio - 1
	}
	return p.Priority
}

// RunWorkers simulates n concurrent CPUs pulling processes off the
// scheduler and handing each to work, until the scheduler empties out
// or ctx is cancelled. It is the concurrent analogue of the source's
// single-threaded dispatch loop, grounded on the package's existing
// lock-per-operation discipline plus errgroup for fan-out.
func (s *Scheduler) RunWorkers(ctx context.Context, n int, work func(*proc.PCB)) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				p := s.Get()
				if p == nil {
					if s.Empty() {
						return nil
					}
					continue
				}
				work(p)
			}
		})
	}
	return g.Wait()
}
