// Package errs collects the sentinel errors shared by the paging and
// scheduling subsystems. It replaces the source's sentinel integers
// (-1, -3000, ...) with tagged values checked via errors.Is, per the
// error-channel redesign called for by the specification.
package errs

import "errors"

var (
	// ErrInvalidRegion is returned for an out-of-range region id, an
	// unknown VMA id, or a symbol-table slot that was never allocated.
	ErrInvalidRegion = errors.New("invalid region id")

	// ErrOverlap means a requested VMA extension would intersect
	// another VMA sharing the same vm_id.
	ErrOverlap = errors.New("vm area overlap")

	// ErrOutOfMemory is returned when alloc_pages_range could not
	// evict a victim page to make room; partial allocations are
	// unwound before this is returned.
	ErrOutOfMemory = errors.New("out of physical memory")

	// ErrAllocFailed means no frame could be obtained at all (not
	// even one), and nothing needs to be unwound.
	ErrAllocFailed = errors.New("frame allocation failed")

	// ErrNoVictim is returned by victim selection when the
	// replacement-tracking list is empty.
	ErrNoVictim = errors.New("no victim page available")

	// ErrNoFreeFrame is returned by a device's free-frame pool when
	// it is exhausted.
	ErrNoFreeFrame = errors.New("no free frame")

	// ErrInvalidAccess covers a page access with no PTE present and
	// no swap backing to fault in.
	ErrInvalidAccess = errors.New("invalid page access")

	// ErrQueueFull is returned by enqueue when a queue is already at
	// MaxQueueSize.
	ErrQueueFull = errors.New("queue is full")

	// ErrOutOfRange is returned for a byte address outside a device's
	// backing store.
	ErrOutOfRange = errors.New("address out of range")
)
