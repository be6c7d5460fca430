package mem

import (
	"fmt"
	"strings"
	"sync"

	"ossim/errs"

	"github.com/sirupsen/logrus"
)

// MemPhy is a flat byte-addressable store divided into fixed-size
// frames, with a stack of free frame numbers. It stands in for both
// the RAM device and the swap device; which one a given MemPhy plays
// is just a matter of which handle a caller was given.
//
// Frame 0 is never handed out: a zero frame number doubles as the
// "not present" sentinel in a page table entry, so the allocator
// reserves it permanently.
type MemPhy struct {
	mu    sync.Mutex
	name  string
	store []byte
	free  []int
}

// New builds a MemPhy with numFrames frames, numbered 0..numFrames-1,
// with frame 0 withheld from the free pool. name is used only in log
// lines and Dump output.
func New(numFrames int, name string) *MemPhy {
	m := &MemPhy{
		name:  name,
		store: make([]byte, numFrames*PageSize),
		free:  make([]int, 0, numFrames-1),
	}
	for fpn := numFrames - 1; fpn >= 1; fpn-- {
		m.free = append(m.free, fpn)
	}
	return m
}

func (m *MemPhy) ReadByte(addr int) (byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= len(m.store) {
		return 0, fmt.Errorf("%s: read at %d: %w", m.name, addr, errs.ErrOutOfRange)
	}
	return m.store[addr], nil
}

func (m *MemPhy) WriteByte(addr int, b byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if addr < 0 || addr >= len(m.store) {
		return fmt.Errorf("%s: write at %d: %w", m.name, addr, errs.ErrOutOfRange)
	}
	m.store[addr] = b
	return nil
}

// GetFreeFrame pops a frame number off the free stack.
func (m *MemPhy) GetFreeFrame() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.free) == 0 {
		return 0, fmt.Errorf("%s: %w", m.name, errs.ErrNoFreeFrame)
	}
	n := len(m.free) - 1
	fpn := m.free[n]
	m.free = m.free[:n]
	return fpn, nil
}

// PutFreeFrame returns a frame to the pool. Frame 0 is refused
// silently since it was never handed out.
func (m *MemPhy) PutFreeFrame(fpn int) {
	if fpn <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.free = append(m.free, fpn)
}

// NumFrames reports the device's total frame count.
func (m *MemPhy) NumFrames() int {
	return len(m.store) / PageSize
}

// Dump renders a short human-readable summary of free-pool occupancy,
// grounded on the source's MEMPHY_dump diagnostic. Callers log it at
// debug level rather than printing it unconditionally.
func (m *MemPhy) Dump() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d/%d frames free", m.name, len(m.free), m.NumFrames())
	return b.String()
}

// LogDump emits Dump's output through logrus at debug level.
func (m *MemPhy) LogDump() {
	logrus.WithField("device", m.name).Debug(m.Dump())
}
