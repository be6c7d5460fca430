// Package proc implements the process control block: a process's
// address space bundled with the physical devices it pages against
// and the priority the scheduler dispatches it by. It is the thin
// per-process layer the vm engine is threaded through, analogous to
// how the source's alloc/free/read/write calls take a caller *pcb_t.
package proc

import (
	"ossim/mem"
	"ossim/paging"
	"ossim/vm"

	"github.com/sirupsen/logrus"
)

// VMA ids a freshly created process's two default VMAs are
// addressed by.
const (
	VMAData = 0
	VMAHeap = 1
)

// PCB is one simulated process.
type PCB struct {
	ID       int
	Priority int

	MM   *vm.MM
	ram  mem.Device
	swap mem.Device
}

// New creates a process with a fresh address space, backed by the
// given RAM and swap devices (shared across every process scheduled
// against the same simulated machine).
func New(id, priority int, ram, swap mem.Device) *PCB {
	return &PCB{
		ID:       id,
		Priority: priority,
		MM:       vm.New(),
		ram:      ram,
		swap:     swap,
	}
}

// RAM implements vm.Devices.
func (p *PCB) RAM() mem.Device { return p.ram }

// Swap implements vm.Devices.
func (p *PCB) Swap() mem.Device { return p.swap }

// PgAlloc allocates a size-byte region out of the process's data VMA
// and binds it to regIndex.
func (p *PCB) PgAlloc(size, regIndex int) error {
	_, err := p.MM.Alloc(p, VMAData, regIndex, size)
	return err
}

// PgMalloc allocates a size-byte region out of the process's heap VMA
// and binds it to regIndex.
func (p *PCB) PgMalloc(size, regIndex int) error {
	_, err := p.MM.Alloc(p, VMAHeap, regIndex, size)
	return err
}

// PgFreeData returns regIndex's region to its VMA's free list.
func (p *PCB) PgFreeData(regIndex int) error {
	return p.MM.Free(regIndex)
}

// PgRead returns the byte at offset within the region bound to
// source.
func (p *PCB) PgRead(source, offset int) (byte, error) {
	return p.MM.Read(p, source, offset)
}

// PgWrite stores data at offset within the region bound to
// destination.
func (p *PCB) PgWrite(data byte, destination, offset int) error {
	return p.MM.Write(p, destination, offset, data)
}

// Teardown releases every frame the process's address space still
// holds, resident or swapped out, back to the devices they came from.
//
// The source's free_pcb_memph frees a page's RAM frame when its PTE
// is *not* present, and its swap frame when it *is* present --
// backwards, since a present page has no swap slot to give back and
// an absent-but-unswapped page has no frame at all. This frees the
// correct store for each case instead of reproducing that inversion.
func (p *PCB) Teardown() {
	p.MM.Lock()
	defer p.MM.Unlock()

	released := 0
	for pgn := range p.MM.PGD {
		pte := p.MM.PGD[pgn]
		switch {
		case paging.Resident(pte):
			p.ram.PutFreeFrame(paging.FPN(pte))
			released++
		case paging.Swapped(pte):
			_, off := paging.Swap(pte)
			p.swap.PutFreeFrame(off)
			released++
		}
	}
	logrus.WithFields(logrus.Fields{
		"pid":      p.ID,
		"released": released,
	}).Debug("proc: address space torn down")
}
