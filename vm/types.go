// Package vm implements the per-process address space: virtual
// memory areas, a page directory, demand paging and FIFO page
// replacement. It is the Go-native reworking of the source's mm_struct
// / vm_area_struct / pte_t trio, generalized from the source's global
// vmlock to a lock owned by each MM, the way Vm_t owns its own mutex
// in the teacher package this was grounded on.
package vm

import (
	"fmt"
	"strings"
	"sync"

	"ossim/mem"
	"ossim/paging"
)

// Devices is the pair of physical memory devices a process's address
// space pages against: its resident RAM and its one active swap
// store. MM never holds these itself -- they belong to whatever owns
// the MM (a PCB) and are threaded through on every call that might
// need to fault a page in, the same way the source threads caller
// through pg_getpage.
type Devices interface {
	RAM() mem.Device
	Swap() mem.Device
}

// Region is a named or free span of a VMA's virtual address range,
// [Start, End). nextFree links it into its owning VMA's free list; it
// is unused once a region is handed out via the symbol table.
type Region struct {
	Start, End int
	VMAID      int

	nextFree *Region
}

func (r Region) size() int { return r.End - r.Start }

// VMA is one virtual memory area: a contiguous, growable span of a
// process's address space carrying its own id, its own free list of
// reclaimed sub-regions, and a high-water mark (Sbrk) below which an
// allocation either hits the free list or extends the area.
type VMA struct {
	ID    int
	Start int
	End   int
	Sbrk  int

	FreeList *Region
	Next     *VMA
}

// getFreeArea runs a first-fit scan of the VMA's free list. An exact
// match is spliced out; a larger one is shrunk from the left. It
// reports whether a region was found.
func (v *VMA) getFreeArea(size int) (Region, bool) {
	var prev *Region
	for cur := v.FreeList; cur != nil; cur = cur.nextFree {
		if cur.size() < size {
			prev = cur
			continue
		}
		rg := Region{Start: cur.Start, End: cur.Start + size, VMAID: v.ID}
		if cur.size() == size {
			if prev == nil {
				v.FreeList = cur.nextFree
			} else {
				prev.nextFree = cur.nextFree
			}
		} else {
			cur.Start += size
		}
		return rg, true
	}
	return Region{}, false
}

// enlistFreeRegion prepends rg to the VMA's own free list. Unlike the
// source's enlist_vm_freerg_list, which always enlists into VMA 0's
// list regardless of the region's actual vm_id, each VMA here keeps
// its own list -- see DESIGN.md for why that source behavior wasn't
// worth preserving.
func (v *VMA) enlistFreeRegion(rg *Region) {
	rg.nextFree = v.FreeList
	v.FreeList = rg
}

// MM is a process's address space: a page directory, the list of
// VMAs that partition it, and the symbol table of named regions an
// owning process refers to by small integer id.
type MM struct {
	mu sync.Mutex

	// pmapTaken guards against a caller re-entering a locked method
	// without going through Lock/Unlock, mirroring Vm_t's
	// pgfltaken/Lockassert_pmap pattern.
	pmapTaken bool

	PGD      [paging.MaxPGN]paging.PTE
	Mmap     *VMA
	SymRegTbl [paging.MaxSymTableSize]Region

	// fifoPGN tracks resident page numbers in load order, oldest
	// first, for FIFO victim selection.
	fifoPGN []int
}

// New builds an address space with two VMAs: id 0 (data) starting at
// virtual address 0, and id 1 (heap) starting two pages further up to
// leave a guard gap. Both start empty; the first allocation against
// either grows it, rather than being seeded with an unmapped "free"
// region the way init_mm does (see DESIGN.md).
func New() *MM {
	data := &VMA{ID: 0, Start: 0, End: 0, Sbrk: 0}
	heapStart := data.End + 2*mem.PageSize
	heap := &VMA{ID: 1, Start: heapStart, End: heapStart, Sbrk: heapStart}
	data.Next = heap
	return &MM{Mmap: data}
}

// Lock acquires the address space's lock. Lock/Unlock bracket every
// public operation; internal helpers assert it's held via
// lockAssert rather than re-acquiring it.
func (mm *MM) Lock() {
	mm.mu.Lock()
	mm.pmapTaken = true
}

// Unlock releases the address space's lock.
func (mm *MM) Unlock() {
	mm.pmapTaken = false
	mm.mu.Unlock()
}

func (mm *MM) lockAssert() {
	if !mm.pmapTaken {
		panic("vm: MM method called without holding the lock")
	}
}

// VMAByNum looks up a VMA by id, or nil if none matches.
func (mm *MM) VMAByNum(vmaid int) *VMA {
	for v := mm.Mmap; v != nil; v = v.Next {
		if v.ID == vmaid {
			return v
		}
	}
	return nil
}

// SymRegion returns the region currently bound to rgid and whether
// rgid is in range.
func (mm *MM) SymRegion(rgid int) (Region, bool) {
	if rgid < 0 || rgid >= paging.MaxSymTableSize {
		return Region{}, false
	}
	return mm.SymRegTbl[rgid], true
}

// DumpPageTable renders present/swapped-out page table entries, the
// Go-native equivalent of the source's print_pgtbl diagnostic. Callers
// gate it behind a debug log level rather than printing unconditionally.
func (mm *MM) DumpPageTable() string {
	var b strings.Builder
	for pgn, pte := range mm.PGD {
		switch {
		case paging.Resident(pte):
			fmt.Fprintf(&b, "pgn %04d -> fpn %d\n", pgn, paging.FPN(pte))
		case paging.Swapped(pte):
			typ, off := paging.Swap(pte)
			fmt.Fprintf(&b, "pgn %04d -> swap(%d,%d)\n", pgn, typ, off)
		}
	}
	return b.String()
}
