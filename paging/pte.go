// Package paging defines the page table entry layout and the page
// directory sizing constants shared by the vm subsystem. A page table
// entry is a single uint32 bitfield, mirroring the source's 32-bit
// pte_t, with PRESENT/SWAPPED/DIRTY flag bits plus either a frame
// number (for a resident page) or a swap type/offset pair (for a
// paged-out one).
//
// PRESENT means "has a valid mapping at all", set for both a resident
// page and one that has been paged out; SWAPPED distinguishes the
// latter. A page currently backed by a frame is PRESENT && !SWAPPED;
// one paged out is PRESENT && SWAPPED; an entry that was never mapped
// is neither. Resident reports the first of those directly.
package paging

import (
	"fmt"

	"ossim/errs"
)

const (
	// MaxPGN bounds the number of page table entries a page
	// directory holds (the simulated virtual address space is
	// MaxPGN pages deep).
	MaxPGN = 1024

	// MaxSymTableSize bounds the number of named regions a process
	// can track (region ids are valid in [0, MaxSymTableSize)).
	MaxSymTableSize = 32
)

// PTE is a single page table entry.
type PTE uint32

const (
	presentBit = 1 << 31
	swappedBit = 1 << 30
	dirtyBit   = 1 << 29

	fpnMask  = 0x00FFFFFF
	fpnLobit = 0

	swpTypMask  = 0x0F000000
	swpTypLobit = 24
	swpOffMask  = 0x00FFFFFF
	swpOffLobit = 0
)

// Present reports whether the entry has any valid mapping, resident
// or swapped-out.
func Present(p PTE) bool {
	return p&presentBit != 0
}

// Swapped reports whether the entry currently points into swap rather
// than a resident frame.
func Swapped(p PTE) bool {
	return p&swappedBit != 0
}

// Resident reports whether the entry is backed by a RAM frame right
// now (present and not swapped out).
func Resident(p PTE) bool {
	return Present(p) && !Swapped(p)
}

// Dirty reports whether the resident page has been written since it
// was last brought in.
func Dirty(p PTE) bool {
	return p&dirtyBit != 0
}

// FPN extracts the resident frame number from a present, non-swapped
// entry.
func FPN(p PTE) int {
	return int((p & fpnMask) >> fpnLobit)
}

// Swap extracts the swap type and offset from a swapped entry.
func Swap(p PTE) (typ, off int) {
	typ = int((p & swpTypMask) >> swpTypLobit)
	off = int((p & swpOffMask) >> swpOffLobit)
	return typ, off
}

// Init is the central PTE constructor: present && !swap builds a
// resident entry at fpn, present && swap builds a swapped-out entry
// at (swpTyp, swpOff), and !present builds an empty, unmapped entry.
// dirty is applied on top either way.
//
// A resident entry with fpn 0 is rejected: frame 0 is permanently
// withheld from every device's free pool (see mem.New), so a caller
// asking to map it is a programming error, not a runtime condition.
func Init(present bool, fpn int, dirty, swap bool, swpTyp, swpOff int) (PTE, error) {
	var p PTE
	if present {
		p |= presentBit
		if swap {
			p |= swappedBit
			p |= PTE(swpTyp<<swpTypLobit) & swpTypMask
			p |= PTE(swpOff<<swpOffLobit) & swpOffMask
		} else {
			if fpn == 0 {
				return 0, fmt.Errorf("paging: frame 0 is reserved: %w", errs.ErrInvalidAccess)
			}
			p |= PTE(fpn<<fpnLobit) & fpnMask
		}
	}
	if dirty {
		p |= dirtyBit
	}
	return p, nil
}

// SetFPN marks the entry resident at fpn, clearing any swap bits it
// previously carried and preserving its dirty bit. It panics if fpn
// is 0, since no caller should ever have obtained that frame to map
// (see Init).
func SetFPN(p *PTE, fpn int) {
	v, err := Init(true, fpn, Dirty(*p), false, 0, 0)
	if err != nil {
		panic(err)
	}
	*p = v
}

// SetSwap marks the entry swapped-out at the given swap type/offset,
// setting both PRESENT and SWAPPED per the page table entry's layout,
// and preserving its dirty bit.
func SetSwap(p *PTE, typ, off int) {
	v, _ := Init(true, 0, Dirty(*p), true, typ, off) // swap=true never hits the fpn==0 check
	*p = v
}

// SetDirty sets or clears the dirty bit without disturbing the rest
// of the entry.
func SetDirty(p *PTE, dirty bool) {
	if dirty {
		*p |= dirtyBit
	} else {
		*p &^= dirtyBit
	}
}
