package vm

import (
	"ossim/align"
	"ossim/errs"
	"ossim/mem"
	"ossim/paging"
)

// Alloc binds rgid to a size-byte region of the VMA vmaid, serving it
// from the VMA's free list when possible and growing the VMA
// otherwise. It returns the region's starting virtual address.
func (mm *MM) Alloc(d Devices, vmaid, rgid, size int) (int, error) {
	mm.Lock()
	defer mm.Unlock()

	if rgid < 0 || rgid >= paging.MaxSymTableSize {
		return 0, errs.ErrInvalidRegion
	}
	vma := mm.VMAByNum(vmaid)
	if vma == nil {
		return 0, errs.ErrInvalidRegion
	}

	if rg, ok := vma.getFreeArea(size); ok {
		mm.SymRegTbl[rgid] = rg
		return rg.Start, nil
	}

	incSz := align.Up(size, mem.PageSize)
	oldSbrk := vma.Sbrk
	if err := mm.incVMALimit(d, vmaid, incSz); err != nil {
		return 0, err
	}
	if oldSbrk+size < vma.End {
		vma.enlistFreeRegion(&Region{Start: oldSbrk + size, End: vma.End, VMAID: vmaid})
	}

	mm.SymRegTbl[rgid] = Region{Start: oldSbrk, End: oldSbrk + size, VMAID: vmaid}
	vma.Sbrk = oldSbrk + size
	return oldSbrk, nil
}

// Free returns rgid's region to its VMA's free list.
func (mm *MM) Free(rgid int) error {
	mm.Lock()
	defer mm.Unlock()

	if rgid < 0 || rgid >= paging.MaxSymTableSize {
		return errs.ErrInvalidRegion
	}
	rg := mm.SymRegTbl[rgid]
	if rg.End <= rg.Start {
		return errs.ErrInvalidRegion
	}
	vma := mm.VMAByNum(rg.VMAID)
	if vma == nil {
		return errs.ErrInvalidRegion
	}
	vma.enlistFreeRegion(&Region{Start: rg.Start, End: rg.End, VMAID: rg.VMAID})
	mm.SymRegTbl[rgid] = Region{}
	return nil
}

// Read returns the byte at offset within rgid's region.
func (mm *MM) Read(d Devices, rgid, offset int) (byte, error) {
	mm.Lock()
	defer mm.Unlock()

	rg, err := mm.boundRegion(rgid, offset)
	if err != nil {
		return 0, err
	}
	return mm.readByte(d, rg.Start+offset)
}

// Write stores b at offset within rgid's region.
func (mm *MM) Write(d Devices, rgid, offset int, b byte) error {
	mm.Lock()
	defer mm.Unlock()

	rg, err := mm.boundRegion(rgid, offset)
	if err != nil {
		return err
	}
	return mm.writeByte(d, rg.Start+offset, b)
}

func (mm *MM) boundRegion(rgid, offset int) (Region, error) {
	if rgid < 0 || rgid >= paging.MaxSymTableSize {
		return Region{}, errs.ErrInvalidRegion
	}
	rg := mm.SymRegTbl[rgid]
	if rg.End <= rg.Start || offset < 0 || rg.Start+offset >= rg.End {
		return Region{}, errs.ErrInvalidRegion
	}
	return rg, nil
}

// validateOverlap reports ErrOverlap if [lo, hi) would intersect any
// existing VMA sharing vmaid.
func (mm *MM) validateOverlap(vmaid, lo, hi int) error {
	for v := mm.Mmap; v != nil; v = v.Next {
		if v.ID != vmaid || v.Start >= v.End {
			continue
		}
		if lo < v.End && v.Start < hi {
			return errs.ErrOverlap
		}
	}
	return nil
}

// incVMALimit grows vma's end by incSz bytes and maps the new span
// into RAM.
//
// The source computes the region to validate and map starting at the
// VMA's sbrk, but maps new physical frames starting at the VMA's
// vm_end -- two different addresses whenever a prior partial growth
// left an unconsumed gap below vm_end, which would corrupt validation
// and leave the mapped span at the wrong address. This always grows
// and maps from vm_end, which is the only address a fresh extension
// can safely start from; see DESIGN.md.
func (mm *MM) incVMALimit(d Devices, vmaid, incSz int) error {
	vma := mm.VMAByNum(vmaid)
	if vma == nil {
		return errs.ErrInvalidRegion
	}

	areaStart := vma.End
	areaEnd := areaStart + incSz
	if err := mm.validateOverlap(vmaid, areaStart, areaEnd); err != nil {
		return err
	}

	oldEnd := vma.End
	vma.End = areaEnd
	if _, err := mm.mapRAM(d, oldEnd, incSz/mem.PageSize); err != nil {
		vma.End = oldEnd
		return err
	}
	return nil
}
