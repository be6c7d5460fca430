package vm

import (
	"fmt"

	"ossim/errs"
	"ossim/mem"
	"ossim/paging"

	"github.com/sirupsen/logrus"
)

// allocPagesRange obtains n free RAM frames, evicting resident pages
// via FIFO replacement when the RAM device runs dry. Frames obtained
// by eviction are recorded in the victim's PTE as swapped-out before
// being handed back as free for the caller's use. If nothing could be
// obtained at all, it returns ErrAllocFailed; if some frames were
// obtained before a later one failed, those are returned to the RAM
// device and ErrOutOfMemory is returned instead.
func (mm *MM) allocPagesRange(d Devices, n int) ([]int, error) {
	mm.lockAssert()
	frames := make([]int, 0, n)
	for i := 0; i < n; i++ {
		if fpn, err := d.RAM().GetFreeFrame(); err == nil {
			frames = append(frames, fpn)
			continue
		}

		vicpgn, err := mm.findVictimPage()
		if err != nil {
			return mm.unwindAlloc(d, frames, err)
		}
		swpfpn, err := d.Swap().GetFreeFrame()
		if err != nil {
			return mm.unwindAlloc(d, frames, err)
		}

		vicpte := mm.PGD[vicpgn]
		vicfpn := paging.FPN(vicpte)
		if err := mem.CopyPage(d.RAM(), vicfpn, d.Swap(), swpfpn); err != nil {
			return mm.unwindAlloc(d, frames, err)
		}
		paging.SetSwap(&mm.PGD[vicpgn], 0, swpfpn)
		frames = append(frames, vicfpn)
	}
	return frames, nil
}

func (mm *MM) unwindAlloc(d Devices, frames []int, cause error) ([]int, error) {
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %v", errs.ErrAllocFailed, cause)
	}
	for _, fpn := range frames {
		d.RAM().PutFreeFrame(fpn)
	}
	logrus.WithError(cause).Warn("vm: alloc_pages_range rolled back a partial allocation")
	return nil, errs.ErrOutOfMemory
}

// mapPageRange installs frames into consecutive page table entries
// starting at the page containing addr, recording each in FIFO load
// order, and returns the mapped region.
func (mm *MM) mapPageRange(addr int, frames []int) Region {
	mm.lockAssert()
	pgn := addr / mem.PageSize
	for i, fpn := range frames {
		paging.SetFPN(&mm.PGD[pgn+i], fpn)
		mm.fifoPGN = append(mm.fifoPGN, pgn+i)
	}
	return Region{Start: addr, End: addr + len(frames)*mem.PageSize, VMAID: mm.Mmap.ID}
}

// mapRAM allocates and installs incpgnum pages' worth of frames
// starting at mapstart. It is the combination of the source's
// vm_map_ram and alloc_pages_range.
func (mm *MM) mapRAM(d Devices, mapstart, incpgnum int) (Region, error) {
	mm.lockAssert()
	frames, err := mm.allocPagesRange(d, incpgnum)
	if err != nil {
		return Region{}, err
	}
	return mm.mapPageRange(mapstart, frames), nil
}

// findVictimPage pops and returns the oldest resident page number
// from the FIFO replacement list.
func (mm *MM) findVictimPage() (int, error) {
	mm.lockAssert()
	if len(mm.fifoPGN) == 0 {
		return 0, errs.ErrNoVictim
	}
	pgn := mm.fifoPGN[0]
	mm.fifoPGN = mm.fifoPGN[1:]
	return pgn, nil
}

// getPage returns the resident frame number backing pgn, faulting the
// page in from swap first if necessary.
//
// The source's pg_getpage copies the victim's frame using the active
// swap device as both the copy source and destination
// (__swap_cp_page(active_mswp, vicpgn, active_mswp, swpfpn)), which
// reads the wrong store at the wrong offset. This corrects the
// addressing: the victim's RAM frame is copied out to swap, and the
// faulting page's swapped-out content is copied into the frame the
// victim just vacated. See DESIGN.md for the reasoning.
func (mm *MM) getPage(d Devices, pgn int) (int, error) {
	mm.lockAssert()
	pte := mm.PGD[pgn]
	if paging.Resident(pte) {
		return paging.FPN(pte), nil
	}
	if !paging.Present(pte) {
		return 0, errs.ErrInvalidAccess
	}

	vicpgn, err := mm.findVictimPage()
	if err != nil {
		return 0, err
	}
	swpfpn, err := d.Swap().GetFreeFrame()
	if err != nil {
		return 0, err
	}

	_, tgtoff := paging.Swap(pte)
	vicfpn := paging.FPN(mm.PGD[vicpgn])

	if err := mem.CopyPage(d.RAM(), vicfpn, d.Swap(), swpfpn); err != nil {
		return 0, err
	}
	if err := mem.CopyPage(d.Swap(), tgtoff, d.RAM(), vicfpn); err != nil {
		return 0, err
	}

	paging.SetSwap(&mm.PGD[vicpgn], 0, swpfpn)
	paging.SetFPN(&pte, vicfpn)
	mm.PGD[pgn] = pte
	mm.fifoPGN = append(mm.fifoPGN, pgn)
	return vicfpn, nil
}

// readByte reads one byte at the given virtual address, faulting the
// containing page in if needed.
func (mm *MM) readByte(d Devices, addr int) (byte, error) {
	mm.lockAssert()
	pgn, off := addr/mem.PageSize, addr%mem.PageSize
	fpn, err := mm.getPage(d, pgn)
	if err != nil {
		return 0, err
	}
	return d.RAM().ReadByte(fpn*mem.PageSize + off)
}

// writeByte writes one byte at the given virtual address, faulting
// the containing page in if needed.
func (mm *MM) writeByte(d Devices, addr int, b byte) error {
	mm.lockAssert()
	pgn, off := addr/mem.PageSize, addr%mem.PageSize
	fpn, err := mm.getPage(d, pgn)
	if err != nil {
		return err
	}
	return d.RAM().WriteByte(fpn*mem.PageSize+off, b)
}
