package vm

import (
	"errors"
	"testing"

	"ossim/errs"
	"ossim/mem"

	"github.com/stretchr/testify/require"
)

type fakeDevices struct {
	ram  mem.Device
	swap mem.Device
}

func (f fakeDevices) RAM() mem.Device  { return f.ram }
func (f fakeDevices) Swap() mem.Device { return f.swap }

func newFakeDevices(ramFrames, swapFrames int) fakeDevices {
	return fakeDevices{
		ram:  mem.New(ramFrames, "ram"),
		swap: mem.New(swapFrames, "swap"),
	}
}

func TestAllocServesFromGrowthThenReadWrite(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)

	addr, err := mm.Alloc(d, 0, 0, 100)
	require.NoError(t, err)
	require.Equal(t, 0, addr)

	require.NoError(t, mm.Write(d, 0, 10, 42))
	got, err := mm.Read(d, 0, 10)
	require.NoError(t, err)
	require.Equal(t, byte(42), got)
}

func TestAllocThenFreeThenReallocReusesFreeList(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)

	first, err := mm.Alloc(d, 1, 0, 300)
	require.NoError(t, err)
	require.NoError(t, mm.Free(0))

	second, err := mm.Alloc(d, 1, 1, 300)
	require.NoError(t, err)
	require.Equal(t, first, second, "an exact-size free region must be reused by the next same-size alloc")
}

func TestAllocMonotonicSbrk(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)

	heap := mm.VMAByNum(1)
	before := heap.Sbrk
	_, err := mm.Alloc(d, 1, 0, 50)
	require.NoError(t, err)
	require.GreaterOrEqual(t, heap.Sbrk, before+50)
}

func TestAllocInvalidRegionID(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)
	_, err := mm.Alloc(d, 0, -1, 10)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)

	_, err = mm.Alloc(d, 0, 1000, 10)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)
}

func TestAllocUnknownVMA(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)
	_, err := mm.Alloc(d, 7, 0, 10)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)
}

func TestReadWriteOutOfBoundsOffset(t *testing.T) {
	mm := New()
	d := newFakeDevices(16, 16)
	_, err := mm.Alloc(d, 0, 0, 50)
	require.NoError(t, err)

	_, err = mm.Read(d, 0, 50)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)

	_, err = mm.Read(d, 0, -1)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)

	err = mm.Write(d, 0, 50, 1)
	require.ErrorIs(t, err, errs.ErrInvalidRegion)
}

func TestDemandPagingEvictsOldestResidentPage(t *testing.T) {
	mm := New()
	// Exactly one RAM frame (frame 0 withheld), so a second page
	// forces the first one out to swap.
	d := newFakeDevices(2, 4)

	_, err := mm.Alloc(d, 1, 0, 200) // first page, region 0
	require.NoError(t, err)
	require.NoError(t, mm.Write(d, 0, 5, 1))

	_, err = mm.Alloc(d, 1, 1, 200) // second page, region 1: must evict region 0's page
	require.NoError(t, err)
	require.NoError(t, mm.Write(d, 1, 5, 2))

	// Reading region 0 again must fault it back in without losing
	// its previously written value.
	got, err := mm.Read(d, 0, 5)
	require.NoError(t, err)
	require.Equal(t, byte(1), got)

	got, err = mm.Read(d, 1, 5)
	require.NoError(t, err)
	require.Equal(t, byte(2), got)
}

func TestFindVictimPageEmptyErrorsOnExhaustion(t *testing.T) {
	mm := New()
	// No RAM and no swap frames at all: even the very first page
	// cannot be mapped.
	d := newFakeDevices(1, 1) // one frame each, both frame 0, withheld

	_, err := mm.Alloc(d, 0, 0, 50)
	require.Error(t, err)
	require.True(t, errors.Is(err, errs.ErrAllocFailed) || errors.Is(err, errs.ErrOutOfMemory))
}

func TestFreeInvalidRegionID(t *testing.T) {
	mm := New()
	require.ErrorIs(t, mm.Free(-1), errs.ErrInvalidRegion)
	require.ErrorIs(t, mm.Free(5), errs.ErrInvalidRegion)
}

func TestValidateOverlapRejectsIntersectingGrowth(t *testing.T) {
	mm := New()
	other := &VMA{ID: 0, Start: 10 * mem.PageSize, End: 20 * mem.PageSize}
	mm.Mmap.Next.Next = other // graft an extra VMA sharing id 0

	err := mm.validateOverlap(0, 15*mem.PageSize, 18*mem.PageSize)
	require.ErrorIs(t, err, errs.ErrOverlap)
}
