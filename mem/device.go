// Package mem models the byte-addressable physical devices that back
// a process's pages: RAM and the swap store. Unlike the source, which
// keeps a single global RAM array and a single global swap array, a
// Device here is just an interface, so a test can wire up RAM and
// swap stores of whatever size a scenario needs.
package mem

const (
	// PageSize is the size in bytes of a single page/frame.
	PageSize = 256

	// AddrFPNLobit is the bit offset at which a frame number starts
	// within a physical byte address (log2(PageSize)).
	AddrFPNLobit = 8
)

// Device is anything that looks like a physical memory: a flat array
// of frames, addressable byte-by-byte, with a free-frame pool.
type Device interface {
	ReadByte(addr int) (byte, error)
	WriteByte(addr int, b byte) error
	GetFreeFrame() (int, error)
	PutFreeFrame(fpn int)
	Dump() string
}

// CopyPage copies one full page from src at srcFPN to dst at dstFPN,
// byte by byte. It is the Device-level primitive used whenever a page
// crosses between RAM and swap during eviction or fault handling.
func CopyPage(src Device, srcFPN int, dst Device, dstFPN int) error {
	srcBase := srcFPN << AddrFPNLobit
	dstBase := dstFPN << AddrFPNLobit
	for off := 0; off < PageSize; off++ {
		b, err := src.ReadByte(srcBase + off)
		if err != nil {
			return err
		}
		if err := dst.WriteByte(dstBase+off, b); err != nil {
			return err
		}
	}
	return nil
}
