package fwcfg

import (
	"encoding/binary"

	"github.com/tinyrange/fwcfg/internal/reg"
)

// fw_cfg MMIO register offsets within the device window.
const (
	MMIOData     = 0x00 // data register (native-order multi-byte reads)
	MMIOSelector = 0x08 // selector register (16-bit big-endian write)
	MMIODMA      = 0x10 // DMA address register (two big-endian 32-bit writes)
)

// DefaultMMIOBase is where QEMU places the fw_cfg window on the arm64
// and riscv64 virt machines. Other machine types publish the address in
// their device tree.
const DefaultMMIOBase = 0x09020000

// MMIOTransport drives fw_cfg through a memory-mapped register block.
//
// The selector and DMA registers are big-endian, but bulk data reads
// deliver bytes in native order: the device preserves host-native byte
// layout for the data stream even though the control registers do not.
type MMIOTransport struct {
	data     uintptr
	selector uintptr
	dma      uintptr

	closer func() error // releases a /dev/mem mapping, if any
}

// NewMMIOTransport returns a transport over a register block that is
// directly addressable at base, as in an identity-mapped early-boot
// environment. The caller must ensure the window stays mapped for the
// life of the transport; see MapMMIOTransport for hosted processes.
func NewMMIOTransport(base uintptr) *MMIOTransport {
	return &MMIOTransport{
		data:     base + MMIOData,
		selector: base + MMIOSelector,
		dma:      base + MMIODMA,
	}
}

// Select implements Transport with a single 16-bit big-endian volatile
// store.
func (t *MMIOTransport) Select(key uint16) {
	reg.Write16(t.selector, wire16(key))
}

// Read implements Transport. The data register is drained in the widest
// loads the remaining length allows, and the raw bytes of each load are
// taken in native order, not reversed.
func (t *MMIOTransport) Read(p []byte) {
	for len(p) >= 8 {
		binary.NativeEndian.PutUint64(p, reg.Read64(t.data))
		p = p[8:]
	}
	for len(p) >= 4 {
		binary.NativeEndian.PutUint32(p, reg.Read32(t.data))
		p = p[4:]
	}
	for i := range p {
		p[i] = reg.Read8(t.data)
	}
}

// StartDMA implements Transport. The low half is the trigger edge and
// is written last.
func (t *MMIOTransport) StartDMA(addr uint64) {
	reg.Write32(t.dma, wire32(uint32(addr>>32)))
	reg.Write32(t.dma+4, wire32(uint32(addr)))
}

// Close releases the backing mapping for transports built by
// MapMMIOTransport. It is a no-op for transports over directly
// addressable memory.
func (t *MMIOTransport) Close() error {
	if t.closer == nil {
		return nil
	}
	closer := t.closer
	t.closer = nil
	return closer()
}

var _ Transport = (*MMIOTransport)(nil)
