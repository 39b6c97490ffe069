//go:build amd64

package fwcfg

import (
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/tinyrange/fwcfg/internal/portio"
)

// rawPort implements PortIO with real in/out instructions. /dev/port is
// not usable here: the kernel turns a multi-byte write into one outb
// per consecutive port, and the selector register only decodes 16-bit
// stores.
type rawPort struct{}

// openDefaultPortIO grants access to the fw_cfg port range with ioperm,
// which needs CAP_SYS_RAWIO.
func openDefaultPortIO() (PortIO, error) {
	// Selector and data at 0x510-0x511, DMA address at 0x514-0x51b.
	if err := unix.Ioperm(PortSelector, 12, 1); err != nil {
		return nil, fmt.Errorf("ioperm ports %#x-%#x: %w", PortSelector, PortSelector+11, err)
	}
	return rawPort{}, nil
}

func (rawPort) Outw(port uint16, v uint16) {
	portio.Outw(port, v)
}

func (rawPort) Outl(port uint16, v uint32) {
	// A raw outl stores little-endian, the register wants big-endian,
	// so swap first (iowrite32be).
	portio.Outl(port, wire32(v))
}

func (rawPort) Inb(port uint16) byte {
	return portio.Inb(port)
}
