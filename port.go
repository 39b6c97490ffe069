package fwcfg

// fw_cfg I/O ports on x86 machines.
const (
	PortSelector = 0x510 // 16-bit selector writes
	PortData     = 0x511 // 8-bit data reads
	PortDMA      = 0x514 // DMA address register, 8 bytes big-endian
)

// PortIO performs the individual port accesses a PortTransport needs.
// The default Linux backend issues real in/out instructions under
// ioperm; bare-metal callers supply their own backend.
type PortIO interface {
	// Outw stores a 16-bit value to a port in native order, like the
	// x86 out instruction.
	Outw(port uint16, v uint16)

	// Outl stores a 32-bit value to a big-endian register spanning
	// port..port+3, most significant byte at the lowest port.
	Outl(port uint16, v uint32)

	// Inb reads one byte from a port.
	Inb(port uint16) byte
}

// PortTransport drives fw_cfg through the x86 I/O port interface: a
// 16-bit selector write, repeated 8-bit data reads, and 32-bit writes
// to the DMA address register.
type PortTransport struct {
	io PortIO
}

// NewPortTransport returns a transport over the default backend for the
// host, at the standard ports.
func NewPortTransport() (*PortTransport, error) {
	io, err := openDefaultPortIO()
	if err != nil {
		return nil, err
	}
	return NewPortTransportIO(io), nil
}

// NewPortTransportIO returns a transport over a caller-supplied port
// backend.
func NewPortTransportIO(io PortIO) *PortTransport {
	return &PortTransport{io: io}
}

// Select implements Transport.
func (t *PortTransport) Select(key uint16) {
	t.io.Outw(PortSelector, key)
}

// Read implements Transport, draining the data port one byte at a time.
func (t *PortTransport) Read(p []byte) {
	for i := range p {
		p[i] = t.io.Inb(PortData)
	}
}

// StartDMA implements Transport. The low half is the trigger edge and
// is written last.
func (t *PortTransport) StartDMA(addr uint64) {
	t.io.Outl(PortDMA, uint32(addr>>32))
	t.io.Outl(PortDMA+4, uint32(addr))
}

var _ Transport = (*PortTransport)(nil)
