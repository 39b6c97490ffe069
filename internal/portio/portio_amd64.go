// Package portio issues raw x86 I/O port instructions. Callers must
// hold port access first (ioperm or iopl); without it the instructions
// fault.
package portio

// Outw stores a 16-bit value to a port.
func Outw(port uint16, v uint16)

// Outl stores a 32-bit value to a port.
func Outl(port uint16, v uint32)

// Inb reads one byte from a port.
func Inb(port uint16) uint8
