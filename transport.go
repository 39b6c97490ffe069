package fwcfg

// Transport is raw access to one fw_cfg register set. The device exposes
// the same protocol over two physical mechanisms, discrete I/O ports and
// a memory-mapped register block; PortTransport and MMIOTransport are the
// closed set of implementations.
//
// A transport access cannot fail. A missing or wrong device shows up
// only as wrong or zero data, which New detects through the signature
// item.
type Transport interface {
	// Select writes key to the selector register. Selecting an item
	// resets the device's internal read cursor to the start of that
	// item's data.
	Select(key uint16)

	// Read drains exactly len(p) bytes from the data register into p,
	// in ascending offset order, with no buffering or look-ahead. What
	// Read returns depends on the device's current cursor: reads after
	// a Select walk the selected item front to back.
	Read(p []byte)

	// StartDMA writes the address of a DMA descriptor to the DMA
	// register as two big-endian 32-bit halves, high half first.
	// Writing the low half is the trigger edge, so the order of the two
	// stores is a correctness requirement.
	StartDMA(addr uint64)
}
