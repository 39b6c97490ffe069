package fwcfg

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// DMA descriptor control bits.
const (
	dmaCtlError  = 1 << 0
	dmaCtlRead   = 1 << 1
	dmaCtlSkip   = 1 << 2
	dmaCtlSelect = 1 << 3
	dmaCtlWrite  = 1 << 4
)

// dmaDescriptor matches the 16-byte wire layout: control, length, and
// buffer address, all big-endian, no padding. Each field holds its
// wire-order representation so the device reads the struct's memory
// as-is.
//
// The device rewrites control asynchronously while a transfer is in
// flight, so control is only touched through atomics.
type dmaDescriptor struct {
	control uint32
	length  uint32
	address uint64
}

// addrOf converts a pointer to the address the device will dereference.
// Register code runs in environments where physical and linear
// addresses coincide, so the pointer value is the bus address.
//
// noinline keeps the conversion opaque to escape analysis, forcing the
// pointee onto the heap: the device holds this address across the call,
// and stack memory can move under a growing goroutine stack.
//
//go:noinline
func addrOf(p unsafe.Pointer) uint64 {
	return uint64(uintptr(p))
}

func bufferAddr(p []byte) uint64 {
	if len(p) == 0 {
		return 0
	}
	return addrOf(unsafe.Pointer(&p[0]))
}

// dma runs one descriptor-based operation and busy-polls it to
// completion. ctl carries the control bits, including the selector key
// in the high half for select operations; p is the data buffer for
// reads and writes, or nil.
//
// The poll is intentionally unbounded: a dead device spins forever, and
// callers needing a deadline wrap the call themselves. Until the poll
// observes completion the device may still be reading the descriptor
// and buffer, so neither is released before that.
func (s *Session) dma(ctl uint32, p []byte) error {
	return s.dmaRaw(ctl, uint32(len(p)), bufferAddr(p), p)
}

// dmaRaw is dma with an explicit length and address, for operations
// like skip that carry a length but no buffer. p is only held live for
// the duration of the poll.
func (s *Session) dmaRaw(ctl, length uint32, addr uint64, p []byte) error {
	d := new(dmaDescriptor)
	d.length = wire32(length)
	d.address = wire64(addr)

	// The control store publishes the descriptor: it must land after
	// length and address and before the trigger write. The atomic
	// store orders it against both.
	atomic.StoreUint32(&d.control, wire32(ctl))

	s.t.StartDMA(addrOf(unsafe.Pointer(d)))

	for {
		status := wire32(atomic.LoadUint32(&d.control))
		if status&dmaCtlError != 0 {
			runtime.KeepAlive(p)
			return ErrDMAFailed
		}
		if status == 0 {
			break
		}
	}

	runtime.KeepAlive(d)
	runtime.KeepAlive(p)
	return nil
}

// WriteFile sends len(p) bytes of p to a file over the DMA interface;
// there is no legacy write path. It fails with ErrDMANotAvailable
// before touching the registers when the feature bitmap has no DMA bit,
// and with ErrDMAFailed when the device rejects the transfer.
func (s *Session) WriteFile(f File, p []byte) error {
	if !s.DMAEnabled() {
		return ErrDMANotAvailable
	}
	return s.dma(uint32(f.Key)<<16|dmaCtlSelect|dmaCtlWrite, p)
}

// skip advances the device's read cursor n bytes without copying,
// through a DMA skip when available and throwaway legacy reads
// otherwise.
func (s *Session) skip(n uint32) {
	if s.useDMA {
		if err := s.dmaRaw(dmaCtlSkip, n, 0, nil); err == nil {
			return
		}
	}
	var scratch [256]byte
	for n > 0 {
		chunk := n
		if chunk > uint32(len(scratch)) {
			chunk = uint32(len(scratch))
		}
		s.t.Read(scratch[:chunk])
		n -= chunk
	}
}
