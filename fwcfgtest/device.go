// Package fwcfgtest provides an in-memory model of the fw_cfg device
// for testing the driver and code built on top of it, in the spirit of
// net/http/httptest. A Device implements fwcfg.Transport directly:
// selector writes, cursor-based data reads, and the descriptor DMA
// engine all behave like the real device, against process memory.
package fwcfgtest

import (
	"encoding/binary"
	"sync/atomic"
	"unsafe"

	"github.com/tinyrange/fwcfg"
)

type file struct {
	name    string
	key     uint16
	data    []byte
	written []byte
	onWrite func(data []byte) error
}

// Device is one simulated fw_cfg device. Like the hardware, it is a
// single register set with no internal locking; drive it from one
// goroutine.
//
// The exported counters record register-level traffic so tests can
// assert that an operation did or did not touch the device.
type Device struct {
	// Signature is served for key 0x0000. New fills in "QEMU"; break
	// it to test the driver's signature check.
	Signature [4]byte

	// Features is the bitmap served for key 0x0001.
	Features uint32

	SelectCount int // selector register writes
	ReadCount   int // data register read calls
	DMACount    int // DMA trigger writes

	failDMA bool

	selector uint16
	cursor   uint32

	files   []*file
	nextKey uint16
	dir     []byte
}

// New returns a device with a valid signature and both the legacy and
// DMA interfaces advertised.
func New() *Device {
	return &Device{
		Signature: [4]byte{'Q', 'E', 'M', 'U'},
		Features:  fwcfg.VersionLegacy | fwcfg.VersionDMA,
		nextKey:   fwcfg.KeyFileFirst,
	}
}

// NewLegacy returns a device without the DMA interface.
func NewLegacy() *Device {
	d := New()
	d.Features = fwcfg.VersionLegacy
	return d
}

// AddFile registers a named file and returns its assigned key. Adding
// a name twice replaces the data and keeps the key.
func (d *Device) AddFile(name string, data []byte) uint16 {
	return d.AddFileFunc(name, data, nil)
}

// AddFileFunc registers a file whose DMA writes invoke onWrite; an
// error from the callback surfaces to the guest as a failed transfer.
func (d *Device) AddFileFunc(name string, data []byte, onWrite func(data []byte) error) uint16 {
	for _, f := range d.files {
		if f.name == name {
			f.data = data
			f.onWrite = onWrite
			d.rebuildDir()
			return f.key
		}
	}

	f := &file{name: name, key: d.nextKey, data: data, onWrite: onWrite}
	d.nextKey++
	d.files = append(d.files, f)
	d.rebuildDir()
	return f.key
}

// Written returns the data most recently DMA-written to a named file,
// or nil.
func (d *Device) Written(name string) []byte {
	for _, f := range d.files {
		if f.name == name {
			return f.written
		}
	}
	return nil
}

// FailDMA forces every DMA transfer to complete with the error bit set.
func (d *Device) FailDMA(fail bool) {
	d.failDMA = fail
}

// rebuildDir rebuilds the directory image: a big-endian count followed
// by one 64-byte record per file.
func (d *Device) rebuildDir() {
	d.dir = make([]byte, 4, 4+len(d.files)*fwcfg.FileRecordSize)
	binary.BigEndian.PutUint32(d.dir, uint32(len(d.files)))
	for _, f := range d.files {
		rec := fwcfg.EncodeFile(fwcfg.File{
			Size: uint32(len(f.data)),
			Key:  f.key,
			Name: f.name,
		})
		d.dir = append(d.dir, rec[:]...)
	}
}

// itemData returns the backing bytes of the selected item, or nil for
// an unknown selector.
func (d *Device) itemData() []byte {
	switch d.selector {
	case fwcfg.KeySignature:
		return d.Signature[:]
	case fwcfg.KeyID:
		var buf [4]byte
		binary.LittleEndian.PutUint32(buf[:], d.Features)
		return buf[:]
	case fwcfg.KeyFileDir:
		return d.dir
	}
	for _, f := range d.files {
		if f.key == d.selector {
			return f.data
		}
	}
	return nil
}

// Select implements fwcfg.Transport.
func (d *Device) Select(key uint16) {
	d.SelectCount++
	d.selector = key
	d.cursor = 0
}

// Read implements fwcfg.Transport. Reads past the end of the selected
// item, or of an unknown item, come back as zeros.
func (d *Device) Read(p []byte) {
	d.ReadCount++
	d.copyOut(p)
}

func (d *Device) copyOut(p []byte) {
	item := d.itemData()
	for i := range p {
		if d.cursor < uint32(len(item)) {
			p[i] = item[d.cursor]
			d.cursor++
		} else {
			p[i] = 0
		}
	}
}

// StartDMA implements fwcfg.Transport. The descriptor is read out of
// process memory at addr, the operation runs synchronously, and the
// control word is cleared (or flagged) in place, which is what the
// driver's completion poll observes.
func (d *Device) StartDMA(addr uint64) {
	d.DMACount++

	desc := mem(addr, 16)
	ctl := binary.BigEndian.Uint32(desc[0:4])
	length := binary.BigEndian.Uint32(desc[4:8])
	bufAddr := binary.BigEndian.Uint64(desc[8:16])

	var result uint32
	if d.failDMA {
		result = 1 << 0 // error bit
	} else {
		result = d.runDMA(ctl, length, bufAddr)
	}

	// The driver polls control with atomic loads; publish the result
	// the same way, in wire order.
	var wire [4]byte
	binary.BigEndian.PutUint32(wire[:], result)
	atomic.StoreUint32((*uint32)(unsafe.Pointer(&desc[0])), binary.NativeEndian.Uint32(wire[:]))
}

func (d *Device) runDMA(ctl, length uint32, bufAddr uint64) uint32 {
	const (
		ctlError  = 1 << 0
		ctlRead   = 1 << 1
		ctlSkip   = 1 << 2
		ctlSelect = 1 << 3
		ctlWrite  = 1 << 4
	)

	if ctl&ctlSelect != 0 {
		d.selector = uint16(ctl >> 16)
		d.cursor = 0
	}

	switch {
	case ctl&ctlRead != 0:
		d.copyOut(mem(bufAddr, int(length)))

	case ctl&ctlWrite != 0:
		var target *file
		for _, f := range d.files {
			if f.key == d.selector {
				target = f
				break
			}
		}
		if target == nil {
			return ctlError
		}
		data := make([]byte, length)
		copy(data, mem(bufAddr, int(length)))
		target.written = data
		if target.onWrite != nil {
			if err := target.onWrite(data); err != nil {
				return ctlError
			}
		}

	case ctl&ctlSkip != 0:
		d.cursor += length
	}
	return 0
}

// mem views n bytes of process memory at addr. DMA addresses handed to
// the device come from the driver's own descriptors and buffers, so
// they are valid in this address space.
func mem(addr uint64, n int) []byte {
	if n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(uintptr(addr))), n)
}

var _ fwcfg.Transport = (*Device)(nil)
