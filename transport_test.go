package fwcfg_test

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/tinyrange/fwcfg"
)

// recordingPortIO captures every port access in order.
type recordingPortIO struct {
	ops []portOp
	inb func(port uint16) byte
}

type portOp struct {
	kind  string // "outw", "outl", "inb"
	port  uint16
	value uint32
}

func (r *recordingPortIO) Outw(port uint16, v uint16) {
	r.ops = append(r.ops, portOp{"outw", port, uint32(v)})
}

func (r *recordingPortIO) Outl(port uint16, v uint32) {
	r.ops = append(r.ops, portOp{"outl", port, v})
}

func (r *recordingPortIO) Inb(port uint16) byte {
	r.ops = append(r.ops, portOp{"inb", port, 0})
	if r.inb != nil {
		return r.inb(port)
	}
	return 0
}

func TestPortTransportSelect(t *testing.T) {
	io := &recordingPortIO{}
	tr := fwcfg.NewPortTransportIO(io)

	tr.Select(0x0019)

	want := []portOp{{"outw", fwcfg.PortSelector, 0x0019}}
	if len(io.ops) != 1 || io.ops[0] != want[0] {
		t.Errorf("ops = %+v, want %+v", io.ops, want)
	}
}

func TestPortTransportReadByteByByte(t *testing.T) {
	next := byte(0)
	io := &recordingPortIO{inb: func(port uint16) byte {
		next++
		return next
	}}
	tr := fwcfg.NewPortTransportIO(io)

	var buf [3]byte
	tr.Read(buf[:])

	if buf != [3]byte{1, 2, 3} {
		t.Errorf("buf = %v", buf)
	}
	for i, op := range io.ops {
		if op.kind != "inb" || op.port != fwcfg.PortData {
			t.Errorf("op %d = %+v, want inb on the data port", i, op)
		}
	}
}

func TestPortTransportDMATriggerOrder(t *testing.T) {
	io := &recordingPortIO{}
	tr := fwcfg.NewPortTransportIO(io)

	tr.StartDMA(0x1122334455667788)

	// High half first; the low-half store is the trigger edge.
	want := []portOp{
		{"outl", fwcfg.PortDMA, 0x11223344},
		{"outl", fwcfg.PortDMA + 4, 0x55667788},
	}
	if len(io.ops) != 2 || io.ops[0] != want[0] || io.ops[1] != want[1] {
		t.Errorf("ops = %+v, want %+v", io.ops, want)
	}
}

// mmioWindow is a fake register block the transport points straight at,
// aligned for the transport's word-sized loads.
type mmioWindow struct {
	words [3]uint64
}

func (w *mmioWindow) base() uintptr {
	return uintptr(unsafe.Pointer(&w.words[0]))
}

func (w *mmioWindow) regs() []byte {
	return unsafe.Slice((*byte)(unsafe.Pointer(&w.words[0])), 0x18)
}

func TestMMIOTransportSelectorBigEndian(t *testing.T) {
	w := &mmioWindow{}
	tr := fwcfg.NewMMIOTransport(w.base())

	tr.Select(0x0019)

	if got := w.regs()[fwcfg.MMIOSelector : fwcfg.MMIOSelector+2]; !bytes.Equal(got, []byte{0x00, 0x19}) {
		t.Errorf("selector bytes = %x, want 0019", got)
	}
}

func TestMMIOTransportReadNativeOrder(t *testing.T) {
	w := &mmioWindow{}
	copy(w.regs()[fwcfg.MMIOData:], []byte{1, 2, 3, 4, 5, 6, 7, 8})
	tr := fwcfg.NewMMIOTransport(w.base())

	// One 64-bit load: the raw bytes land in the buffer unreversed.
	var buf [8]byte
	tr.Read(buf[:])
	if !bytes.Equal(buf[:], w.regs()[:8]) {
		t.Errorf("buf = %v, want %v", buf, w.regs()[:8])
	}

	// One 32-bit load for a 4-byte buffer, same property.
	var buf4 [4]byte
	tr.Read(buf4[:])
	if !bytes.Equal(buf4[:], w.regs()[:4]) {
		t.Errorf("buf4 = %v, want %v", buf4, w.regs()[:4])
	}
}

func TestMMIOTransportDMABigEndianHalves(t *testing.T) {
	w := &mmioWindow{}
	tr := fwcfg.NewMMIOTransport(w.base())

	tr.StartDMA(0x1122334455667788)

	if got := binary.BigEndian.Uint32(w.regs()[fwcfg.MMIODMA:]); got != 0x11223344 {
		t.Errorf("high half = %#x", got)
	}
	if got := binary.BigEndian.Uint32(w.regs()[fwcfg.MMIODMA+4:]); got != 0x55667788 {
		t.Errorf("low half = %#x", got)
	}
}
