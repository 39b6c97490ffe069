package fwcfg

import "encoding/binary"

// The selector, DMA trigger and DMA descriptor are big-endian on the
// wire while the CPU works in native order. wire16/32/64 re-order a
// native value so that storing it with a plain native store leaves
// big-endian bytes in memory. The conversion is its own inverse, so the
// same helpers decode device-written fields.

func wire16(v uint16) uint16 {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	return binary.NativeEndian.Uint16(b[:])
}

func wire32(v uint32) uint32 {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	return binary.NativeEndian.Uint32(b[:])
}

func wire64(v uint64) uint64 {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return binary.NativeEndian.Uint64(b[:])
}
