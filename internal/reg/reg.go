// Package reg provides volatile access to memory-mapped device
// registers.
//
// Every accessor is a noinline function so the compiler treats each call
// as an opaque memory operation: accesses are never elided, merged, or
// reordered relative to each other. Addresses must be naturally aligned
// for the access width.
package reg

import "unsafe"

//go:nosplit
//go:noinline
func Read8(addr uintptr) uint8 {
	return *(*uint8)(unsafe.Pointer(addr))
}

//go:nosplit
//go:noinline
func Read16(addr uintptr) uint16 {
	return *(*uint16)(unsafe.Pointer(addr))
}

//go:nosplit
//go:noinline
func Read32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}

//go:nosplit
//go:noinline
func Read64(addr uintptr) uint64 {
	return *(*uint64)(unsafe.Pointer(addr))
}

//go:nosplit
//go:noinline
func Write8(addr uintptr, v uint8) {
	*(*uint8)(unsafe.Pointer(addr)) = v
}

//go:nosplit
//go:noinline
func Write16(addr uintptr, v uint16) {
	*(*uint16)(unsafe.Pointer(addr)) = v
}

//go:nosplit
//go:noinline
func Write32(addr uintptr, v uint32) {
	*(*uint32)(unsafe.Pointer(addr)) = v
}

//go:nosplit
//go:noinline
func Write64(addr uintptr, v uint64) {
	*(*uint64)(unsafe.Pointer(addr)) = v
}
