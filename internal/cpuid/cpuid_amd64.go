// Package cpuid queries x86 processor identification for hypervisor
// detection.
package cpuid

import "encoding/binary"

// Hypervisor information leaf. Reserved for hypervisor use; real CPUs
// return zeros here.
const hypervisorLeaf = 0x40000000

// Supported reports whether the CPUID instruction is available, probed
// by toggling the ID bit in EFLAGS and checking that the toggle sticks.
func Supported() bool {
	return idFlagToggles()
}

// HypervisorID returns the 12-byte vendor string a hypervisor publishes
// in EBX, ECX, EDX of the hypervisor information leaf, or "" when CPUID
// is unavailable.
func HypervisorID() string {
	if !Supported() {
		return ""
	}

	ebx, ecx, edx := cpuid(hypervisorLeaf)

	var id [12]byte
	binary.LittleEndian.PutUint32(id[0:4], ebx)
	binary.LittleEndian.PutUint32(id[4:8], ecx)
	binary.LittleEndian.PutUint32(id[8:12], edx)
	return string(id[:])
}

// Implemented in cpuid_amd64.s.
func idFlagToggles() bool
func cpuid(leaf uint32) (ebx, ecx, edx uint32)
