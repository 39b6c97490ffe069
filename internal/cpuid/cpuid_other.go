//go:build !amd64

package cpuid

// Supported reports whether the CPUID instruction is available. It is
// an x86 instruction, so this is always false elsewhere.
func Supported() bool { return false }

// HypervisorID returns the hypervisor vendor string, which only x86
// exposes through CPUID.
func HypervisorID() string { return "" }
