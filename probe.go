package fwcfg

import "github.com/tinyrange/fwcfg/internal/cpuid"

// Hypervisor vendor strings from the CPUID hypervisor information leaf.
const (
	hypervisorTCG = "TCGTCGTCGTCG"
	hypervisorKVM = "KVMKVMKVM\x00\x00\x00"
)

// InsideQEMU reports a best-effort signal that this CPU identifies
// itself as a QEMU one (TCG or KVM accelerated). Callers are expected
// to check it before constructing a Session, since touching the
// registers outside the VM is undefined; the probe is advisory only,
// and New's signature check remains the authoritative gate.
func InsideQEMU() bool {
	switch cpuid.HypervisorID() {
	case hypervisorTCG, hypervisorKVM:
		return true
	}
	return false
}
