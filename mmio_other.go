//go:build !linux

package fwcfg

import "errors"

// MapMMIOTransport needs /dev/mem and is only available on Linux. Other
// platforms can still construct an MMIOTransport over an already-mapped
// window with NewMMIOTransport.
func MapMMIOTransport(base uint64) (*MMIOTransport, error) {
	return nil, errors.New("fwcfg: MMIO mapping via /dev/mem is only supported on linux")
}
