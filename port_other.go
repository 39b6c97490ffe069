//go:build !(linux && amd64)

package fwcfg

import "errors"

func openDefaultPortIO() (PortIO, error) {
	return nil, errors.New("fwcfg: no default port I/O backend on this platform, use NewPortTransportIO")
}
