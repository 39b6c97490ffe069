package fwcfg

import (
	"fmt"
	"os"
	"unsafe"

	"golang.org/x/sys/unix"
)

const mmioWindowSize = 0x1000

// MapMMIOTransport maps the fw_cfg register window out of /dev/mem and
// returns a transport over it. Close releases the mapping. This needs a
// kernel without CONFIG_STRICT_DEVMEM restrictions on the window, so it
// is mostly useful from early userspace.
func MapMMIOTransport(base uint64) (*MMIOTransport, error) {
	f, err := os.OpenFile("/dev/mem", os.O_RDWR|os.O_SYNC, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/mem: %w", err)
	}
	defer f.Close()

	mapping, err := unix.Mmap(int(f.Fd()), int64(base), mmioWindowSize,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("map fw_cfg window at %#x: %w", base, err)
	}

	t := NewMMIOTransport(uintptr(unsafe.Pointer(&mapping[0])))
	t.closer = func() error { return unix.Munmap(mapping) }
	return t, nil
}
