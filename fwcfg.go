// Package fwcfg drives the QEMU fw_cfg firmware configuration device
// from inside a guest. The device exposes named blobs (ACPI tables,
// kernel images, boot options) behind a selector/data register pair,
// with an optional DMA interface for bulk transfers. A Session selects
// items by key, walks the file directory, and reads or DMA-writes item
// contents.
package fwcfg

import (
	"encoding/binary"
	"errors"
	"io"
)

// Well-known selector keys. Keys for named files are assigned by the
// host and discovered through the directory, never computed.
const (
	KeySignature  = 0x0000
	KeyID         = 0x0001
	KeyUUID       = 0x0002
	KeyRAMSize    = 0x0003
	KeyNoGraphic  = 0x0004
	KeyNbCPUs     = 0x0005
	KeyMachineID  = 0x0006
	KeyKernelAddr = 0x0007
	KeyKernelSize = 0x0008
	KeyKernelCmd  = 0x0009
	KeyInitrdAddr = 0x000a
	KeyInitrdSize = 0x000b
	KeyBootMenu   = 0x000e
	KeyFileDir    = 0x0019
	KeyFileFirst  = 0x0020
)

// Feature bits in the KeyID word.
const (
	VersionLegacy = 1 << 0
	VersionDMA    = 1 << 1
)

var (
	// ErrInvalidSignature means the signature item did not read back
	// "QEMU": there is no fw_cfg device behind the transport.
	ErrInvalidSignature = errors.New("fwcfg: device signature mismatch")

	// ErrDMANotAvailable means the device does not advertise the DMA
	// interface in its feature bitmap.
	ErrDMANotAvailable = errors.New("fwcfg: DMA interface not available")

	// ErrDMAFailed means the device flagged an error on an in-flight
	// DMA transfer.
	ErrDMAFailed = errors.New("fwcfg: DMA transfer failed")
)

var deviceSignature = [4]byte{'Q', 'E', 'M', 'U'}

// Session is a live handle on one fw_cfg device.
//
// The selector and read cursor are global device state, so at most one
// Session may exist per physical transport, and its methods must not be
// called concurrently; a second session, or calls from an interrupt
// context, race-corrupt in-flight reads. The package does no locking of
// its own.
type Session struct {
	t Transport

	preferDMA bool
	useDMA    bool

	// KeyID word, read once and memoized.
	features     uint32
	featuresRead bool
}

// Option configures a Session.
type Option func(*Session)

// WithPreferDMA controls whether the session rides the DMA interface
// for selects and reads when the device advertises it. The default is
// true; with false the session stays on the legacy register path and
// never reads the feature bitmap during construction.
func WithPreferDMA(prefer bool) Option {
	return func(s *Session) { s.preferDMA = prefer }
}

// New verifies a fw_cfg device behind t and returns a session over it.
// It selects the signature item and compares four bytes against "QEMU";
// on a mismatch it returns ErrInvalidSignature having touched nothing
// else.
//
// New is precondition-bearing: the caller must be running inside the
// virtual machine that owns the registers (see InsideQEMU) and must not
// construct two live sessions over one device.
func New(t Transport, opts ...Option) (*Session, error) {
	s := &Session{t: t, preferDMA: true}
	for _, opt := range opts {
		opt(s)
	}

	var sig [4]byte
	t.Select(KeySignature)
	t.Read(sig[:])
	if sig != deviceSignature {
		return nil, ErrInvalidSignature
	}

	if s.preferDMA {
		s.useDMA = s.DMAEnabled()
	}
	return s, nil
}

// id returns the KeyID feature word, reading it from the device the
// first time.
func (s *Session) id() uint32 {
	if !s.featuresRead {
		var buf [4]byte
		s.t.Select(KeyID)
		s.t.Read(buf[:])
		s.features = binary.LittleEndian.Uint32(buf[:])
		s.featuresRead = true
	}
	return s.features
}

// Version returns the device's feature bitmap (the KeyID item); see
// the Version bit constants.
func (s *Session) Version() uint32 {
	return s.id()
}

// DMAEnabled reports whether the device advertises the DMA interface.
func (s *Session) DMAEnabled() bool {
	return s.id()&VersionDMA != 0
}

// selectKey sets the device's selector, through a DMA select when the
// session prefers it. A failed DMA select falls back to the legacy
// selector register; either way the read cursor restarts at the item's
// first byte.
func (s *Session) selectKey(key uint16) {
	if s.useDMA {
		if err := s.dma(uint32(key)<<16|dmaCtlSelect, nil); err == nil {
			return
		}
	}
	s.t.Select(key)
}

// read drains len(p) bytes from the device's cursor. The legacy path
// cannot fail; the DMA path reports a device error, after which the
// cursor position is unknown.
func (s *Session) read(p []byte) error {
	if s.useDMA {
		return s.dma(dmaCtlRead, p)
	}
	s.t.Read(p)
	return nil
}

// DirScanner walks the file directory. The hardware directory is a flat
// array behind one read cursor: entries arrive strictly in order, the
// scan is not restartable, and a partially consumed scan cannot be
// resumed. Call ScanDir again to start over.
type DirScanner struct {
	s         *Session
	remaining uint32
	file      File
	err       error
}

// ScanDir selects the directory item, reads the entry count, and
// returns a scanner positioned before the first entry.
func (s *Session) ScanDir() *DirScanner {
	d := &DirScanner{s: s}

	s.selectKey(KeyFileDir)
	var count [4]byte
	if err := s.read(count[:]); err != nil {
		d.err = err
		return d
	}
	d.remaining = binary.BigEndian.Uint32(count[:])
	return d
}

// Scan advances to the next directory entry. It returns false at the
// end of the directory or on error; Err separates the two.
func (d *DirScanner) Scan() bool {
	if d.err != nil || d.remaining == 0 {
		return false
	}

	var rec [FileRecordSize]byte
	if err := d.s.read(rec[:]); err != nil {
		d.err = err
		return false
	}
	d.remaining--

	file, err := DecodeFile(rec[:])
	if err != nil {
		d.err = err
		return false
	}
	d.file = file
	return true
}

// File returns the entry read by the last successful Scan.
func (d *DirScanner) File() File { return d.file }

// Err returns the first error hit by the scan: a malformed directory
// entry, or a DMA transfer failure.
func (d *DirScanner) Err() error { return d.err }

// Lookup is one slot of a FindFiles call: a requested name and the
// descriptor it resolved to.
type Lookup struct {
	Name  string
	File  File
	Found bool
}

// FindFiles resolves every slot in one directory scan. Each entry of
// the directory updates all slots whose Name matches it, so duplicate
// names receive the same descriptor. The scan stops early once every
// slot is found. Slots whose name never matches keep whatever File
// value they were seeded with.
func (s *Session) FindFiles(entries []Lookup) error {
	dir := s.ScanDir()
	for dir.Scan() {
		file := dir.File()

		changed := false
		for i := range entries {
			if entries[i].Name == file.Name {
				entries[i].File = file
				entries[i].Found = true
				changed = true
			}
		}
		if !changed {
			continue
		}

		done := true
		for i := range entries {
			if !entries[i].Found {
				done = false
				break
			}
		}
		if done {
			return nil
		}
	}
	return dir.Err()
}

// FindFile scans the directory for one name. It returns nil with a nil
// error when the directory has no such file.
func (s *Session) FindFile(name string) (*File, error) {
	entries := []Lookup{{Name: name}}
	if err := s.FindFiles(entries); err != nil {
		return nil, err
	}
	if !entries[0].Found {
		return nil, nil
	}
	return &entries[0].File, nil
}

// ReadFileInto reads the leading min(f.Size, len(p)) bytes of a file
// into the front of p and returns the count. The rest of an over-sized
// buffer is left untouched; callers that care about truncation compare
// f.Size against len(p) themselves.
func (s *Session) ReadFileInto(f File, p []byte) int {
	n := len(p)
	if uint64(f.Size) < uint64(n) {
		n = int(f.Size)
	}
	p = p[:n]

	if s.useDMA {
		if err := s.dma(uint32(f.Key)<<16|dmaCtlSelect|dmaCtlRead, p); err == nil {
			return n
		}
		// A failed DMA read leaves the cursor in an unknown spot; the
		// legacy retry below re-selects and restarts from byte zero.
	}
	s.t.Select(f.Key)
	s.t.Read(p)
	return n
}

// ReadFileAt reads up to len(p) bytes of a file starting at byte
// offset off, skipping the leading bytes without copying them, and
// returns the count. Reads past the end of the file return 0.
func (s *Session) ReadFileAt(f File, p []byte, off uint32) int {
	if off >= f.Size {
		return 0
	}
	n := len(p)
	if uint64(f.Size-off) < uint64(n) {
		n = int(f.Size - off)
	}
	p = p[:n]

	s.selectKey(f.Key)
	if off > 0 {
		s.skip(off)
	}
	if err := s.read(p); err != nil {
		// The DMA cursor is unknown after a failed transfer; restart
		// from the top of the item and walk back to the offset.
		s.t.Select(f.Key)
		s.skip(off)
		s.t.Read(p)
	}
	return n
}

// ReadFile reads a whole file into a freshly allocated buffer.
func (s *Session) ReadFile(f File) []byte {
	p := make([]byte, f.Size)
	s.ReadFileInto(f, p)
	return p
}

// FileReader returns an io.Reader over a file's contents, for streaming
// large items without a full-size buffer. The reader borrows the
// device's read cursor until it is exhausted: interleaving any other
// operation on the session invalidates it.
func (s *Session) FileReader(f File) io.Reader {
	s.selectKey(f.Key)
	return &fileReader{s: s, remaining: f.Size}
}

type fileReader struct {
	s         *Session
	remaining uint32
	err       error
}

func (r *fileReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if r.remaining == 0 {
		return 0, io.EOF
	}

	if uint64(len(p)) > uint64(r.remaining) {
		p = p[:r.remaining]
	}
	if err := r.s.read(p); err != nil {
		r.err = err
		return 0, err
	}
	r.remaining -= uint32(len(p))
	return len(p), nil
}
