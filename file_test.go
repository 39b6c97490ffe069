package fwcfg

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func makeRecord(size uint32, key uint16, name []byte) [FileRecordSize]byte {
	var rec [FileRecordSize]byte
	binary.BigEndian.PutUint32(rec[0:4], size)
	binary.BigEndian.PutUint16(rec[4:6], key)
	copy(rec[8:], name)
	return rec
}

func TestDecodeFile(t *testing.T) {
	rec := makeRecord(11, 0x20, []byte("opt/input.txt\x00"))

	f, err := DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if f.Size != 11 || f.Key != 0x20 || f.Name != "opt/input.txt" {
		t.Errorf("got %+v", f)
	}
}

func TestDecodeFileNoNUL(t *testing.T) {
	// All 56 name bytes used, no terminator: the whole field is the name.
	name := bytes.Repeat([]byte("n"), fileNameSize)
	rec := makeRecord(1, 0x21, name)

	f, err := DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if f.Name != string(name) {
		t.Errorf("name = %q, want %d n's", f.Name, fileNameSize)
	}
}

func TestDecodeFileStopsAtFirstNUL(t *testing.T) {
	rec := makeRecord(1, 0x21, []byte("abc\x00def"))

	f, err := DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if f.Name != "abc" {
		t.Errorf("name = %q, want %q", f.Name, "abc")
	}
}

func TestDecodeFileInvalidUTF8(t *testing.T) {
	rec := makeRecord(1, 0x21, []byte{0xff, 0xfe, 0xfd})

	if _, err := DecodeFile(rec[:]); err == nil {
		t.Error("DecodeFile accepted a non-UTF-8 name")
	}
}

func TestDecodeFileBadLength(t *testing.T) {
	if _, err := DecodeFile(make([]byte, 63)); err == nil {
		t.Error("DecodeFile accepted a 63-byte record")
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	cases := []File{
		{Size: 0, Key: 0x20, Name: "a"},
		{Size: 11, Key: 0x20, Name: "opt/input.txt"},
		{Size: 1 << 30, Key: 0xffff, Name: "etc/acpi/tables"},
		{Size: 7, Key: 0x25, Name: string(bytes.Repeat([]byte("x"), MaxFileName))},
	}
	for _, want := range cases {
		rec := EncodeFile(want)
		got, err := DecodeFile(rec[:])
		if err != nil {
			t.Fatalf("DecodeFile(%q): %v", want.Name, err)
		}
		if got != want {
			t.Errorf("round trip: got %+v, want %+v", got, want)
		}
	}
}

func TestDecodeEncodeFullNameField(t *testing.T) {
	// A record whose name fills all 56 bytes with no NUL must survive a
	// decode/encode cycle with the full field intact.
	name := bytes.Repeat([]byte("n"), fileNameSize)
	rec := makeRecord(8, 0x22, name)

	f, err := DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	got := EncodeFile(f)
	if got != rec {
		t.Errorf("name field = %q, want %q", got[8:], rec[8:])
	}
}

func TestDecodeEncodeReproducesRecord(t *testing.T) {
	// Re-encoding a decoded descriptor must reproduce the original
	// bytes except the reserved field and padding past the NUL.
	rec := makeRecord(4096, 0x2a, []byte("etc/boot-fail-wait\x00"))

	f, err := DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	got := EncodeFile(f)
	if got != rec {
		t.Errorf("re-encode mismatch:\n got %x\nwant %x", got, rec)
	}
}

func TestWireHelpers(t *testing.T) {
	// The wire conversions leave big-endian bytes behind a native store
	// and are their own inverse.
	var b [4]byte
	binary.NativeEndian.PutUint32(b[:], wire32(0x11223344))
	if want := []byte{0x11, 0x22, 0x33, 0x44}; !bytes.Equal(b[:], want) {
		t.Errorf("wire32 bytes = %x, want %x", b, want)
	}
	if wire32(wire32(0xdeadbeef)) != 0xdeadbeef {
		t.Error("wire32 is not an involution")
	}
	if wire16(wire16(0x1234)) != 0x1234 {
		t.Error("wire16 is not an involution")
	}
	if wire64(wire64(0x0102030405060708)) != 0x0102030405060708 {
		t.Error("wire64 is not an involution")
	}
}
