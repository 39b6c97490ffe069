package fwcfgtest

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/tinyrange/fwcfg"
)

func TestReadPastEndZeroFills(t *testing.T) {
	d := New()
	d.AddFile("opt/x", []byte("ab"))

	d.Select(fwcfg.KeyFileFirst)
	var buf [4]byte
	d.Read(buf[:])

	if buf != [4]byte{'a', 'b', 0, 0} {
		t.Errorf("buf = %v", buf)
	}
}

func TestUnknownSelectorReadsZero(t *testing.T) {
	d := New()

	d.Select(0x1234)
	buf := []byte{0xff, 0xff}
	d.Read(buf)

	if buf[0] != 0 || buf[1] != 0 {
		t.Errorf("buf = %v", buf)
	}
}

func TestAddFileReplaceKeepsKey(t *testing.T) {
	d := New()
	key := d.AddFile("opt/x", []byte("one"))

	if again := d.AddFile("opt/x", []byte("twotwo")); again != key {
		t.Errorf("replacement moved key %#x to %#x", key, again)
	}

	d.Select(fwcfg.KeyFileDir)
	var count [4]byte
	d.Read(count[:])
	if n := binary.BigEndian.Uint32(count[:]); n != 1 {
		t.Errorf("directory has %d entries, want 1", n)
	}

	var rec [fwcfg.FileRecordSize]byte
	d.Read(rec[:])
	f, err := fwcfg.DecodeFile(rec[:])
	if err != nil {
		t.Fatalf("DecodeFile: %v", err)
	}
	if f.Size != 6 || f.Key != key || f.Name != "opt/x" {
		t.Errorf("directory entry = %+v", f)
	}
}

func TestSelectResetsCursor(t *testing.T) {
	d := New()
	key := d.AddFile("opt/x", []byte("abcdef"))

	d.Select(key)
	var first [3]byte
	d.Read(first[:])
	d.Select(key)
	var again [3]byte
	d.Read(again[:])

	if !bytes.Equal(first[:], again[:]) {
		t.Errorf("re-select did not restart the stream: %q then %q", first, again)
	}
}
