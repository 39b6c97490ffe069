package fwcfg

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// File directory record layout:
//
//	uint32_be size
//	uint16_be selector key
//	uint16_be reserved
//	char      name[56] (NUL padded)
const (
	// FileRecordSize is the size of one directory record on the wire.
	FileRecordSize = 64

	fileNameSize = FileRecordSize - 8

	// MaxFileName is the longest file name a record can carry, leaving
	// room for the terminating NUL.
	MaxFileName = fileNameSize - 1
)

// File describes one named configuration item: its byte size, the
// selector key reads of it use, and its name. Values come from decoding
// directory records and are never mutated afterwards.
type File struct {
	Size uint32
	Key  uint16
	Name string
}

// DecodeFile decodes one 64-byte directory record. The name is the
// prefix before the first NUL byte, or all 56 name bytes if no NUL is
// present. A name that is not valid UTF-8 is a decode error; the record
// is otherwise never rejected.
func DecodeFile(rec []byte) (File, error) {
	if len(rec) != FileRecordSize {
		return File{}, fmt.Errorf("fwcfg: directory record is %d bytes, want %d", len(rec), FileRecordSize)
	}

	name := rec[8:]
	for i, b := range name {
		if b == 0 {
			name = name[:i]
			break
		}
	}
	if !utf8.Valid(name) {
		return File{}, fmt.Errorf("fwcfg: directory entry name %q is not valid UTF-8", name)
	}

	return File{
		Size: binary.BigEndian.Uint32(rec[0:4]),
		Key:  binary.BigEndian.Uint16(rec[4:6]),
		Name: string(name),
	}, nil
}

// EncodeFile encodes a descriptor back into the 64-byte record layout.
// The reserved field is written as zero and the name is NUL padded. The
// name field holds up to 56 bytes, so a 56-byte name fills the field
// with no terminator, mirroring what DecodeFile accepts; anything
// longer is truncated to that.
func EncodeFile(f File) [FileRecordSize]byte {
	var rec [FileRecordSize]byte

	binary.BigEndian.PutUint32(rec[0:4], f.Size)
	binary.BigEndian.PutUint16(rec[4:6], f.Key)

	name := []byte(f.Name)
	if len(name) > fileNameSize {
		name = name[:fileNameSize]
	}
	copy(rec[8:], name)

	return rec
}
