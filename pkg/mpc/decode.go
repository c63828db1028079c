package mpc

import (
	"encoding/binary"
	"io"
)

// fieldReader decodes little-endian fields one at a time from a stream.
// The first failure sticks; later calls are no-ops so callers can read a
// whole record and check err once, while the failing field is still known.
type fieldReader struct {
	r     io.Reader
	buf   [4]byte
	err   error
	field string
}

func (fr *fieldReader) bytes(field string, p []byte) {
	if fr.err != nil {
		return
	}
	if _, err := io.ReadFull(fr.r, p); err != nil {
		fr.err = err
		fr.field = field
	}
}

func (fr *fieldReader) uint32(field string) uint32 {
	fr.bytes(field, fr.buf[:])
	if fr.err != nil {
		return 0
	}
	return binary.LittleEndian.Uint32(fr.buf[:])
}

// readEntry decodes one directory entry in on-disk field order.
func (fr *fieldReader) readEntry(index int) Entry {
	e := Entry{Index: index}
	fr.bytes("name", e.RawName[:])
	e.Offset = fr.uint32("offset")
	e.Length = fr.uint32("length")
	e.Reserved1 = fr.uint32("reserved1")
	e.Reserved2 = fr.uint32("reserved2")
	if fr.err == nil {
		e.Name = decodeName(e.RawName)
	}
	return e
}
