// Package mpc reads Monkeystone MPC game archives.
//
// An MPC file is a 12-byte header, a directory of fixed 80-byte entries and the
// raw payloads those entries point at. Payloads are stored verbatim; there is no
// compression and no checksum. The only validation the format offers is the
// signature, so everything past the header is checked opportunistically by the
// reads that consume it.
package mpc

import "bytes"

// Layout constants must never change.
const (
	// HeaderSize is the size of the fixed file header.
	HeaderSize = 12

	// EntrySize is the size of one directory entry.
	EntrySize = 80

	// NameSize is the width of the NUL-padded name field of an entry.
	NameSize = 64

	// countSize is the width of the entry count that starts the directory.
	countSize = 4
)

// Magic is the signature as stored on disk. Compare it byte for byte.
var Magic = [4]byte{'M', 'P', 'C', 'U'}

// Header is the fixed file header.
type Header struct {
	Signature [4]byte
	// DirOffset is relative to the end of the header, not the start of the file.
	DirOffset uint32
	// Reserved has no confirmed meaning and is never validated.
	Reserved uint32
}

// DirectoryPosition returns the absolute file offset of the directory.
func (h Header) DirectoryPosition() int64 {
	return HeaderSize + int64(h.DirOffset)
}

// Valid reports whether the signature matches Magic.
func (h Header) Valid() bool {
	return h.Signature == Magic
}

// Entry describes one packed file.
type Entry struct {
	// Index is the position of the entry in the directory.
	Index int

	// RawName is the name field exactly as stored.
	RawName [NameSize]byte

	// Name is RawName up to the first NUL. It is untrusted archive data;
	// use SafeName before turning it into a path.
	Name string

	// Offset is absolute, measured from the start of the file.
	Offset uint32
	Length uint32

	// Reserved1 and Reserved2 are opaque. Reserved1 often repeats Length.
	Reserved1 uint32
	Reserved2 uint32
}

// End returns the offset one past the last payload byte.
func (e Entry) End() int64 {
	return int64(e.Offset) + int64(e.Length)
}

func decodeName(raw [NameSize]byte) string {
	if i := bytes.IndexByte(raw[:], 0); i >= 0 {
		return string(raw[:i])
	}
	return string(raw[:])
}
