// Package mpctest assembles synthetic MPC archives for tests.
package mpctest

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

// File is one payload to pack.
type File struct {
	Name string
	Data []byte
	// Reserved1 and Reserved2 are copied into the entry as is.
	Reserved1 uint32
	Reserved2 uint32
}

// Build lays out header, directory and payloads. The directory starts right
// after the header (DirOffset 0) and payloads follow it back to back.
func Build(files ...File) []byte {
	dirSize := 4 + 80*len(files)
	size := 12 + dirSize
	for _, f := range files {
		size += len(f.Data)
	}

	buf := make([]byte, size)
	copy(buf[0:4], "MPCU")
	binary.LittleEndian.PutUint32(buf[4:8], 0)
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], uint32(len(files)))

	off := 12 + dirSize
	for i, f := range files {
		e := buf[16+i*80 : 16+(i+1)*80]
		copy(e[0:64], f.Name)
		binary.LittleEndian.PutUint32(e[64:68], uint32(off))
		binary.LittleEndian.PutUint32(e[68:72], uint32(len(f.Data)))
		binary.LittleEndian.PutUint32(e[72:76], f.Reserved1)
		binary.LittleEndian.PutUint32(e[76:80], f.Reserved2)
		copy(buf[off:], f.Data)
		off += len(f.Data)
	}
	return buf
}

// Header returns a 12-byte header with the given signature and fields.
func Header(sig string, dirOffset, reserved uint32) []byte {
	h := make([]byte, 12)
	copy(h[0:4], sig)
	binary.LittleEndian.PutUint32(h[4:8], dirOffset)
	binary.LittleEndian.PutUint32(h[8:12], reserved)
	return h
}

// RawEntry encodes a single 80-byte directory entry.
func RawEntry(name string, offset, length, reserved1, reserved2 uint32) []byte {
	e := make([]byte, 80)
	copy(e[0:64], name)
	binary.LittleEndian.PutUint32(e[64:68], offset)
	binary.LittleEndian.PutUint32(e[68:72], length)
	binary.LittleEndian.PutUint32(e[72:76], reserved1)
	binary.LittleEndian.PutUint32(e[76:80], reserved2)
	return e
}

// Uint32 encodes v little-endian.
func Uint32(v uint32) []byte {
	return binary.LittleEndian.AppendUint32(nil, v)
}

// WriteFile writes data to a fresh file in a test temp dir and returns its path.
func WriteFile(t testing.TB, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
