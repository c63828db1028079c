//go:build unix

package mpc

import (
	"bytes"
	"os"

	"golang.org/x/sys/unix"
)

// mappedSource serves reads from a read-only shared mapping of the archive.
type mappedSource struct {
	*bytes.Reader
	data []byte
}

// mapFile maps f. It reports false when mapping is not possible, e.g. for
// empty files or sizes that do not fit an int, and the caller keeps using f.
func mapFile(f *os.File, size int64) (*mappedSource, bool) {
	if size <= 0 || size > int64(int(^uint(0)>>1)) {
		return nil, false
	}
	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, false
	}
	return &mappedSource{Reader: bytes.NewReader(data), data: data}, true
}

func (m *mappedSource) Close() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	m.Reader = bytes.NewReader(nil)
	return err
}
