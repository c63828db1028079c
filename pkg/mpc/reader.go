package mpc

import (
	"fmt"
	"io"
	"os"
	"slices"
	"sync"
)

// maxPrealloc bounds the directory slice allocated up front. The entry count is
// untrusted; larger directories still load, they just grow as entries are read.
const maxPrealloc = 4096

// OpenOptions controls how the backing file is accessed.
type OpenOptions struct {
	// Mmap maps the archive read-only instead of issuing read syscalls.
	// It is ignored where mapping is unsupported or fails.
	Mmap bool
}

// Container is an opened archive: its header, its directory and the source the
// payloads are read from. The header and directory never change after Open and
// may be read concurrently. Payload reads are serialised internally.
type Container struct {
	name    string
	header  Header
	entries []Entry

	mu     sync.Mutex
	src    io.ReadSeeker
	closer io.Closer
}

// Open opens the archive at path and loads its directory.
func Open(path string) (*Container, error) {
	return OpenWithOptions(path, OpenOptions{})
}

// OpenWithOptions is Open with explicit source options.
func OpenWithOptions(path string, opts OpenOptions) (*Container, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, newError(KindStat, "stat", path, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, newError(KindOpen, "open", path, err)
	}

	var src source = f
	if opts.Mmap {
		if m, ok := mapFile(f, st.Size()); ok {
			// The mapping outlives the descriptor.
			_ = f.Close()
			src = m
		}
	}

	c, err := NewContainer(src, path)
	if err != nil {
		_ = src.Close()
		return nil, err
	}
	return c, nil
}

// NewContainer parses the header and directory from src. name is only used in
// error messages. If src is an io.Closer it is closed by Container.Close; on
// error the caller keeps ownership of src.
func NewContainer(src io.ReadSeeker, name string) (*Container, error) {
	fr := &fieldReader{r: src}

	var h Header
	fr.bytes("signature", h.Signature[:])
	if fr.err != nil {
		return nil, newError(KindRead, "read file signature from", name, fr.err)
	}
	if !h.Valid() {
		return nil, newError(KindFileType, "check signature of", name,
			fmt.Errorf("%w: got %q", ErrInvalidMagic, h.Signature[:]))
	}

	h.DirOffset = fr.uint32("directory offset")
	h.Reserved = fr.uint32("reserved")
	if fr.err != nil {
		return nil, newError(KindRead, "read file header from", name, fr.err)
	}

	// No bounds check: an offset past the end fails on the count read below.
	if _, err := src.Seek(h.DirectoryPosition(), io.SeekStart); err != nil {
		return nil, newError(KindRead, "seek to directory of", name, err)
	}

	count := fr.uint32("entry count")
	if fr.err != nil {
		return nil, newError(KindRead, "read entry count from", name, fr.err)
	}

	entries := make([]Entry, 0, min(count, maxPrealloc))
	for i := range count {
		e := fr.readEntry(int(i))
		if fr.err != nil {
			return nil, newError(KindRead, "read directory of", name,
				fmt.Errorf("entry %d %s: %w", i, fr.field, fr.err))
		}
		entries = append(entries, e)
	}

	c := &Container{
		name:    name,
		header:  h,
		entries: entries,
		src:     src,
	}
	if cl, ok := src.(io.Closer); ok {
		c.closer = cl
	}
	return c, nil
}

// Name returns the path or label the container was opened with.
func (c *Container) Name() string {
	return c.name
}

// Header returns the decoded file header.
func (c *Container) Header() Header {
	return c.header
}

// EntryCount returns the number of directory entries.
func (c *Container) EntryCount() int {
	return len(c.entries)
}

// Entries returns a copy of the directory in on-disk order.
func (c *Container) Entries() []Entry {
	return slices.Clone(c.entries)
}

// Entry returns the entry at index i.
func (c *Container) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Lookup returns the first entry whose decoded name equals name.
// Names are not guaranteed unique.
func (c *Container) Lookup(name string) (Entry, bool) {
	for _, e := range c.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}

// Close releases the backing source. Entries stay readable afterwards;
// payload reads fail with ErrClosed.
func (c *Container) Close() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src == nil {
		return nil
	}
	var err error
	if c.closer != nil {
		err = c.closer.Close()
	}
	c.src = nil
	c.closer = nil
	return err
}

// readAt seeks to off and fills p. Seek and read are one critical section so
// concurrent extractions never interleave on the shared offset.
func (c *Container) readAt(p []byte, off int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.src == nil {
		return ErrClosed
	}
	if _, err := c.src.Seek(off, io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(c.src, p)
	return err
}
