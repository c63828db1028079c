package mpc

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// ChunkSize is the largest single read issued while copying a payload.
const ChunkSize = 32 * 1024

// CopyEntry writes exactly e.Length payload bytes to w and returns how many
// were written. A short or failed source read is KindRead, a failed or short
// write is KindWrite. Zero-length entries never touch the source.
//
// e is trusted as given; pass entries obtained from this container.
func (c *Container) CopyEntry(e Entry, w io.Writer) (int64, error) {
	remaining := int64(e.Length)
	if remaining == 0 {
		return 0, nil
	}

	buf := make([]byte, min(remaining, ChunkSize))
	var written int64
	for remaining > 0 {
		n := min(remaining, int64(len(buf)))
		chunk := buf[:n]

		if err := c.readAt(chunk, int64(e.Offset)+written); err != nil {
			return written, newError(KindRead, "read contents of", e.Name, err)
		}

		wn, err := w.Write(chunk)
		written += int64(wn)
		if err == nil && int64(wn) != n {
			err = io.ErrShortWrite
		}
		if err != nil {
			return written, newError(KindWrite, "write output file", e.Name, err)
		}
		remaining -= n
	}
	return written, nil
}

// Extractor writes entries as files into a filesystem.
type Extractor struct {
	fs   afero.Fs
	perm os.FileMode
}

// NewExtractor writes into fs. Names are sanitized with SafeName and used
// relative to the root of fs.
func NewExtractor(fs afero.Fs) *Extractor {
	return &Extractor{fs: fs, perm: 0o644}
}

// NewDirExtractor writes below dir on the local filesystem. The directory is
// created if needed.
func NewDirExtractor(dir string) (*Extractor, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, newError(KindWrite, "resolve output directory", dir, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, newError(KindWrite, "create output directory", dir, err)
	}
	return NewExtractor(afero.NewBasePathFs(afero.NewOsFs(), abs)), nil
}

// Fs returns the filesystem the extractor writes to.
func (x *Extractor) Fs() afero.Fs {
	return x.fs
}

// Extract creates (or truncates) a file named after e and copies the payload
// into it. It returns the sanitized slash-separated path that was written.
// The output file is closed on every path; a partial file is left in place
// when the copy fails.
func (x *Extractor) Extract(c *Container, e Entry) (string, error) {
	name, err := SafeName(e.Name)
	if err != nil {
		return "", newError(KindWrite, "open output file", e.Name, err)
	}
	native := filepath.FromSlash(name)

	if dir := path.Dir(name); dir != "." {
		if err := x.fs.MkdirAll(filepath.FromSlash(dir), 0o755); err != nil {
			return name, newError(KindWrite, "create directory for", e.Name, err)
		}
	}

	out, err := x.fs.OpenFile(native, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, x.perm)
	if err != nil {
		return name, newError(KindWrite, "open output file", e.Name, err)
	}

	_, err = c.CopyEntry(e, out)
	if cerr := out.Close(); cerr != nil && err == nil {
		err = newError(KindWrite, "close output file", e.Name, cerr)
	}
	if err != nil {
		return name, err
	}
	return name, nil
}

// ExtractAll extracts every entry in directory order and stops at the first
// failure.
func (x *Extractor) ExtractAll(c *Container) ([]string, error) {
	written := make([]string, 0, c.EntryCount())
	for _, e := range c.entries {
		name, err := x.Extract(c, e)
		if err != nil {
			return written, fmt.Errorf("entry %d: %w", e.Index, err)
		}
		written = append(written, name)
	}
	return written, nil
}
