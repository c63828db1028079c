package mpc

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/samcharles93/mpcextract/internal/mpctest"
)

func literalArchive(payloadOffset uint32) []byte {
	var b []byte
	b = append(b, mpctest.Header("MPCU", 0, 0)...)
	b = append(b, mpctest.Uint32(1)...)
	b = append(b, mpctest.RawEntry("test.bin", payloadOffset, 5, 5, 0)...)
	for len(b) < int(payloadOffset) {
		b = append(b, 0)
	}
	if int(payloadOffset) == len(b) {
		b = append(b, 0x01, 0x02, 0x03, 0x04, 0x05)
	}
	return b
}

func TestOpenLiteralArchive(t *testing.T) {
	t.Parallel()

	path := mpctest.WriteFile(t, "literal.mpc", literalArchive(96))
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = c.Close() }()

	if c.EntryCount() != 1 {
		t.Fatalf("entry count: got %d want 1", c.EntryCount())
	}
	e, ok := c.Entry(0)
	if !ok {
		t.Fatalf("missing entry 0")
	}
	if e.Name != "test.bin" || e.Offset != 96 || e.Length != 5 {
		t.Fatalf("unexpected entry: %+v", e)
	}

	var out bytes.Buffer
	n, err := c.CopyEntry(e, &out)
	if err != nil {
		t.Fatalf("copy: %v", err)
	}
	if n != 5 || !bytes.Equal(out.Bytes(), []byte{1, 2, 3, 4, 5}) {
		t.Fatalf("payload mismatch: n=%d got %x", n, out.Bytes())
	}
}

func TestOpenPayloadOverlappingDirectory(t *testing.T) {
	t.Parallel()

	// Offset 16 is the start of the entry's own name field.
	path := mpctest.WriteFile(t, "overlap.mpc", literalArchive(16))
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = c.Close() }()

	e, _ := c.Entry(0)
	var out bytes.Buffer
	if _, err := c.CopyEntry(e, &out); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if out.String() != "test." {
		t.Fatalf("overlapping payload: got %q want %q", out.String(), "test.")
	}
}

func TestOpenRejectsBadSignature(t *testing.T) {
	t.Parallel()

	valid := mpctest.Build(mpctest.File{Name: "a.txt", Data: []byte("abc")})
	tests := []struct {
		name string
		sig  string
	}{
		{"swapped", "MPUC"},
		{"lowercase", "mpcu"},
		{"mpq", "MPQ\x1a"},
		{"zeros", "\x00\x00\x00\x00"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			data := bytes.Clone(valid)
			copy(data, tc.sig)
			path := mpctest.WriteFile(t, "bad.mpc", data)

			_, err := Open(path)
			if KindOf(err) != KindFileType {
				t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindFileType, err)
			}
			if !errors.Is(err, ErrInvalidMagic) {
				t.Fatalf("expected ErrInvalidMagic, got %v", err)
			}
		})
	}
}

func TestOpenShortHeader(t *testing.T) {
	t.Parallel()

	full := mpctest.Header("MPCU", 0, 0)
	for _, n := range []int{0, 2, 4, 8, 11} {
		path := mpctest.WriteFile(t, "short.mpc", full[:n])
		_, err := Open(path)
		if KindOf(err) != KindRead {
			t.Fatalf("len %d: kind got %v want %v (err=%v)", n, KindOf(err), KindRead, err)
		}
	}
}

func TestOpenDirectoryPastEOF(t *testing.T) {
	t.Parallel()

	data := append(mpctest.Header("MPCU", 4096, 0), mpctest.Uint32(0)...)
	path := mpctest.WriteFile(t, "far.mpc", data)

	_, err := Open(path)
	if KindOf(err) != KindRead {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindRead, err)
	}
	if !strings.Contains(err.Error(), "entry count") {
		t.Fatalf("expected failure on entry count, got %v", err)
	}
}

func TestOpenTruncatedDirectory(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, mpctest.Header("MPCU", 0, 0)...)
	data = append(data, mpctest.Uint32(2)...)
	data = append(data, mpctest.RawEntry("one", 0, 0, 0, 0)...)
	data = append(data, make([]byte, 70)...) // second entry cut inside length

	path := mpctest.WriteFile(t, "trunc.mpc", data)
	c, err := Open(path)
	if c != nil {
		t.Fatalf("partial directory returned")
	}
	if KindOf(err) != KindRead {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindRead, err)
	}
	if !strings.Contains(err.Error(), "entry 1 length") {
		t.Fatalf("expected failing field in error, got %v", err)
	}
}

func TestOpenHugeEntryCount(t *testing.T) {
	t.Parallel()

	data := append(mpctest.Header("MPCU", 0, 0), mpctest.Uint32(0xFFFFFFFF)...)
	path := mpctest.WriteFile(t, "huge.mpc", data)
	if _, err := Open(path); KindOf(err) != KindRead {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindRead, err)
	}
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "nope.mpc"))
	if KindOf(err) != KindStat {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindStat, err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
	var me *Error
	if !errors.As(err, &me) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if _, ok := me.Errno(); !ok {
		t.Fatalf("expected errno on stat failure")
	}
	if me.OSError() == "" {
		t.Fatalf("expected OS error text")
	}
}

func TestOpenUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	t.Parallel()

	path := mpctest.WriteFile(t, "locked.mpc", mpctest.Build())
	if err := os.Chmod(path, 0); err != nil {
		t.Fatalf("chmod: %v", err)
	}
	_, err := Open(path)
	if KindOf(err) != KindOpen {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindOpen, err)
	}
}

func TestOpaqueFieldsPreserved(t *testing.T) {
	t.Parallel()

	var data []byte
	data = append(data, mpctest.Header("MPCU", 0, 0xDEADBEEF)...)
	data = append(data, mpctest.Uint32(1)...)
	data = append(data, mpctest.RawEntry("x", 0, 0, 0x11223344, 0x55667788)...)

	c, err := NewContainer(bytes.NewReader(data), "mem")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Header().Reserved; got != 0xDEADBEEF {
		t.Fatalf("header reserved: got %#x", got)
	}
	if c.Header().Signature != Magic {
		t.Fatalf("signature: got %q", c.Header().Signature[:])
	}
	e, _ := c.Entry(0)
	if e.Reserved1 != 0x11223344 || e.Reserved2 != 0x55667788 {
		t.Fatalf("entry reserved: got %#x %#x", e.Reserved1, e.Reserved2)
	}
}

func TestNameWithoutTerminator(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("n", NameSize)
	var data []byte
	data = append(data, mpctest.Header("MPCU", 0, 0)...)
	data = append(data, mpctest.Uint32(1)...)
	data = append(data, mpctest.RawEntry(long, 0, 0, 0, 0)...)

	c, err := NewContainer(bytes.NewReader(data), "mem")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	e, _ := c.Entry(0)
	if e.Name != long {
		t.Fatalf("name: got %d bytes want %d", len(e.Name), len(long))
	}
}

func TestNonZeroDirOffset(t *testing.T) {
	t.Parallel()

	payload := []byte("payload!")
	var data []byte
	data = append(data, mpctest.Header("MPCU", uint32(len(payload)), 0)...)
	data = append(data, payload...)
	data = append(data, mpctest.Uint32(1)...)
	data = append(data, mpctest.RawEntry("p.dat", HeaderSize, uint32(len(payload)), 0, 0)...)

	c, err := NewContainer(bytes.NewReader(data), "mem")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := c.Header().DirectoryPosition(); got != HeaderSize+int64(len(payload)) {
		t.Fatalf("directory position: got %d", got)
	}
	e, _ := c.Entry(0)
	var out bytes.Buffer
	if _, err := c.CopyEntry(e, &out); err != nil {
		t.Fatalf("copy: %v", err)
	}
	if !bytes.Equal(out.Bytes(), payload) {
		t.Fatalf("payload: got %q", out.Bytes())
	}
}

func TestEntriesIsACopy(t *testing.T) {
	t.Parallel()

	c, err := NewContainer(bytes.NewReader(mpctest.Build(
		mpctest.File{Name: "a", Data: []byte("1")},
		mpctest.File{Name: "b", Data: []byte("2")},
	)), "mem")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entries := c.Entries()
	entries[0].Name = "changed"
	entries[0].Length = 99

	e, _ := c.Entry(0)
	if e.Name != "a" || e.Length != 1 {
		t.Fatalf("directory mutated through Entries: %+v", e)
	}
	if _, ok := c.Entry(2); ok {
		t.Fatalf("entry 2 should not exist")
	}
	if _, ok := c.Entry(-1); ok {
		t.Fatalf("entry -1 should not exist")
	}
	if got, ok := c.Lookup("b"); !ok || got.Index != 1 {
		t.Fatalf("lookup b: got %+v ok=%v", got, ok)
	}
	if _, ok := c.Lookup("missing"); ok {
		t.Fatalf("lookup of missing name succeeded")
	}
}

func TestOpenWithMmap(t *testing.T) {
	t.Parallel()

	data := mpctest.Build(
		mpctest.File{Name: "one.txt", Data: []byte("first")},
		mpctest.File{Name: "two.txt", Data: bytes.Repeat([]byte{0xAB}, 3*ChunkSize+7)},
	)
	path := mpctest.WriteFile(t, "mapped.mpc", data)

	c, err := OpenWithOptions(path, OpenOptions{Mmap: true})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer func() { _ = c.Close() }()

	for _, e := range c.Entries() {
		var out bytes.Buffer
		if _, err := c.CopyEntry(e, &out); err != nil {
			t.Fatalf("copy %s: %v", e.Name, err)
		}
		if !bytes.Equal(out.Bytes(), data[e.Offset:e.End()]) {
			t.Fatalf("payload %s mismatch", e.Name)
		}
	}
}

func TestOpenWithMmapEmptyFile(t *testing.T) {
	t.Parallel()

	path := mpctest.WriteFile(t, "empty.mpc", nil)
	_, err := OpenWithOptions(path, OpenOptions{Mmap: true})
	if KindOf(err) != KindRead {
		t.Fatalf("kind: got %v want %v (err=%v)", KindOf(err), KindRead, err)
	}
}

func TestCloseStopsPayloadReads(t *testing.T) {
	t.Parallel()

	path := mpctest.WriteFile(t, "c.mpc", mpctest.Build(mpctest.File{Name: "a", Data: []byte("abc")}))
	c, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	e, _ := c.Entry(0)
	_, err = c.CopyEntry(e, &bytes.Buffer{})
	if !errors.Is(err, ErrClosed) || KindOf(err) != KindRead {
		t.Fatalf("expected closed read error, got %v", err)
	}
}
