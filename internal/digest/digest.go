// Package digest computes BLAKE2b-256 sums of archive payloads and extracted files.
package digest

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"

	"github.com/samcharles93/mpcextract/pkg/mpc"
)

// Size is the digest length in bytes.
const Size = blake2b.Size256

// Payload hashes an entry's payload straight from the container.
// Errors are the container's *mpc.Error values.
func Payload(c *mpc.Container, e mpc.Entry) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := c.CopyEntry(e, h); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// File hashes a file on fs.
func File(fs afero.Fs, name string) (string, error) {
	f, err := fs.Open(name)
	if err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	defer func() { _ = f.Close() }()
	return Reader(f)
}

// Reader hashes everything readable from r.
func Reader(r io.Reader) (string, error) {
	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("digest: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
