package mpc

import (
	"fmt"
	"strings"
)

// SafeName turns an entry name into a relative, slash-separated path that
// cannot leave the directory it is joined to. Both '/' and '\' separate
// components. Empty and "." components are dropped. Absolute names, drive
// letters, ".." components and names that reduce to nothing are rejected.
func SafeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("%w: empty name", ErrUnsafeName)
	}
	if strings.IndexFunc(name, isControl) >= 0 {
		return "", fmt.Errorf("%w: %q contains control characters", ErrUnsafeName, name)
	}

	n := strings.ReplaceAll(name, `\`, "/")
	if strings.HasPrefix(n, "/") {
		return "", fmt.Errorf("%w: %q is absolute", ErrUnsafeName, name)
	}
	if len(n) >= 2 && n[1] == ':' && isASCIILetter(n[0]) {
		return "", fmt.Errorf("%w: %q has a drive letter", ErrUnsafeName, name)
	}

	parts := strings.Split(n, "/")
	clean := parts[:0]
	for _, p := range parts {
		switch p {
		case "", ".":
			continue
		case "..":
			return "", fmt.Errorf("%w: %q escapes the output directory", ErrUnsafeName, name)
		}
		clean = append(clean, p)
	}
	if len(clean) == 0 {
		return "", fmt.Errorf("%w: %q has no file name", ErrUnsafeName, name)
	}
	return strings.Join(clean, "/"), nil
}

func isControl(r rune) bool {
	return r < 0x20 || r == 0x7f
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
