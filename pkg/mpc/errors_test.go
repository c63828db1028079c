package mpc

import (
	"errors"
	"fmt"
	"strings"
	"syscall"
	"testing"
)

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	err := newError(KindRead, "read file header from", "game.mpc", errors.New("unexpected EOF"))
	if got, want := err.Error(), "mpc: read file header from game.mpc: unexpected EOF"; got != want {
		t.Fatalf("message: got %q want %q", got, want)
	}

	bare := &Error{Kind: KindFileType, Op: "check signature"}
	if got := bare.Error(); got != "mpc: check signature" {
		t.Fatalf("bare message: got %q", got)
	}
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	wrapped := fmt.Errorf("entry 3: %w", newError(KindWrite, "open output file", "a", nil))
	if KindOf(wrapped) != KindWrite {
		t.Fatalf("wrapped kind: got %v", KindOf(wrapped))
	}
	if KindOf(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain error should have unknown kind")
	}
	if KindOf(nil) != KindUnknown {
		t.Fatalf("nil error should have unknown kind")
	}
}

func TestKindString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		kind Kind
		want string
	}{
		{KindFileType, "filetype"},
		{KindOpen, "open"},
		{KindRead, "read"},
		{KindStat, "stat"},
		{KindWrite, "write"},
		{KindUnknown, "unknown"},
		{Kind(200), "unknown"},
	}
	for _, tc := range tests {
		if got := tc.kind.String(); got != tc.want {
			t.Errorf("Kind(%d).String(): got %q want %q", tc.kind, got, tc.want)
		}
	}
}

func TestOSError(t *testing.T) {
	t.Parallel()

	err := newError(KindStat, "stat", "x.mpc", fmt.Errorf("stat x.mpc: %w", syscall.ENOENT))
	errno, ok := err.Errno()
	if !ok || errno != syscall.ENOENT {
		t.Fatalf("errno: got %v ok=%v", errno, ok)
	}
	if !strings.Contains(err.OSError(), syscall.ENOENT.Error()) {
		t.Fatalf("os error text: got %q", err.OSError())
	}

	semantic := newError(KindFileType, "check signature of", "x.mpc", ErrInvalidMagic)
	if semantic.OSError() != "" {
		t.Fatalf("semantic failure should carry no OS error, got %q", semantic.OSError())
	}
}
