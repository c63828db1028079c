package mpc

import (
	"errors"
	"syscall"
)

var (
	ErrInvalidMagic = errors.New("not an MPC file")
	ErrUnsafeName   = errors.New("unsafe entry name")
	ErrClosed       = errors.New("mpc: container closed")
)

// Kind classifies a failure. The CLI maps each kind to its own exit status.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindFileType
	KindOpen
	KindRead
	KindStat
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindFileType:
		return "filetype"
	case KindOpen:
		return "open"
	case KindRead:
		return "read"
	case KindStat:
		return "stat"
	case KindWrite:
		return "write"
	default:
		return "unknown"
	}
}

// Error is the only error type returned by this package.
type Error struct {
	Kind Kind
	// Op is a short description of the step that failed, e.g. "read directory".
	Op string
	// Path is the archive path or, for extraction, the entry name.
	Path string
	Err  error
}

func (e *Error) Error() string {
	msg := "mpc: " + e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errno returns the operating system error number behind the failure, if any.
func (e *Error) Errno() (syscall.Errno, bool) {
	var errno syscall.Errno
	if errors.As(e.Err, &errno) {
		return errno, true
	}
	return 0, false
}

// OSError renders the errno as "ENOENT: no such file or directory".
// It returns "" when the failure did not come from the OS.
func (e *Error) OSError() string {
	errno, ok := e.Errno()
	if !ok || errno == 0 {
		return ""
	}
	if name := errnoName(errno); name != "" {
		return name + ": " + errno.Error()
	}
	return errno.Error()
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var me *Error
	if errors.As(err, &me) {
		return me.Kind
	}
	return KindUnknown
}

func newError(kind Kind, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}
