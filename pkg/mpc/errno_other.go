//go:build !unix

package mpc

import "syscall"

// errnoName has no symbolic table off unix; callers fall back to the message.
func errnoName(syscall.Errno) string {
	return ""
}
