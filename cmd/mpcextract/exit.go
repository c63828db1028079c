package main

import (
	"errors"

	"github.com/samcharles93/mpcextract/pkg/mpc"
)

// Exit statuses, one per failure kind.
const (
	exitOK = iota
	exitErr
	exitFileType
	exitOpen
	exitRead
	exitStat
	exitWrite
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch mpc.KindOf(err) {
	case mpc.KindFileType:
		return exitFileType
	case mpc.KindOpen:
		return exitOpen
	case mpc.KindRead:
		return exitRead
	case mpc.KindStat:
		return exitStat
	case mpc.KindWrite:
		return exitWrite
	default:
		return exitErr
	}
}

// errorMessage renders err as "Couldn't <op> <path>: <os error>".
func errorMessage(err error) string {
	var me *mpc.Error
	if !errors.As(err, &me) {
		return "error: " + err.Error()
	}
	msg := "Couldn't " + me.Op
	if me.Path != "" {
		msg += " " + me.Path
	}
	detail := me.OSError()
	if detail == "" && me.Err != nil {
		detail = me.Err.Error()
	}
	if detail != "" {
		msg += ": " + detail
	}
	return msg
}
