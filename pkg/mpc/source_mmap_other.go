//go:build !unix

package mpc

import "os"

type mappedSource struct {
	source
}

func mapFile(*os.File, int64) (*mappedSource, bool) {
	return nil, false
}
