package mpc

import "io"

// source is what a container reads payloads from: an *os.File or a mapping.
type source interface {
	io.ReadSeeker
	io.Closer
}
