package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/pkg/mpc"
)

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "Print the archive header",
		ArgsUsage: "ARCHIVE.mpc",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("info: archive path is required")
			}
			c, err := mpc.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			h := c.Header()
			var payload uint64
			for _, e := range c.Entries() {
				payload += uint64(e.Length)
			}
			_, _ = fmt.Fprintf(a.stdout, "archive:          %s\n", c.Name())
			_, _ = fmt.Fprintf(a.stdout, "signature:        %s\n", h.Signature[:])
			_, _ = fmt.Fprintf(a.stdout, "directory offset: %d (absolute %d)\n", h.DirOffset, h.DirectoryPosition())
			_, _ = fmt.Fprintf(a.stdout, "reserved:         %#010x\n", h.Reserved)
			_, _ = fmt.Fprintf(a.stdout, "entries:          %d\n", c.EntryCount())
			_, _ = fmt.Fprintf(a.stdout, "payload bytes:    %d\n", payload)
			return nil
		},
	}
}
