package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/internal/digest"
	"github.com/samcharles93/mpcextract/pkg/mpc"
)

// sumCmd prints b2sum-compatible lines, so `b2sum -l 256 -c` can verify an
// extracted tree.
func (a *app) sumCmd() *cli.Command {
	return &cli.Command{
		Name:      "sum",
		Usage:     "Print the BLAKE2b-256 of every payload",
		ArgsUsage: "ARCHIVE.mpc",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("sum: archive path is required")
			}
			c, err := mpc.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			for _, e := range c.Entries() {
				if err := ctx.Err(); err != nil {
					return err
				}
				sum, err := digest.Payload(c, e)
				if err != nil {
					return err
				}
				name, err := mpc.SafeName(e.Name)
				if err != nil {
					name = e.Name
				}
				_, _ = fmt.Fprintf(a.stdout, "%s  %s\n", sum, name)
			}
			return nil
		},
	}
}
