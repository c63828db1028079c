package main

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/mpcextract/pkg/mpc"
)

type listedEntry struct {
	Index     int    `json:"index"`
	Name      string `json:"name"`
	Offset    uint32 `json:"offset"`
	Length    uint32 `json:"length"`
	Reserved1 uint32 `json:"reserved1"`
	Reserved2 uint32 `json:"reserved2"`
}

func (a *app) listCmd() *cli.Command {
	var asJSON bool

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"ls"},
		Usage:     "List the directory of an archive",
		ArgsUsage: "ARCHIVE.mpc",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "print entries as JSON",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 1 {
				return errors.New("list: archive path is required")
			}
			c, err := mpc.Open(cmd.Args().First())
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			entries := c.Entries()
			if asJSON {
				out := make([]listedEntry, 0, len(entries))
				for _, e := range entries {
					out = append(out, listedEntry{
						Index:     e.Index,
						Name:      e.Name,
						Offset:    e.Offset,
						Length:    e.Length,
						Reserved1: e.Reserved1,
						Reserved2: e.Reserved2,
					})
				}
				enc := json.NewEncoder(a.stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			_, _ = fmt.Fprintf(a.stdout, "%5s  %10s  %10s  %10s  %10s  %s\n", "INDEX", "OFFSET", "LENGTH", "RESERVED1", "RESERVED2", "NAME")
			var total uint64
			for _, e := range entries {
				_, _ = fmt.Fprintf(a.stdout, "%5d  %10d  %10d  %#010x  %#010x  %s\n",
					e.Index, e.Offset, e.Length, e.Reserved1, e.Reserved2, e.Name)
				total += uint64(e.Length)
			}
			_, _ = fmt.Fprintf(a.stdout, "\n%d file(s), %s\n", len(entries), formatSize(total))
			return nil
		},
	}
}

func formatSize(bytes uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case bytes >= gb:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(gb))
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
