package main

import (
	_ "crypto/sha256" // digest.Canonical
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/meigma/assetpack/archive"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var withDigest bool

	cmd := &cobra.Command{
		Use:   "list [ROOT|FILE]",
		Short: "List the entries of a package or of every package under a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.log(cmd.ErrOrStderr())
			target := cfg.Content.Root
			if len(args) == 1 {
				target = args[0]
			}

			idx, err := loadIndex(cmd, target, cfg.Content.ArchiveExtension, cfg.Content.StrictMagic)
			if err != nil {
				return err
			}

			var r *archive.Reader
			if withDigest {
				r = archive.NewReader(archive.WithReaderLogger(logger))
				defer r.Close()
			}

			cols := []column{left("Name"), right("Size"), right("Stored"), right("Offset"), left("Package")}
			if withDigest {
				cols = append(cols, left("Digest"))
			}

			var rows [][]string
			var total, stored uint64
			for e := range idx.Entries() {
				row := []string{
					e.Name,
					humanize.IBytes(uint64(e.RealLength)),
					humanize.IBytes(uint64(e.StoredLength)),
					strconv.FormatUint(uint64(e.Offset), 10),
					filepath.Base(e.Archive),
				}
				if withDigest {
					data, err := r.Read(e)
					if err != nil {
						return err
					}
					row = append(row, digest.FromBytes(data).String())
				}
				rows = append(rows, row)
				total += uint64(e.RealLength)
				stored += uint64(e.StoredLength)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No entries found")
				return nil
			}
			footer := []string{
				fmt.Sprintf("%d entries", len(rows)),
				humanize.IBytes(total),
				humanize.IBytes(stored),
				"",
				fmt.Sprintf("%d packages", len(idx.Archives())),
			}
			fmt.Fprintln(out, renderTable(cols, rows, footer))
			return nil
		},
	}
	cmd.Flags().BoolVar(&withDigest, "digest", false, "Decrypt every entry and show its sha256 digest")
	return cmd
}

// loadIndex indexes target, which is either one package file or a
// directory scanned for packages.
func loadIndex(cmd *cobra.Command, target, ext string, strict bool) (*archive.Index, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		entries, err := archive.ReadPackage(target, archive.WithStrictMagic(strict))
		if err != nil {
			return nil, err
		}
		return archive.NewIndex(entries...), nil
	}
	return archive.Scan(cmd.Context(), target, archive.WithExtension(ext), archive.WithStrictMagic(strict))
}
