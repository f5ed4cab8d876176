package main

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/meigma/assetpack/archive"
)

func newPackCommand(ctx *commandContext) *cobra.Command {
	var magic string

	cmd := &cobra.Command{
		Use:   "pack SRC OUT",
		Short: "Pack every file under SRC into the package OUT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.log(cmd.ErrOrStderr())
			src, out := args[0], args[1]

			n, size, err := packDir(src, out, magic)
			if err != nil {
				return err
			}
			logger.Info("package written", "path", out, "entries", n, "size", humanize.IBytes(size))
			fmt.Fprintf(cmd.OutOrStdout(), "Packed %d files (%s) into %s\n", n, humanize.IBytes(size), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&magic, "magic", "", "Header magic to write instead of the default")
	return cmd
}

// packDir writes every regular file under src to a package at out and
// returns the entry count and total content size.
func packDir(src, out, magic string) (int, uint64, error) {
	root, err := os.OpenRoot(src)
	if err != nil {
		return 0, 0, fmt.Errorf("open source: %w", err)
	}
	defer root.Close()

	outAbs, err := filepath.Abs(out)
	if err != nil {
		return 0, 0, err
	}
	srcAbs, err := filepath.Abs(src)
	if err != nil {
		return 0, 0, err
	}

	f, err := os.Create(out)
	if err != nil {
		return 0, 0, fmt.Errorf("create package: %w", err)
	}
	bw := bufio.NewWriter(f)

	var opts []archive.WriterOption
	if magic != "" {
		opts = append(opts, archive.WithMagic(magic))
	}
	w := archive.NewWriter(bw, opts...)

	var total uint64
	err = fs.WalkDir(root.FS(), ".", func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if filepath.Join(srcAbs, filepath.FromSlash(path)) == outAbs {
			return nil
		}
		data, err := root.ReadFile(path)
		if err != nil {
			return err
		}
		if err := w.Add(path, data); err != nil {
			return err
		}
		total += uint64(len(data))
		return nil
	})
	if err == nil {
		err = w.Close()
	}
	if err == nil {
		err = bw.Flush()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return 0, 0, errors.Join(fmt.Errorf("pack %s: %w", src, err), os.Remove(out))
	}
	return w.Len(), total, nil
}
