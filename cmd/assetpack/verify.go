package main

import (
	_ "crypto/sha256" // digest.Canonical
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/opencontainers/go-digest"
	"github.com/spf13/cobra"

	"github.com/meigma/assetpack/archive"
)

// errVerify is returned when a package has unreadable entries.
var errVerify = errors.New("package verification failed")

func newVerifyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "verify FILE",
		Short: "Check that a package's header parses and every entry decrypts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := ctx.log(cmd.ErrOrStderr())
			path := args[0]
			out := cmd.OutOrStdout()

			f, err := os.Open(path)
			if err != nil {
				return err
			}
			hdr, err := archive.ParseHeader(f)
			if err != nil {
				f.Close()
				return fmt.Errorf("verify %s: %w", path, err)
			}
			if _, err := f.Seek(0, io.SeekStart); err != nil {
				f.Close()
				return err
			}
			sum, err := digest.FromReader(f)
			f.Close()
			if err != nil {
				return fmt.Errorf("digest %s: %w", path, err)
			}
			if !hdr.HasMagic() {
				logger.Warn("package magic mismatch", "path", path, "magic", fmt.Sprintf("%q", hdr.Magic[:]))
			}

			entries, err := archive.ReadPackage(path, archive.WithLogger(logger))
			if err != nil {
				return fmt.Errorf("verify %s: %w", path, err)
			}
			r := archive.NewReader(archive.WithReaderLogger(logger))
			defer r.Close()

			var failed [][]string
			var total uint64
			for _, e := range entries {
				data, err := r.Read(e)
				if err != nil {
					failed = append(failed, []string{e.Name, err.Error()})
					continue
				}
				total += uint64(len(data))
			}

			fmt.Fprintf(out, "%s\n  digest:  %s\n  entries: %d\n  content: %s\n",
				path, sum, len(entries), humanize.IBytes(total))
			if len(failed) > 0 {
				fmt.Fprintln(out, renderTable([]column{left("Entry"), wrapped("Error", 60)}, failed, nil))
				return fmt.Errorf("%w: %d of %d entries unreadable", errVerify, len(failed), len(entries))
			}
			fmt.Fprintln(out, "OK")
			return nil
		},
	}
}
