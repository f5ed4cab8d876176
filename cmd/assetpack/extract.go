package main

import (
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/meigma/assetpack"
	"github.com/meigma/assetpack/archive"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var (
		output   string
		packaged bool
	)

	cmd := &cobra.Command{
		Use:   "extract ROOT|FILE NAME",
		Short: "Write the content of one asset, honoring loose overrides",
		Long: `Write the content of one asset.

By default the asset is resolved the way the loader resolves it, so a loose
file under ROOT wins over packaged content. With --packaged the loose tree is
ignored and the entry is read from the packages under ROOT, or from the
single package FILE.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var data []byte
			var err error
			if packaged {
				data, err = readPackaged(cmd, ctx, args[0], args[1])
			} else {
				data, err = readResolved(cmd, ctx, args[0], args[1])
			}
			if err != nil {
				return err
			}

			if output == "" || output == "-" {
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	cmd.Flags().BoolVar(&packaged, "packaged", false, "Read the packaged entry, ignoring loose files")
	return cmd
}

func readResolved(cmd *cobra.Command, ctx *commandContext, root, name string) ([]byte, error) {
	l, err := ctx.openLoader(cmd.Context(), root, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	defer l.Close()

	a, err := l.Load(name, assetpack.KindBytes)
	if err != nil {
		return nil, err
	}
	ctx.log(cmd.ErrOrStderr()).Debug("asset extracted", "name", a.Name(), "source", a.Source())
	return a.Bytes(), nil
}

func readPackaged(cmd *cobra.Command, ctx *commandContext, target, name string) ([]byte, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := ctx.log(cmd.ErrOrStderr())

	idx, err := loadIndex(cmd, target, cfg.Content.ArchiveExtension, cfg.Content.StrictMagic)
	if err != nil {
		return nil, err
	}
	r := archive.NewReader(archive.WithReaderLogger(logger))
	defer r.Close()

	data, err := fs.ReadFile(archive.NewFS(idx, r), name)
	if err != nil {
		return nil, err
	}
	logger.Debug("asset extracted", "name", archive.NormalizeName(name), "source", "package")
	return data, nil
}
