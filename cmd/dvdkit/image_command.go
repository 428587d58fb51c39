package main

import (
	"fmt"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/transfer"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newImageCommand(ctx *commandContext) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "image OUTPUT",
		Short: "Copy a DVD into an image file",
		Long:  "Copy the whole medium, or one file with --file, into OUTPUT. Unreadable sectors of the image are written as zeros.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			disc, err := ctx.openDisc()
			if err != nil {
				return err
			}
			defer disc.Close()

			sink, err := transfer.FileSink(afero.NewOsFs(), args[0])
			if err != nil {
				return err
			}

			description := disc.Volume().ID()
			if file != "" {
				description = file
			}
			bar := newProgress(description)
			opts := append(cfg.TransferOptions(ctx.log), bar.options()...)

			start := time.Now()
			var engine *transfer.Engine
			if file != "" {
				engine, err = disc.ExtractFile(cmd.Context(), file, sink, opts...)
			} else {
				engine, err = disc.ExtractImage(cmd.Context(), sink, opts...)
			}
			if err != nil {
				return err
			}
			err = engine.Wait()
			bar.finish()
			if err != nil {
				return err
			}
			_, written := engine.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s to %s in %s\n", humanize.IBytes(uint64(written)), args[0],
				time.Since(start).Round(time.Second))
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Copy only this file of the volume")
	return cmd
}
