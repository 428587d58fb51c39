package main

import (
	"fmt"
	"os/exec"
	"strings"

	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/transfer"
	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newRipCommand(ctx *commandContext) *cobra.Command {
	var vts, title, angle, fallback int
	var navPacks string
	var outputs []string
	var commands []string

	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Demux a title into MPEG program streams",
		Long:  "Demux one title of a title set. The stream is written to every --output file and piped into every --exec command.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(outputs) == 0 && len(commands) == 0 {
				return fmt.Errorf("at least one --output or --exec is required")
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			demuxOpts := cfg.DemuxOptions(ctx.log)
			if navPacks != "" {
				policy, err := option.ParseNavPackPolicy(navPacks)
				if err != nil {
					return err
				}
				demuxOpts = append(demuxOpts, option.WithNavPackPolicy(policy))
			}
			if fallback > 0 {
				demuxOpts = append(demuxOpts, option.WithFallbackPGC(fallback))
			}

			disc, err := ctx.openDisc()
			if err != nil {
				return err
			}
			defer disc.Close()

			var sinks []transfer.Sink
			for _, path := range outputs {
				sink, err := transfer.FileSink(afero.NewOsFs(), path)
				if err != nil {
					transfer.AbortSinks(err, sinks...)
					return err
				}
				sinks = append(sinks, sink)
			}
			for _, line := range commands {
				fields := strings.Fields(line)
				if len(fields) == 0 {
					continue
				}
				command := exec.CommandContext(cmd.Context(), fields[0], fields[1:]...)
				command.Stdout = cmd.OutOrStdout()
				command.Stderr = cmd.ErrOrStderr()
				sink, err := transfer.CommandSink(command)
				if err != nil {
					transfer.AbortSinks(err, sinks...)
					return err
				}
				sinks = append(sinks, sink)
			}

			bar := newProgress(fmt.Sprintf("Title %d", title))
			transferOpts := append(cfg.TransferOptions(ctx.log), bar.options()...)
			demuxOpts = append(demuxOpts, option.WithTransferOptions(transferOpts...))

			engine, err := disc.Demux(cmd.Context(), vts, title, angle, sinks, demuxOpts...)
			if err != nil {
				return err
			}
			err = engine.Wait()
			bar.finish()
			if err != nil {
				return err
			}
			_, written := engine.Progress()
			fmt.Fprintf(cmd.OutOrStdout(), "Title %d of title set %d: %s written\n", title, vts, humanize.IBytes(uint64(written)))
			return nil
		},
	}

	cmd.Flags().IntVar(&vts, "vts", 1, "Title set number")
	cmd.Flags().IntVarP(&title, "title", "t", 1, "Title (program chain) number")
	cmd.Flags().IntVarP(&angle, "angle", "a", 1, "Angle of multi-angle titles")
	cmd.Flags().IntVar(&fallback, "fallback", 0, "Title to use when the requested one does not exist")
	cmd.Flags().StringVar(&navPacks, "navpacks", "", "Navigation packs: fix, unchanged or remove (default from config)")
	cmd.Flags().StringArrayVarP(&outputs, "output", "o", nil, "Output file, may be repeated")
	cmd.Flags().StringArrayVar(&commands, "exec", nil, "Command reading the stream on stdin, may be repeated")
	return cmd
}
