package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bgrewell/dvd-kit/pkg/ifo"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newIfoCommand(ctx *commandContext) *cobra.Command {
	var format string
	var file string

	cmd := &cobra.Command{
		Use:   "ifo [vts...]",
		Short: "Dump decoded title set information",
		Long:  "Dump the decoded IFO of the given title sets, all of them by default. With --file a VTS_nn_0.IFO or VOB on the filesystem is decoded instead of the DVD.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "yaml" && format != "text" {
				return fmt.Errorf("unknown format %q, expected yaml or text", format)
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if file != "" {
				if len(args) > 0 {
					return fmt.Errorf("title set numbers cannot be combined with --file")
				}
				ts, err := ifo.LoadFile(afero.NewOsFs(), file, ctx.log)
				if err != nil {
					return err
				}
				return dumpTitleSets(out, format, []*ifo.TitleSet{ts})
			}

			disc, err := ctx.openDisc()
			if err != nil {
				return err
			}
			defer disc.Close()

			var sets []*ifo.TitleSet
			if len(args) == 0 {
				if sets, err = disc.TitleSets(); err != nil {
					return err
				}
			}
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return fmt.Errorf("invalid title set number %q", arg)
				}
				ts, err := disc.TitleSet(n)
				if err != nil {
					return err
				}
				sets = append(sets, ts)
			}
			ctx.log.Debug("Dumping title sets", "device", cfg.Device, "count", len(sets))
			return dumpTitleSets(out, format, sets)
		},
	}

	cmd.Flags().StringVar(&format, "format", "yaml", "Output format: yaml or text")
	cmd.Flags().StringVar(&file, "file", "", "Decode a title set from the filesystem")
	return cmd
}

func dumpTitleSets(out io.Writer, format string, sets []*ifo.TitleSet) error {
	if format == "text" {
		for _, ts := range sets {
			writeTitleSetText(out, ts)
		}
		return nil
	}

	summaries := make([]ifo.Summary, 0, len(sets))
	for _, ts := range sets {
		summaries = append(summaries, ts.Summary())
	}
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(2)
	if err := encoder.Encode(summaries); err != nil {
		return fmt.Errorf("encode title sets: %w", err)
	}
	return encoder.Close()
}

func writeTitleSetText(out io.Writer, ts *ifo.TitleSet) {
	fmt.Fprintf(out, "Title set %d (%s), VOB start sector %d, encrypted: %t\n",
		ts.VtsNumber(), ts.IfoFileName(), ts.VobStartSector(), ts.IsEncrypted())
	for _, s := range ts.Streams() {
		fmt.Fprintf(out, "  %s\n", s)
	}
	for _, pgc := range ts.Titles() {
		if pgc == nil {
			continue
		}
		fmt.Fprintf(out, "  Title %d: %s, next %d, previous %d, %d angles\n", pgc.TitleNumber(),
			formatDuration(pgc.DurationInSeconds()), pgc.NextTitleNumber(), pgc.PreviousTitleNumber(), pgc.AngleCount())
		for _, ch := range pgc.Chapters() {
			fmt.Fprintf(out, "    Chapter %d: cells %d-%d, %s\n", ch.Number, ch.FirstCell, ch.LastCell,
				formatDuration(ch.DurationInSeconds(pgc)))
		}
		for _, cell := range pgc.Cells() {
			fmt.Fprintf(out, "    Cell %d: angle %d, VOB %d cell %d, sectors %s\n", cell.ID, cell.AngleID,
				cell.OriginalVobID, cell.OriginalCellID, cell.Sectors)
		}
		fmt.Fprintf(out, "    Palette: %s\n", pgc.PaletteString())
	}
}
