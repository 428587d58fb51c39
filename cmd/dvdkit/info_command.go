package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/ifo"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newInfoCommand(ctx *commandContext) *cobra.Command {
	var showFiles bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the files, titles and streams of a DVD",
		RunE: func(cmd *cobra.Command, args []string) error {
			disc, err := ctx.openDisc()
			if err != nil {
				return err
			}
			defer disc.Close()

			out := cmd.OutOrStdout()
			vol := disc.Volume()
			fmt.Fprintf(out, "Volume %q on %s: %s, %d title sets, scrambled: %t\n", vol.ID(), disc.Device().Name(),
				humanize.IBytes(uint64(vol.SizeInSectors())*2048), vol.VtsCount(), disc.Device().IsScrambled())
			if created := vol.CreationDate(); !created.IsZero() {
				fmt.Fprintf(out, "Created %s (%s)\n", created.Format(time.DateTime), humanize.Time(created))
			}

			if showFiles {
				var rows [][]string
				for _, f := range vol.AllFiles() {
					name := f.Path()
					if f.IsPlaceholder() {
						name = "(unused)"
					}
					rows = append(rows, []string{
						name,
						strconv.Itoa(f.StartSector()),
						strconv.Itoa(f.SectorCount()),
						humanize.IBytes(uint64(f.SizeInBytes())),
						formatDate(f.RecordedAt()),
					})
				}
				fmt.Fprintln(out, renderTable("Files", []string{"Path", "Start", "Sectors", "Size", "Recorded"}, rows,
					[]columnAlignment{alignLeft, alignRight, alignRight, alignRight, alignLeft}))
			}

			sets, err := disc.TitleSets()
			if err != nil {
				return err
			}
			for _, ts := range sets {
				fmt.Fprintln(out, renderTitleSet(ts))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&showFiles, "files", "f", false, "List the files of the volume")
	return cmd
}

func renderTitleSet(ts *ifo.TitleSet) string {
	var titles [][]string
	for _, pgc := range ts.Titles() {
		if pgc == nil {
			continue
		}
		titles = append(titles, []string{
			strconv.Itoa(pgc.TitleNumber()),
			formatDuration(pgc.DurationInSeconds()),
			formatDuration(ts.AllTitlesDurationInSeconds(pgc.TitleNumber())),
			strconv.Itoa(len(pgc.Chapters())),
			strconv.Itoa(len(pgc.Cells())),
			strconv.Itoa(pgc.AngleCount()),
			humanize.IBytes(uint64(pgc.TotalSectorCount(1)) * 2048),
		})
	}
	result := renderTable(fmt.Sprintf("Title set %d", ts.VtsNumber()),
		[]string{"Title", "Duration", "Chain", "Chapters", "Cells", "Angles", "Size"}, titles,
		[]columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight})

	var streams [][]string
	for _, s := range ts.Streams() {
		streams = append(streams, []string{s.Type.String(), fmt.Sprintf("0x%02X", s.ID), s.LanguageName(), s.String()})
	}
	return result + "\n" + renderTable("", []string{"Type", "ID", "Language", "Description"}, streams, nil)
}

func formatDuration(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.DateTime)
}
