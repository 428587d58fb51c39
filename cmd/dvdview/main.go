package main

import (
	"fmt"
	"os"

	"github.com/bgrewell/dvd-kit"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/usage"
	"github.com/go-logr/logr"
)

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("dvdview"),
		usage.WithApplicationDescription("dvdview prints the file structure and the title sets of a DVD device or image."),
	)
	help := u.AddBooleanOption("h", "help", false, "Show this help message", "optional", nil)
	verbose := u.AddBooleanOption("v", "verbose", false, "Print verbose output", "optional", nil)
	files := u.AddBooleanOption("f", "files", false, "List the files of the volume", "optional", nil)
	path := u.AddArgument(1, "device", "DVD device or image to read", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if path == nil || *path == "" {
		u.PrintError(fmt.Errorf("location of the DVD <device> must be provided"))
		os.Exit(1)
	}

	level := logging.LEVEL_INFO
	if *verbose {
		level = logging.LEVEL_DEBUG
	}
	log := logging.NewLogger(logr.New(logging.NewSimpleLogSink(os.Stderr, level, true)))

	disc, err := dvd.Open(*path, option.WithLogger(log))
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	defer disc.Close()

	vol := disc.Volume()
	fmt.Printf("Volume %q, %d sectors, scrambled: %t\n", vol.ID(), vol.SizeInSectors(), disc.Device().IsScrambled())

	if *files {
		fmt.Println()
		for _, f := range vol.AllFiles() {
			fmt.Printf("  %s\n", f)
		}
	}

	sets, err := disc.TitleSets()
	if err != nil {
		u.PrintError(err)
		os.Exit(1)
	}
	for _, ts := range sets {
		fmt.Printf("\nTitle set %d: %s, %d VOB files starting at sector %d\n",
			ts.VtsNumber(), ts.IfoFileName(), len(ts.VobFileNames()), ts.VobStartSector())
		for _, s := range ts.Streams() {
			fmt.Printf("  %s\n", s)
		}
		for _, pgc := range ts.Titles() {
			if pgc == nil {
				continue
			}
			fmt.Printf("  Title %d: %s, %d chapters, %d cells, %d angles\n",
				pgc.TitleNumber(), duration(pgc.DurationInSeconds()), len(pgc.Chapters()), len(pgc.Cells()), pgc.AngleCount())
		}
	}
}

func duration(seconds int) string {
	return fmt.Sprintf("%d:%02d:%02d", seconds/3600, seconds/60%60, seconds%60)
}
