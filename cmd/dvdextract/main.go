package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/bgrewell/dvd-kit"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/transfer"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
	"github.com/theckman/yacspin"
	"golang.org/x/term"
)

var (
	version = "dev"
)

// truncateString truncates the input string to the specified max length.
// If truncation occurs, it prepends "..." to indicate the string has been shortened.
func truncateString(input string, maxLength int) string {
	if len(input) <= maxLength {
		return input
	}
	if maxLength <= 3 {
		return input[len(input)-maxLength:]
	}
	return "..." + input[len(input)-(maxLength-3):]
}

// CreateProgressCallback returns a callback that updates the spinner's message.
func CreateProgressCallback(spinner *yacspin.Spinner, output string) option.TransferProgressCallback {
	return func(bytesTransferred int64, totalBytes int64) {
		width, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil {
			width = 80
		}

		suffixPart := fmt.Sprintf(" - %d MiB", bytesTransferred>>20)
		if totalBytes > 0 {
			suffixPart = fmt.Sprintf(" - %.2f%%", float64(bytesTransferred)/float64(totalBytes)*100)
		}

		availableSpace := width - len(suffixPart) - 6
		if availableSpace < 10 {
			availableSpace = 10
		}
		spinner.Message(" " + truncateString(output, availableSpace) + suffixPart)
	}
}

// InitializeSpinner sets up and starts the yacspin spinner.
func InitializeSpinner() (*yacspin.Spinner, error) {
	settings := yacspin.Config{
		Frequency:         100 * time.Millisecond,
		ShowCursor:        false,
		SpinnerAtEnd:      false,
		CharSet:           yacspin.CharSets[14],
		Colors:            []string{"fgHiCyan"},
		StopColors:        []string{"fgHiGreen"},
		StopFailColors:    []string{"fgHiRed"},
		StopFailCharacter: "✗",
		StopCharacter:     "✓",
	}

	spinner, err := yacspin.New(settings)
	if err != nil {
		return nil, fmt.Errorf("failed to create spinner: %w", err)
	}

	if err := spinner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start spinner: %w", err)
	}

	return spinner, nil
}

func main() {
	// Logging level flags
	debug := flag.Bool("v", false, "Enable verbose (debug) logging")
	trace := flag.Bool("vv", false, "Enable trace logging")

	// Demux options
	vts := flag.Int("vts", 1, "Title set number")
	title := flag.Int("title", 1, "Title (program chain) number")
	angle := flag.Int("angle", 1, "Angle of multi-angle titles")
	navPacks := flag.String("navpacks", "fix", "Navigation packs: fix, unchanged or remove")

	// Output file
	output := flag.String("o", "title.vob", "Output file")

	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("dvdextract v" + version)
		fmt.Println("Usage: dvdextract [options] <device-or-image>")
		fmt.Println("  -v               Enable verbose (debug) logging")
		fmt.Println("  -vv              Enable trace logging")
		fmt.Println("  -vts <n>         Title set number (default 1)")
		fmt.Println("  -title <n>       Title number (default 1)")
		fmt.Println("  -angle <n>       Angle of multi-angle titles (default 1)")
		fmt.Println("  -navpacks <p>    fix, unchanged or remove (default fix)")
		fmt.Println("  -o <file>        Output file (default 'title.vob')")
		os.Exit(1)
	}

	policy, err := option.ParseNavPackPolicy(*navPacks)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid -navpacks: %v\n", err)
		os.Exit(1)
	}

	level := logging.LEVEL_INFO
	if *debug {
		level = logging.LEVEL_DEBUG
	}
	if *trace {
		level = logging.LEVEL_TRACE
	}
	log := logging.NewLogger(logr.New(logging.NewSimpleLogSink(os.Stderr, level, true)))

	disc, err := dvd.Open(flag.Arg(0), option.WithLogger(log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open DVD: %v\n", err)
		os.Exit(1)
	}
	defer disc.Close()

	sink, err := transfer.FileSink(afero.NewOsFs(), *output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output: %v\n", err)
		os.Exit(1)
	}

	spinner, err := InitializeSpinner()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize spinner: %v\n", err)
		fmt.Fprintf(os.Stderr, "Progress updates will be disabled.\n")
	}
	transferOpts := []option.TransferOption{option.WithTransferLogger(log)}
	if spinner != nil {
		transferOpts = append(transferOpts, option.WithTransferProgress(250*time.Millisecond, CreateProgressCallback(spinner, *output)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, err := disc.Demux(ctx, *vts, *title, *angle, []transfer.Sink{sink},
		option.WithNavPackPolicy(policy),
		option.WithDemuxLogger(log),
		option.WithTransferOptions(transferOpts...))
	if err != nil {
		if spinner != nil {
			spinner.StopFail()
		}
		fmt.Fprintf(os.Stderr, "Failed to demux title %d: %v\n", *title, err)
		os.Exit(1)
	}

	if err := engine.Wait(); err != nil {
		if spinner != nil {
			spinner.StopFailMessage(fmt.Sprintf(" Failed to extract title %d: %v", *title, err))
			spinner.StopFail()
		}
		os.Exit(1)
	}
	if spinner != nil {
		spinner.StopMessage(fmt.Sprintf(" Title %d extracted successfully to %s!", *title, *output))
		spinner.Stop()
	}
}
