package main

import (
	"context"
	"crypto/md5"
	"fmt"
	"io"
	"os"

	"github.com/bgrewell/dvd-kit"
	"github.com/bgrewell/dvd-kit/pkg/logging"
	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/bgrewell/dvd-kit/pkg/transfer"
	"github.com/bgrewell/usage"
	"github.com/go-logr/logr"
	"github.com/spf13/afero"
)

func generateFileMD5(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	hashBytes := hash.Sum(nil)
	return fmt.Sprintf("%x", hashBytes), nil
}

func main() {

	u := usage.NewUsage(
		usage.WithApplicationName("image_roundtrip"),
		usage.WithApplicationDescription("image_roundtrip is a functional testing application that is part of dvd-kit and is designed to verify that opening a DVD image and copying it through the transfer engine reproduces the image exactly."),
	)
	help := u.AddBooleanOption("h", "help", false, "Display this help message", "", nil)
	rm := u.AddBooleanOption("rm", "remove-test-file", true, "Remove the test file after running the tests", "", nil)
	input := u.AddArgument(1, "input", "The input DVD image to run the tests against", "")
	parsed := u.Parse()

	if !parsed {
		u.PrintError(fmt.Errorf("failed to parse arguments"))
		os.Exit(1)
	}

	if *help {
		u.PrintUsage()
		os.Exit(0)
	}

	if input == nil || *input == "" {
		u.PrintError(fmt.Errorf("location of the input DVD image <input> must be provided"))
		os.Exit(1)
	}

	logger := logging.NewLogger(logr.New(logging.NewSimpleLogSink(os.Stderr, logging.LEVEL_TRACE, true)))
	disc, err := dvd.Open(*input, option.WithLogger(logger))
	if err != nil {
		fmt.Printf("Failed to open DVD image: %s\n", err)
		os.Exit(1)
	}
	defer disc.Close()

	// Copy the image to a random temporary file
	o, err := os.CreateTemp("", "image_roundtrip_test_*.iso")
	if err != nil {
		fmt.Printf("Failed to create temporary file: %s\n", err)
		os.Exit(1)
	}
	o.Close()

	if *rm {
		defer os.Remove(o.Name())
	} else {
		fmt.Printf("Temporary file: %s\n", o.Name())
	}

	sink, err := transfer.FileSink(afero.NewOsFs(), o.Name())
	if err != nil {
		fmt.Printf("Failed to open temporary file: %s\n", err)
		os.Exit(1)
	}
	engine, err := disc.ExtractImage(context.Background(), sink, option.WithTransferLogger(logger))
	if err != nil {
		fmt.Printf("Failed to start image copy: %s\n", err)
		os.Exit(1)
	}
	if err := engine.Wait(); err != nil {
		fmt.Printf("Failed to copy DVD image: %s\n", err)
		os.Exit(1)
	}

	// Verify that the copy is the same as the input image
	inputHash, err := generateFileMD5(*input)
	if err != nil {
		fmt.Printf("Failed to generate MD5 hash for input file: %s\n", err)
		os.Exit(1)
	}

	outputHash, err := generateFileMD5(o.Name())
	if err != nil {
		fmt.Printf("Failed to generate MD5 hash for output file: %s\n", err)
		os.Exit(1)
	}

	if inputHash != outputHash {
		fmt.Printf("MD5 hash of input file does not match MD5 hash of output file:\n  Input:  %s\n  Output: %s\n", inputHash, outputHash)
		os.Exit(1)
	}

}
