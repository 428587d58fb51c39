package main

import (
	"fmt"
	"time"

	"github.com/bgrewell/dvd-kit/pkg/option"
	"github.com/spf13/cobra"
)

func newKeysCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "Prefetch all title keys and report the time taken",
		RunE: func(cmd *cobra.Command, args []string) error {
			disc, err := ctx.openDisc(option.WithLoadKeys(false))
			if err != nil {
				return err
			}
			defer disc.Close()

			out := cmd.OutOrStdout()
			if !disc.Device().IsScrambled() {
				fmt.Fprintf(out, "%s is not scrambled, no keys needed\n", disc.Device().Name())
				return nil
			}
			sectors := disc.Volume().KeySectors()
			start := time.Now()
			if err := disc.Device().LoadKeys(sectors); err != nil {
				return err
			}
			fmt.Fprintf(out, "Loaded %d title keys in %s\n", len(sectors), time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
}
