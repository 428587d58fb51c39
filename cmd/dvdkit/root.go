package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "dvdkit",
		Short:         "Inspect, demux and image DVD-Video discs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["skipConfigLoad"] == "true" {
				return nil
			}
			_, err := ctx.ensureConfig()
			return err
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&ctx.deviceFlag, "device", "d", "", "DVD device or image, overrides the configuration")
	rootCmd.PersistentFlags().CountVarP(&ctx.verbosity, "verbose", "v", "Verbose logging, repeat for trace output")

	rootCmd.AddCommand(newInfoCommand(ctx))
	rootCmd.AddCommand(newIfoCommand(ctx))
	rootCmd.AddCommand(newRipCommand(ctx))
	rootCmd.AddCommand(newImageCommand(ctx))
	rootCmd.AddCommand(newKeysCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
