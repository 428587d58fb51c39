package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/bgrewell/dvd-kit/pkg/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigInitCommand(ctx))
	configCmd.AddCommand(newConfigValidateCommand(ctx))

	return configCmd
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a configuration file with the default settings",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := ctx.configPath()
			if err != nil {
				return err
			}
			fs := afero.NewOsFs()
			if !overwrite {
				if _, err := fs.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			cfg := config.Default()
			if device := strings.TrimSpace(ctx.deviceFlag); device != "" {
				cfg.Device = device
			}
			if err := cfg.Save(fs, target); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", target)
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate the configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := ctx.configPath()
			if err != nil {
				return err
			}
			cfg, exists, err := config.Load(afero.NewOsFs(), path)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !exists {
				fmt.Fprintf(out, "No configuration file at %s, using defaults\n", path)
			} else {
				fmt.Fprintf(out, "Configuration %s is valid\n", path)
			}
			fmt.Fprintf(out, "Device: %s\n", cfg.Device)
			return nil
		},
	}
}
