package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/julianknutsen/cuneiset/internal/config"
)

func newConfigCmd(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Get or set cuneiset configuration",
		Long: `View or modify cuneiset configuration settings.

Settings live in $XDG_CONFIG_HOME/cuneiset/config.yaml (or --config) and
can be overridden with CUNEISET_* environment variables, e.g.
CUNEISET_OUTPUT_DIR or CUNEISET_SPLIT_SEED.

Use 'cuneiset config get <key>' to read a setting.
Use 'cuneiset config set <key> <value>' to change a setting.
Use 'cuneiset config list' to show every key.
Lists such as corpora are comma-separated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(
		newConfigGetCmd(stdout, stderr),
		newConfigSetCmd(stdout, stderr),
		newConfigListCmd(stdout, stderr),
		newConfigPathCmd(stdout),
	)

	return cmd
}

func newConfigGetCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:               "get <key>",
		Short:             "Get a configuration value",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: completeConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigGet(cmd, stdout, stderr, args[0])
		},
	}
}

func newConfigSetCmd(stdout, stderr io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:               "set <key> <value>",
		Short:             "Set a configuration value",
		Args:              cobra.ExactArgs(2),
		ValidArgsFunction: completeConfigKeys,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigSet(cmd, stdout, stderr, args[0], args[1])
		},
	}
}

func newConfigListCmd(stdout, _ io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every configuration key and its value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, _, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			for _, key := range config.Keys() {
				v, err := cfg.Get(key)
				if err != nil {
					return err
				}
				fmt.Fprintf(stdout, "%s = %s\n", key, v)
			}
			return nil
		},
	}
}

func newConfigPathCmd(stdout io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config file location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := configPath(cmd)
			fmt.Fprintln(stdout, path)
			return nil
		},
	}
}

func runConfigGet(cmd *cobra.Command, stdout, _ io.Writer, key string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	v, err := cfg.Get(key)
	if err != nil {
		return hintWrap(err)
	}
	fmt.Fprintln(stdout, v)
	return nil
}

// runConfigSet loads the file without flag overrides so they are not
// persisted.
func runConfigSet(cmd *cobra.Command, stdout, _ io.Writer, key, value string) error {
	path, explicit := configPath(cmd)
	load := path
	if !explicit {
		load = ""
	}
	cfg, err := config.Load(load)
	if err != nil {
		return hintWrap(err)
	}
	if err := cfg.Set(key, value); err != nil {
		return hintWrap(err)
	}
	if err := cfg.Validate(); err != nil {
		return hintWrap(err)
	}
	if err := config.Save(cfg, path); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	v, _ := cfg.Get(key)
	fmt.Fprintf(stdout, "%s = %s\n", key, strings.TrimSpace(v))
	return nil
}
