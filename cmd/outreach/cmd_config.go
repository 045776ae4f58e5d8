package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"outreach-engine/internal/config"
)

var forceInit bool

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Create or check the config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default config",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the config and print problems",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	configInitCmd.Flags().BoolVar(&forceInit, "force", false, "overwrite an existing config (the old one is kept as .bak)")
	configCmd.AddCommand(configInitCmd, configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = filepath.Join(dataDir(), "config.yml")
	}

	if _, err := os.Stat(path); err == nil && !forceInit {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.SaveAtomic(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = filepath.Join(dataDir(), "config.yml")
	}
	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}

	_, res := config.NormalizeAndValidate(cfg)
	out := cmd.OutOrStdout()
	for _, w := range res.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
	if !res.OK() {
		for _, e := range res.Errors {
			fmt.Fprintln(out, e)
		}
		return errors.New("config is invalid")
	}
	fmt.Fprintf(out, "%s: ok\n", path)
	return nil
}
