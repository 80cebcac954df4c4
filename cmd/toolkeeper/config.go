// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/aicodewith/toolkeeper/internal/config"
	"github.com/aicodewith/toolkeeper/internal/issue"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the `toolkeeper config` command tree.
func newConfigCommand(app *App) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage toolkeeper configuration",
		Long: `Manage toolkeeper configuration.

Configuration is stored in:
  - Linux: ~/.config/toolkeeper/config.cue
  - macOS: ~/Library/Application Support/toolkeeper/config.cue
  - Windows: %APPDATA%\toolkeeper\config.cue

Every key can be overridden with a TOOLKEEPER_ environment variable,
e.g. TOOLKEEPER_REGISTRY_BASE_URL.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration as CUE",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg)
		},
	})

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return initConfig(cmd.OutOrStdout(), "", force)
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	cfgCmd.AddCommand(initCmd)

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, config.ConfigFileName+"."+config.ConfigFileExt))
			return err
		},
	})

	return cfgCmd
}

func showConfig(w io.Writer, cfg *config.Config) error {
	source := cfg.Path
	if source == "" {
		source = "built-in defaults"
	}
	if _, err := fmt.Fprintf(w, "// Source: %s\n", source); err != nil {
		return err
	}
	_, err := io.WriteString(w, config.GenerateCUE(cfg))
	return err
}

// initConfig writes the default file into dir (the config directory when
// empty).
func initConfig(w io.Writer, dir string, force bool) error {
	path, err := config.CreateDefaultConfig(dir, force)
	if errors.Is(err, config.ErrConfigExists) {
		return &ExitError{
			Code: exitUserError,
			Err: issue.NewErrorContext().
				WithOperation("create configuration").
				WithResource(path).
				WithSuggestion("Use --force to overwrite it").
				Wrap(config.ErrConfigExists).
				Build(),
		}
	}
	if err != nil {
		return &ExitError{Code: exitTransient, Err: err}
	}

	fmt.Fprintf(w, "Created %s\n", CmdStyle.Render(path))
	return nil
}
