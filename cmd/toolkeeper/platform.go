// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aicodewith/toolkeeper/internal/selfupdate"
	"github.com/aicodewith/toolkeeper/pkg/platform"

	"github.com/spf13/cobra"
)

// newPlatformCommand creates the `toolkeeper platform` command.
func newPlatformCommand(_ *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "platform",
		Short: "Print the runtime platform (windows, macos or linux)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return writeValue(cmd.OutOrStdout(), jsonOut, "platform", platform.Name())
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, `print {"platform": ...}`)

	return cmd
}

// newPortableCommand creates the `toolkeeper portable` command.
func newPortableCommand(_ *App) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "portable",
		Short: "Report whether the application runs as a portable build",
		Long: `Report whether the application runs as a portable build.

A build is portable when a ` + selfupdate.PortableMarker + ` file sits next to the
executable. Portable builds are updated by replacing the unpacked
directory rather than by running an installer.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			portable, err := selfupdate.IsPortable()
			if err != nil {
				return &ExitError{Code: exitTransient, Err: err}
			}
			return writeValue(cmd.OutOrStdout(), jsonOut, "portable", portable)
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, `print {"portable": ...}`)

	return cmd
}

// writeValue prints v bare, or as {"<key>": v} in JSON mode.
func writeValue(w io.Writer, jsonOut bool, key string, v any) error {
	if jsonOut {
		return json.NewEncoder(w).Encode(map[string]any{key: v})
	}
	_, err := fmt.Fprintln(w, v)
	return err
}
