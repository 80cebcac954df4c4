// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aicodewith/toolkeeper/internal/selfupdate"

	"github.com/spf13/cobra"
)

// downloadParams bundles the dependencies and flags for the download
// command so runDownload can be tested without Cobra or a live host.
type downloadParams struct {
	stdout  io.Writer
	updater *selfupdate.Updater
	req     selfupdate.Request
	json    bool
}

// newDownloadCommand creates the `toolkeeper download` command.
func newDownloadCommand(app *App) *cobra.Command {
	var (
		fileName string
		noOpen   bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "download <url>",
		Short: "Download an update package from a trusted host and launch it",
		Long: `Download an update package from a trusted host and launch it.

The URL must use http or https and its host must end with one of the
configured download.trusted_hosts suffixes; anything else is refused
before a connection is made. The package is written to a .partial file
and renamed into place once complete, then handed to the platform
installer (msiexec for .msi on Windows, the default handler elsewhere).`,
		Example: `  toolkeeper download https://cdn.cjjd19.com/v3.6.1/AICodeWith.msi --file-name AICodeWith.msi
  toolkeeper download https://dl.123pan.com/a/b.dmg --file-name AICodeWith.dmg --no-open --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			return runDownload(cmd.Context(), downloadParams{
				stdout:  cmd.OutOrStdout(),
				updater: app.updater(cfg),
				req:     selfupdate.Request{URL: args[0], FileName: fileName, NoOpen: noOpen},
				json:    jsonOut,
			})
		},
	}

	cmd.Flags().StringVar(&fileName, "file-name", "", "name to save the package under (sanitized)")
	cmd.Flags().BoolVar(&noOpen, "no-open", false, "save the package without launching it")
	cmd.Flags().BoolVar(&jsonOut, "json", false, `print {"filePath": ...} on success`)

	return cmd
}

// runDownload is the core download logic, separated from Cobra for testability.
func runDownload(ctx context.Context, p downloadParams) error {
	res, err := p.updater.DownloadAndOpen(ctx, p.req)
	if err != nil {
		return classifyDownloadError(err, res)
	}

	if p.json {
		return json.NewEncoder(p.stdout).Encode(res)
	}

	fmt.Fprintf(p.stdout, "Saved %s\n", CmdStyle.Render(res.FilePath))
	if res.Opened {
		fmt.Fprintln(p.stdout, SuccessStyle.Render("Installer launched"))
	}
	return nil
}
