// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/aicodewith/toolkeeper/internal/installer"
	"github.com/aicodewith/toolkeeper/internal/selfupdate"

	"github.com/spf13/cobra"
)

// checkUpdateParams bundles the dependencies and flags for check-update,
// enabling runCheckUpdate to be tested without live GitHub API calls.
type checkUpdateParams struct {
	stdout     io.Writer
	updater    *selfupdate.Updater
	dispatcher *installer.Dispatcher
	open       bool
	json       bool
}

// newCheckUpdateCommand creates the `toolkeeper check-update` command.
func newCheckUpdateCommand(app *App) *cobra.Command {
	var (
		openPage bool
		jsonOut  bool
	)

	cmd := &cobra.Command{
		Use:   "check-update",
		Short: "Compare the running version with the latest GitHub release",
		Long: `Compare the running version with the latest GitHub release.

Set GITHUB_TOKEN to raise the API rate limit. With --open the release page
is opened in the browser when a newer version exists.`,
		Example: `  toolkeeper check-update
  toolkeeper check-update --open`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			return runCheckUpdate(cmd.Context(), checkUpdateParams{
				stdout:     cmd.OutOrStdout(),
				updater:    app.updater(cfg),
				dispatcher: app.dispatcher(),
				open:       openPage,
				json:       jsonOut,
			})
		},
	}

	cmd.Flags().BoolVar(&openPage, "open", false, "open the release page when an update is available")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the result as JSON")

	return cmd
}

// runCheckUpdate is the core check-update logic, separated from Cobra for testability.
func runCheckUpdate(ctx context.Context, p checkUpdateParams) error {
	check, err := p.updater.Check(ctx)
	if err != nil {
		return classifyCheckError(err)
	}

	if p.json {
		if err := json.NewEncoder(p.stdout).Encode(check); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(p.stdout, "Current version: %s\n", check.CurrentVersion)
		fmt.Fprintf(p.stdout, "Latest version:  %s\n", check.LatestVersion)
		msg := check.Message
		if check.UpdateAvailable {
			msg = WarningStyle.Render(msg)
		}
		fmt.Fprintf(p.stdout, "\n%s\n", msg)
		if check.UpdateAvailable {
			fmt.Fprintf(p.stdout, "Release page: %s\n", CmdStyle.Render(check.ReleaseURL))
		}
	}

	if p.open && check.UpdateAvailable {
		return runOpen(ctx, p.dispatcher, check.ReleaseURL)
	}
	return nil
}
