// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"

	"github.com/aicodewith/toolkeeper/internal/installer"
	"github.com/aicodewith/toolkeeper/internal/issue"

	"github.com/spf13/cobra"
)

// newOpenCommand creates the `toolkeeper open` command.
func newOpenCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "open <url>",
		Short: "Open a link in the default browser",
		Long: `Open a link in the default browser.

Links without an http:// or https:// scheme are opened as https.`,
		Example: `  toolkeeper open github.com/farion1231/cc-switch`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOpen(cmd.Context(), app.dispatcher(), args[0])
		},
	}
}

func runOpen(ctx context.Context, d *installer.Dispatcher, link string) error {
	if err := d.OpenLink(ctx, link); err != nil {
		return &ExitError{
			Code: exitTransient,
			Err: issue.NewErrorContext().
				WithOperation("open link").
				WithResource(link).
				WithSuggestion("Copy the link into your browser manually").
				Wrap(err).
				Build(),
		}
	}
	return nil
}
