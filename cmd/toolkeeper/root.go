// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for toolkeeper.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/aicodewith/toolkeeper/internal/issue"

	"github.com/charmbracelet/fang"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// rootFlags holds the persistent flags shared by every subcommand.
type rootFlags struct {
	verbose bool
	cfgFile string
}

// newRootCommand builds the command tree around app.
func newRootCommand(app *App) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "toolkeeper",
		Short: "Fetch application updates and reconcile CLI tool versions",
		Long: TitleStyle.Render("toolkeeper") + SubtitleStyle.Render(" - update and tool-version helper") + `

toolkeeper backs the desktop application's update and tool-management
screens. Each command performs one request and exits; pass --json for
machine-readable output.

` + SubtitleStyle.Render("Examples:") + `
  toolkeeper download https://cdn.cjjd19.com/pkg.msi --file-name AICodeWith.msi
  toolkeeper versions --json
  toolkeeper check-update
  toolkeeper config show`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&app.flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&app.flags.cfgFile, "config", "", "config file (default is <config dir>/toolkeeper/config.cue)")

	rootCmd.AddCommand(
		newDownloadCommand(app),
		newVersionsCommand(app),
		newOpenCommand(app),
		newPlatformCommand(app),
		newPortableCommand(app),
		newCheckUpdateCommand(app),
		newConfigCommand(app),
	)

	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute builds the production App, runs the command line through fang and
// exits with the code carried by any ExitError.
func Execute() {
	// The default handler is launched with its output on our stdout, which
	// would corrupt --json documents.
	browser.Stdout = os.Stderr

	os.Exit(run(context.Background(), NewApp(Dependencies{}), os.Args[1:]))
}

// run executes args against a fresh command tree and returns the process
// exit code.
func run(ctx context.Context, app *App, args []string) int {
	rootCmd := newRootCommand(app)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(app.stdout)
	rootCmd.SetErr(app.stderr)

	err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithoutManpage(),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			fmt.Fprintln(w, ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, app.verbose()))
			renderIssueGuide(w, err)
		}),
	)
	if err == nil {
		return 0
	}

	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}

// renderIssueGuide prints the catalog entry linked to an ActionableError in
// err's chain, if any.
func renderIssueGuide(w io.Writer, err error) {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		writeIssue(w, ae.CatalogIssue())
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
