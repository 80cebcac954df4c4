// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"os"

	"github.com/aicodewith/toolkeeper/internal/installer"
	"github.com/aicodewith/toolkeeper/internal/issue"
	"github.com/aicodewith/toolkeeper/internal/selfupdate"
	"github.com/aicodewith/toolkeeper/internal/trust"
)

// classifyDownloadError maps a download pipeline failure to an actionable
// error and exit code. Rejected URLs and permission problems are
// user-correctable; everything else may succeed on retry.
func classifyDownloadError(err error, res *selfupdate.Result) *ExitError {
	ctx := issue.NewErrorContext().WithOperation("download update").Wrap(err)
	code := exitTransient

	var rejected *trust.RejectedError
	switch {
	case errors.As(err, &rejected):
		code = exitUserError
		ctx.WithIssue(issue.UntrustedDownloadId)
		if errors.Is(err, trust.ErrUntrustedHost) {
			ctx.WithSuggestion("Only links on the configured download hosts are accepted (download.trusted_hosts)")
		} else {
			ctx.WithSuggestion("Pass a complete http:// or https:// link")
		}

	case res != nil:
		// Saved, but the installer or default handler failed.
		ctx.WithOperation("open update package").
			WithResource(res.FilePath).
			WithIssue(issue.InstallerLaunchFailedId).
			WithSuggestion("Open the saved file manually")
		if errors.Is(err, installer.ErrSpawnFailed) {
			ctx.WithSuggestion("Check that msiexec is available")
		}

	case errors.Is(err, os.ErrPermission):
		code = exitUserError
		ctx.WithIssue(issue.PermissionDeniedId).
			WithSuggestion("Check that the temporary directory is writable")

	default:
		ctx.WithIssue(issue.DownloadFailedId).
			WithSuggestion("Check your network connection and try again")
	}

	return &ExitError{Code: code, Err: ctx.Build()}
}

// classifyCheckError maps a release check failure to an actionable error
// and exit code.
func classifyCheckError(err error) *ExitError {
	ctx := issue.NewErrorContext().
		WithOperation("check for updates").
		WithIssue(issue.ReleaseCheckFailedId).
		Wrap(err)

	var rateLimitErr *selfupdate.RateLimitError
	switch {
	case errors.As(err, &rateLimitErr):
		ctx.WithSuggestion("Set a GitHub token to raise the rate limit: export GITHUB_TOKEN=ghp_...")
		return &ExitError{Code: exitUserError, Err: ctx.Build()}
	case errors.Is(err, selfupdate.ErrReleaseNotFound):
		ctx.WithSuggestion("No release has been published yet: " + selfupdate.DefaultReleasePage)
		return &ExitError{Code: exitUserError, Err: ctx.Build()}
	default:
		ctx.WithSuggestion("Check your network connection and try again")
		return &ExitError{Code: exitTransient, Err: ctx.Build()}
	}
}
