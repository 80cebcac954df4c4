// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/aicodewith/toolkeeper/internal/issue"
)

func TestGetVersionString(t *testing.T) {
	// Not parallel: subtests mutate package-level Version/Commit/BuildDate vars.

	t.Run("ldflags version", func(t *testing.T) {
		origVersion, origCommit, origBuildDate := Version, Commit, BuildDate
		t.Cleanup(func() {
			Version, Commit, BuildDate = origVersion, origCommit, origBuildDate
		})

		Version = "v1.2.3"
		Commit = "abc1234"
		BuildDate = "2025-06-15T10:00:00Z"

		got := getVersionString()
		want := "v1.2.3 (commit: abc1234, built: 2025-06-15T10:00:00Z)"
		if got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})

	t.Run("dev build", func(t *testing.T) {
		origVersion := Version
		t.Cleanup(func() { Version = origVersion })

		Version = "dev"

		if got, want := getVersionString(), "dev (built from source)"; got != want {
			t.Errorf("getVersionString() = %q, want %q", got, want)
		}
	})
}

func TestFormatErrorForDisplay(t *testing.T) {
	t.Parallel()

	plain := errors.New("boom")
	if got := formatErrorForDisplay(plain, false); got != "boom" {
		t.Errorf("plain error = %q, want %q", got, "boom")
	}

	ae := issue.NewErrorContext().
		WithOperation("download update").
		WithSuggestion("try again").
		Wrap(plain).
		Build()
	wrapped := &ExitError{Code: exitTransient, Err: ae}

	got := formatErrorForDisplay(wrapped, false)
	if !strings.Contains(got, "failed to download update") || !strings.Contains(got, "try again") {
		t.Errorf("actionable error = %q, want operation and suggestion", got)
	}
	if strings.Contains(got, "Error chain:") {
		t.Errorf("non-verbose output should not include the error chain: %q", got)
	}

	if verbose := formatErrorForDisplay(wrapped, true); !strings.Contains(verbose, "Error chain:") {
		t.Errorf("verbose output = %q, want error chain", verbose)
	}
}

func TestExitError(t *testing.T) {
	t.Parallel()

	cause := errors.New("cause")
	e := &ExitError{Code: 2, Err: cause}
	if e.Error() != "cause" {
		t.Errorf("Error() = %q, want %q", e.Error(), "cause")
	}
	if !errors.Is(e, cause) {
		t.Error("ExitError should unwrap to its cause")
	}

	bare := &ExitError{Code: 3}
	if bare.Error() != "exit status 3" {
		t.Errorf("Error() = %q, want %q", bare.Error(), "exit status 3")
	}
}

func TestRenderIssueGuide(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "linked issue",
			err: &ExitError{Code: exitUserError, Err: issue.NewErrorContext().
				WithOperation("download update").
				WithIssue(issue.UntrustedDownloadId).
				Wrap(errors.New("untrusted")).
				Build()},
			want: "Download refused",
		},
		{
			name: "actionable without issue",
			err:  issue.NewErrorContext().WithOperation("x").Wrap(errors.New("boom")).Build(),
		},
		{name: "plain error", err: errors.New("boom")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			renderIssueGuide(&buf, tt.err)
			if tt.want == "" {
				if buf.Len() != 0 {
					t.Errorf("output = %q, want nothing", buf.String())
				}
				return
			}
			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}
