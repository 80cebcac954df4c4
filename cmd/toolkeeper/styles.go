// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/aicodewith/toolkeeper/internal/issue"

	"github.com/charmbracelet/lipgloss"
)

// markdownStyle is the glamour style for Markdown output; "auto" falls back
// to plain text when stdout is not a terminal.
//
//nolint:gochecknoglobals // Test seam.
var markdownStyle = "auto"

// Color palette shared by all CLI output, tuned for dark terminal backgrounds.
const (
	// ColorPrimary is purple - used for titles, headers, and primary emphasis.
	ColorPrimary = lipgloss.Color("#7C3AED")

	// ColorMuted is gray - used for subtitles, secondary text, and de-emphasized content.
	ColorMuted = lipgloss.Color("#6B7280")

	// ColorSuccess is green - used for success states and up-to-date tools.
	ColorSuccess = lipgloss.Color("#10B981")

	// ColorError is red - used for errors and missing tools.
	ColorError = lipgloss.Color("#EF4444")

	// ColorWarning is amber - used for warnings and available updates.
	ColorWarning = lipgloss.Color("#F59E0B")

	// ColorHighlight is blue - used for commands, paths and links.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for primary headers and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary headers and descriptions.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for success messages and positive indicators.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error messages and failure indicators.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning messages and caution indicators.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command names, paths and links.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// tableHeaderStyle is for the version table header row.
	tableHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPrimary).
				Padding(0, 1)

	// tableCellStyle pads version table cells.
	tableCellStyle = lipgloss.NewStyle().
			Padding(0, 1)
)

// writeIssue renders a catalog entry to w. A nil issue or a render failure
// prints nothing.
func writeIssue(w io.Writer, iss *issue.Issue) {
	if iss == nil {
		return
	}
	rendered, err := iss.Render(markdownStyle)
	if err != nil {
		return
	}
	fmt.Fprint(w, rendered)
}
