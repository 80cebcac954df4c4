// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aicodewith/toolkeeper/internal/config"
	"github.com/aicodewith/toolkeeper/internal/issue"
	"github.com/aicodewith/toolkeeper/internal/reconcile"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
)

type outputFormat int

const (
	formatTable outputFormat = iota
	formatJSON
	formatMarkdown
)

type versionsParams struct {
	stdout     io.Writer
	stderr     io.Writer
	reconciler *reconcile.Reconciler
	tools      []string
	format     outputFormat
}

// newVersionsCommand creates the `toolkeeper versions` command.
func newVersionsCommand(app *App) *cobra.Command {
	var (
		tools    []string
		jsonOut  bool
		markdown bool
	)

	cmd := &cobra.Command{
		Use:   "versions",
		Short: "Report installed and latest versions of the managed CLI tools",
		Long: `Report installed and latest versions of the managed CLI tools.

Each tool is run with --version, first through PATH and then through the
usual npm, Homebrew and nvm install locations. The latest published
version comes from the npm registry. A tool that cannot be found or a
registry that cannot be reached is reported, never treated as a failure.`,
		Example: `  toolkeeper versions
  toolkeeper versions --json
  toolkeeper versions --tool claude --tool codex --markdown`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := app.loadConfig(cmd.Context())
			if err != nil {
				return err
			}

			for _, name := range tools {
				if !config.ValidToolName(name) {
					return invalidToolNameError(name)
				}
			}

			names := tools
			if len(names) == 0 {
				for _, t := range cfg.Tools {
					names = append(names, t.Name)
				}
			}

			format := formatTable
			switch {
			case jsonOut:
				format = formatJSON
			case markdown:
				format = formatMarkdown
			}

			return runVersions(cmd.Context(), versionsParams{
				stdout:     cmd.OutOrStdout(),
				stderr:     cmd.ErrOrStderr(),
				reconciler: app.reconciler(cfg),
				tools:      names,
				format:     format,
			})
		},
	}

	cmd.Flags().StringSliceVar(&tools, "tool", nil, "tool to check (repeatable, default: all configured tools)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the reports as a JSON array")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "render the reports as a Markdown table")
	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// runVersions is the core versions logic, separated from Cobra for testability.
func runVersions(ctx context.Context, p versionsParams) error {
	reports := p.reconciler.Reconcile(ctx, p.tools)

	switch p.format {
	case formatJSON:
		enc := json.NewEncoder(p.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	case formatMarkdown:
		out, err := glamour.Render(versionsMarkdown(reports), markdownStyle)
		if err != nil {
			return fmt.Errorf("rendering markdown: %w", err)
		}
		if _, err = io.WriteString(p.stdout, out); err != nil {
			return err
		}
	default:
		fmt.Fprintln(p.stdout, versionsTable(reports))
	}

	for _, id := range versionGuides(reports) {
		writeIssue(p.stderr, issue.Get(id))
	}
	return nil
}

// versionGuides picks the catalog entries that explain gaps in reports: a
// tool without a version, or no latest version for any tool.
func versionGuides(reports []reconcile.Report) []issue.Id {
	if len(reports) == 0 {
		return nil
	}

	var ids []issue.Id
	missing, registryDown := false, true
	for _, r := range reports {
		if r.Version == nil {
			missing = true
		}
		if r.LatestVersion != nil {
			registryDown = false
		}
	}
	if missing {
		ids = append(ids, issue.ToolNotInstalledId)
	}
	if registryDown {
		ids = append(ids, issue.RegistryUnreachableId)
	}
	return ids
}

func invalidToolNameError(name string) error {
	return &ExitError{
		Code: exitUserError,
		Err: issue.NewErrorContext().
			WithOperation("check tool versions").
			WithResource(name).
			WithSuggestion("Pass a bare command name such as claude, codex or gemini").
			Wrap(fmt.Errorf("%q is not a valid tool name", name)).
			Build(),
	}
}

func installedCell(r reconcile.Report) string {
	switch {
	case r.Version != nil:
		return *r.Version
	case r.Error != nil:
		first, _, _ := strings.Cut(strings.TrimSpace(*r.Error), "\n")
		return first
	default:
		return "-"
	}
}

func latestCell(r reconcile.Report) string {
	if r.LatestVersion == nil {
		return "unknown"
	}
	return *r.LatestVersion
}

func statusCell(r reconcile.Report) string {
	switch {
	case r.Version == nil:
		return "missing"
	case r.UpdateAvailable:
		return "update available"
	case r.LatestVersion == nil:
		return "installed"
	default:
		return "up to date"
	}
}

// versionsTable renders reports as a bordered lipgloss table.
func versionsTable(reports []reconcile.Report) string {
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{r.Name, installedCell(r), latestCell(r), statusCell(r)}
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(SubtitleStyle).
		Headers("TOOL", "INSTALLED", "LATEST", "STATUS").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeaderStyle
			}
			if col != 3 || row < 0 || row >= len(reports) {
				return tableCellStyle
			}
			switch statusCell(reports[row]) {
			case "missing":
				return tableCellStyle.Foreground(ColorError)
			case "update available":
				return tableCellStyle.Foreground(ColorWarning)
			case "up to date":
				return tableCellStyle.Foreground(ColorSuccess)
			default:
				return tableCellStyle
			}
		}).
		String()
}

// versionsMarkdown renders reports as a GitHub-flavored Markdown table.
func versionsMarkdown(reports []reconcile.Report) string {
	var sb strings.Builder
	sb.WriteString("# Tool versions\n\n")
	sb.WriteString("| Tool | Installed | Latest | Status |\n")
	sb.WriteString("|------|-----------|--------|--------|\n")
	for _, r := range reports {
		fmt.Fprintf(&sb, "| %s | %s | %s | %s |\n",
			mdEscape(r.Name), mdEscape(installedCell(r)), mdEscape(latestCell(r)), statusCell(r))
	}
	return sb.String()
}

func mdEscape(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
