// SPDX-License-Identifier: MPL-2.0

package locate

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/aicodewith/toolkeeper/internal/probe"
	"github.com/aicodewith/toolkeeper/pkg/platform"

	"github.com/charmbracelet/log"
)

// NotInstalledMessage is reported when no attempt produced a version.
const NotInstalledMessage = "not installed or not executable"

var versionPattern = regexp.MustCompile(`\d+\.\d+\.\d+(-[\w.]+)?`)

type (
	// Result is the outcome of LocateVersion. Exactly one field is non-empty.
	Result struct {
		Version string
		Err     string
	}

	// Locator finds installed tool versions. Construct with New.
	Locator struct {
		prober probe.Prober
		logger *log.Logger
		goos   string

		homeDir  func() (string, error)
		getenv   func(string) string
		stat     func(string) (os.FileInfo, error)
		readDir  func(string) ([]os.DirEntry, error)
		fallback bool
	}

	// Option configures a Locator.
	Option func(*Locator)
)

// WithProber replaces the process prober.
func WithProber(p probe.Prober) Option {
	return func(l *Locator) {
		if p != nil {
			l.prober = p
		}
	}
}

// WithLogger sets the logger for probe diagnostics.
func WithLogger(lg *log.Logger) Option {
	return func(l *Locator) {
		if lg != nil {
			l.logger = lg
		}
	}
}

// WithHomeDir overrides home directory resolution.
func WithHomeDir(fn func() (string, error)) Option {
	return func(l *Locator) {
		if fn != nil {
			l.homeDir = fn
		}
	}
}

// WithGOOS makes the locator build the search path for another platform.
func WithGOOS(goos string) Option {
	return func(l *Locator) {
		l.goos = goos
	}
}

// WithGetenv overrides environment lookups (APPDATA on Windows).
func WithGetenv(fn func(string) string) Option {
	return func(l *Locator) {
		if fn != nil {
			l.getenv = fn
		}
	}
}

// WithoutFallbackScan disables the directory scan; only the shell lookup runs.
func WithoutFallbackScan() Option {
	return func(l *Locator) {
		l.fallback = false
	}
}

// New creates a Locator using a ShellProber with default settings.
func New(opts ...Option) *Locator {
	l := &Locator{
		prober:   probe.NewShellProber(),
		logger:   log.New(io.Discard),
		goos:     runtime.GOOS,
		homeDir:  os.UserHomeDir,
		getenv:   os.Getenv,
		stat:     os.Stat,
		readDir:  os.ReadDir,
		fallback: true,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LocateVersion reports the installed version of tool.
func (l *Locator) LocateVersion(ctx context.Context, tool string) Result {
	res := l.direct(ctx, tool)
	if res.Version != "" || !l.fallback {
		return res
	}

	l.logger.Debug("direct lookup failed, scanning install dirs", "tool", tool, "reason", res.Err)

	return l.scan(ctx, tool)
}

// direct runs the tool by name through the shell.
func (l *Locator) direct(ctx context.Context, tool string) Result {
	out := l.prober.Probe(ctx, tool, "")
	if out.Err != nil {
		return Result{Err: out.Err.Error()}
	}

	stdout := strings.TrimSpace(out.Stdout)
	stderr := strings.TrimSpace(out.Stderr)

	if out.ExitCode == 0 {
		raw := stdout
		if raw == "" {
			raw = stderr
		}
		if raw == "" {
			return Result{Err: NotInstalledMessage}
		}
		return Result{Version: ExtractVersion(raw)}
	}

	msg := stderr
	if msg == "" {
		msg = stdout
	}
	if msg == "" {
		msg = NotInstalledMessage
	}
	return Result{Err: msg}
}

// scan tries each search directory in order and returns the first version
// reported by a candidate that exits successfully with non-empty output.
func (l *Locator) scan(ctx context.Context, tool string) Result {
	name := l.executableName(tool)

	for dir := range l.SearchPath() {
		if ctx.Err() != nil {
			break
		}

		candidate := filepath.Join(dir, name)
		info, err := l.stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}

		out := l.prober.Probe(ctx, candidate, dir)
		if !out.Succeeded() {
			l.logger.Debug("candidate failed", "path", candidate, "exit", out.ExitCode, "err", out.Err)
			continue
		}

		raw := strings.TrimSpace(out.Stdout)
		if raw == "" {
			raw = strings.TrimSpace(out.Stderr)
		}
		if raw != "" {
			l.logger.Debug("found tool", "path", candidate)
			return Result{Version: ExtractVersion(raw)}
		}
	}

	return Result{Err: NotInstalledMessage}
}

// executableName returns the file name npm installs for tool on the
// locator's platform.
func (l *Locator) executableName(tool string) string {
	if l.goos == platform.Windows {
		return tool + ".cmd"
	}
	return tool
}

// ExtractVersion returns the first x.y.z[-pre] substring of raw, or raw
// trimmed of surrounding whitespace when there is none.
func ExtractVersion(raw string) string {
	if m := versionPattern.FindString(raw); m != "" {
		return m
	}
	return strings.TrimSpace(raw)
}
