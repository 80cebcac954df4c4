// SPDX-License-Identifier: MPL-2.0

package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/aicodewith/toolkeeper/internal/fetch"
	"github.com/aicodewith/toolkeeper/pkg/platform"

	"github.com/charmbracelet/log"
	"github.com/pkg/browser"
)

// msiexecProgram is resolved through PATH; it lives in System32.
const msiexecProgram = "msiexec"

var (
	// ErrSpawnFailed is wrapped by SpawnError.
	ErrSpawnFailed = errors.New("could not start installer")
	// ErrOpenFailed is returned when the default handler refuses the file or link.
	ErrOpenFailed = errors.New("could not open with the default application")
	// ErrNoArtifact is returned for a nil artifact or an empty path.
	ErrNoArtifact = errors.New("no artifact to install")
)

type (
	// Opener hands a path or URL to the desktop's default handler.
	Opener func(target string) error

	// Spawner starts program detached and returns once it is running.
	Spawner func(program string, args ...string) error

	// Dispatcher routes artifacts to msiexec or the default handler.
	Dispatcher struct {
		goos     string
		openFile Opener
		openURL  Opener
		spawn    Spawner
		logger   *log.Logger
	}

	// Option configures a Dispatcher.
	Option func(*Dispatcher)

	// SpawnError reports a failure to start the installer process.
	SpawnError struct {
		Program string
		Err     error
	}
)

// Error implements the error interface.
func (e *SpawnError) Error() string {
	return fmt.Sprintf("starting %s: %v", e.Program, e.Err)
}

// Unwrap exposes both ErrSpawnFailed and the underlying cause.
func (e *SpawnError) Unwrap() []error {
	return []error{ErrSpawnFailed, e.Err}
}

// WithFileOpener replaces the default handler used for files.
func WithFileOpener(o Opener) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.openFile = o
		}
	}
}

// WithURLOpener replaces the default handler used for links.
func WithURLOpener(o Opener) Option {
	return func(d *Dispatcher) {
		if o != nil {
			d.openURL = o
		}
	}
}

// WithSpawner replaces the detached process starter.
func WithSpawner(s Spawner) Option {
	return func(d *Dispatcher) {
		if s != nil {
			d.spawn = s
		}
	}
}

// WithGOOS makes the dispatcher behave as on another platform.
func WithGOOS(goos string) Option {
	return func(d *Dispatcher) {
		d.goos = goos
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(d *Dispatcher) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Dispatcher backed by github.com/pkg/browser.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		goos:     runtime.GOOS,
		openFile: browser.OpenFile,
		openURL:  browser.OpenURL,
		spawn:    startDetached,
		logger:   log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// InstallOrOpen starts the installer for artifact. It returns once the
// installer or default handler has been launched.
func (d *Dispatcher) InstallOrOpen(ctx context.Context, artifact *fetch.Artifact) error {
	if artifact == nil || artifact.FinalPath == "" {
		return ErrNoArtifact
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	path := artifact.FinalPath

	if d.goos == platform.Windows && IsMSI(path) {
		args := MSIArgs(path)
		d.logger.Debug("starting msiexec", "args", args)
		if err := d.spawn(msiexecProgram, args...); err != nil {
			return &SpawnError{Program: msiexecProgram, Err: err}
		}
		return nil
	}

	d.logger.Debug("opening with default handler", "path", path)
	if err := d.openFile(path); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrOpenFailed, filepath.Base(path), err)
	}
	return nil
}

// OpenLink gives a web link to the default browser. A link without an
// http or https scheme is treated as https.
func (d *Dispatcher) OpenLink(ctx context.Context, link string) error {
	target, err := NormalizeLink(link)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := d.openURL(target); err != nil {
		return fmt.Errorf("%w: %w", ErrOpenFailed, err)
	}
	return nil
}

// NormalizeLink trims link and prefixes "https://" unless it already starts
// with http:// or https://.
func NormalizeLink(link string) (string, error) {
	link = strings.TrimSpace(link)
	if link == "" {
		return "", errors.New("link is empty")
	}
	lower := strings.ToLower(link)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
		return link, nil
	}
	return "https://" + link, nil
}

// IsMSI reports whether path names a Windows Installer package.
func IsMSI(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".msi")
}

// MSIArgs returns the msiexec arguments for a passive, no-reboot install
// that relaunches the application when done.
func MSIArgs(path string) []string {
	return []string{"/i", path, "/passive", "/norestart", "AUTOLAUNCHAPP=1"}
}
