// SPDX-License-Identifier: MPL-2.0

package probe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"time"

	"github.com/charmbracelet/log"
)

// DefaultTimeout bounds a single probe when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// waitDelay gives a killed shell's children time to release their pipes.
const waitDelay = 2 * time.Second

type (
	// Prober runs "<toolPath> --version". When extraPathPrefix is non-empty
	// it is prepended to PATH for that one process.
	Prober interface {
		Probe(ctx context.Context, toolPath, extraPathPrefix string) Output
	}

	// Output is the captured result of one probe.
	Output struct {
		// Stdout and Stderr are the raw captured streams.
		Stdout string
		Stderr string
		// ExitCode is the process exit status; meaningful only when Err is nil.
		ExitCode int
		// Err is set when the process could not be started or was killed
		// by the timeout.
		Err error
	}

	// ShellProber is the production Prober.
	ShellProber struct {
		timeout time.Duration
		logger  *log.Logger
	}

	// Option configures a ShellProber.
	Option func(*ShellProber)
)

// Succeeded reports whether the process ran and exited with status 0.
func (o Output) Succeeded() bool {
	return o.Err == nil && o.ExitCode == 0
}

// WithTimeout sets the per-probe timeout. Zero or negative disables it.
func WithTimeout(d time.Duration) Option {
	return func(p *ShellProber) {
		p.timeout = d
	}
}

// WithLogger sets the logger used for spawn diagnostics.
func WithLogger(l *log.Logger) Option {
	return func(p *ShellProber) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewShellProber creates a ShellProber with DefaultTimeout.
func NewShellProber(opts ...Option) *ShellProber {
	p := &ShellProber{
		timeout: DefaultTimeout,
		logger:  log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe implements Prober.
func (p *ShellProber) Probe(ctx context.Context, toolPath, extraPathPrefix string) Output {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	cmd, err := shellCommand(ctx, toolPath, extraPathPrefix)
	if err != nil {
		return Output{Err: err}
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	p.logger.Debug("probing", "tool", toolPath, "path_prefix", extraPathPrefix)

	err = cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}

	if ctxErr := ctx.Err(); ctxErr != nil {
		out.Err = fmt.Errorf("probing %s: %w", toolPath, ctxErr)
		return out
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
	default:
		out.Err = err
	}

	p.logger.Debug("probe finished", "tool", toolPath, "exit", out.ExitCode, "err", out.Err)

	return out
}
