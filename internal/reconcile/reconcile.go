// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"
	"io"
	"strings"

	"github.com/aicodewith/toolkeeper/internal/locate"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
	"golang.org/x/sync/errgroup"
)

type (
	// VersionLocator finds the installed version of a tool.
	VersionLocator interface {
		LocateVersion(ctx context.Context, tool string) locate.Result
	}

	// LatestFetcher returns the latest published version of a package.
	LatestFetcher interface {
		FetchLatest(ctx context.Context, pkg string) (string, bool)
	}

	// Tool pairs a command name with the registry package that ships it.
	Tool struct {
		Name    string `json:"name" mapstructure:"name"`
		Package string `json:"package" mapstructure:"package"`
	}

	// Report is the reconciled state of one tool. Exactly one of Version
	// and Error is set; LatestVersion is independent of both.
	Report struct {
		Name            string  `json:"name"`
		Version         *string `json:"version"`
		LatestVersion   *string `json:"latest_version"`
		Error           *string `json:"error"`
		UpdateAvailable bool    `json:"update_available"`
	}

	// Reconciler produces Reports. Construct with New.
	Reconciler struct {
		locator  VersionLocator
		registry LatestFetcher
		packages map[string]string
		logger   *log.Logger
	}

	// Option configures a Reconciler.
	Option func(*Reconciler)
)

// DefaultTools are the CLIs checked when no tool list is configured.
func DefaultTools() []Tool {
	return []Tool{
		{Name: "claude", Package: "@anthropic-ai/claude-code"},
		{Name: "codex", Package: "@openai/codex"},
		{Name: "gemini", Package: "@google/gemini-cli"},
	}
}

// Names returns the tool names in order.
func Names(tools []Tool) []string {
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Name)
	}
	return names
}

// WithTools replaces the name-to-package mapping. Tools with an empty
// Package are known but never looked up in the registry.
func WithTools(tools []Tool) Option {
	return func(r *Reconciler) {
		r.packages = make(map[string]string, len(tools))
		for _, t := range tools {
			if t.Package != "" {
				r.packages[t.Name] = t.Package
			}
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Reconciler) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates a Reconciler using DefaultTools for the package mapping.
func New(locator VersionLocator, registry LatestFetcher, opts ...Option) *Reconciler {
	r := &Reconciler{
		locator:  locator,
		registry: registry,
		logger:   log.New(io.Discard),
	}
	WithTools(DefaultTools())(r)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reconcile returns one Report per tool, in the order given.
func (r *Reconciler) Reconcile(ctx context.Context, tools []string) []Report {
	local := make([]locate.Result, len(tools))
	latest := make([]*string, len(tools))

	// Each goroutine owns exactly one slot, so no locking is needed.
	var g errgroup.Group
	for i, tool := range tools {
		g.Go(func() error {
			local[i] = r.locator.LocateVersion(ctx, tool)
			return nil
		})

		pkg, known := r.packages[tool]
		if !known {
			r.logger.Debug("no registry package mapped", "tool", tool)
			continue
		}
		g.Go(func() error {
			if v, ok := r.registry.FetchLatest(ctx, pkg); ok {
				latest[i] = &v
			}
			return nil
		})
	}
	_ = g.Wait() // goroutines never return an error

	reports := make([]Report, len(tools))
	for i, tool := range tools {
		reports[i] = merge(tool, local[i], latest[i])
	}
	return reports
}

func merge(tool string, local locate.Result, latest *string) Report {
	rep := Report{Name: tool, LatestVersion: latest}
	if local.Version != "" {
		v := local.Version
		rep.Version = &v
	} else {
		msg := local.Err
		if msg == "" {
			msg = locate.NotInstalledMessage
		}
		rep.Error = &msg
	}
	if rep.Version != nil && latest != nil {
		rep.UpdateAvailable = IsNewer(*latest, *rep.Version)
	}
	return rep
}

// IsNewer reports whether candidate is a strictly higher semantic version
// than current. Either side may carry a leading "v". Anything that is not
// valid semver compares as not newer.
func IsNewer(candidate, current string) bool {
	c, cur := canonical(candidate), canonical(current)
	if !semver.IsValid(c) || !semver.IsValid(cur) {
		return false
	}
	return semver.Compare(c, cur) > 0
}

func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	return "v" + strings.TrimPrefix(v, "v")
}
