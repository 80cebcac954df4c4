// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/aicodewith/toolkeeper/internal/config"
	"github.com/aicodewith/toolkeeper/internal/fetch"
	"github.com/aicodewith/toolkeeper/internal/installer"
	"github.com/aicodewith/toolkeeper/internal/locate"
	"github.com/aicodewith/toolkeeper/internal/probe"
	"github.com/aicodewith/toolkeeper/internal/reconcile"
	"github.com/aicodewith/toolkeeper/internal/registry"
	"github.com/aicodewith/toolkeeper/internal/selfupdate"
	"github.com/aicodewith/toolkeeper/internal/trust"

	"github.com/charmbracelet/log"
)

type (
	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// App wires CLI services and shared dependencies. Command handlers receive
	// an App and build request-scoped components from the loaded config.
	App struct {
		Config        ConfigProvider
		Installer     selfupdate.ArtifactInstaller
		OpenURL       installer.Opener
		Prober        probe.Prober
		GitHubBaseURL string

		stdout io.Writer
		stderr io.Writer
		flags  rootFlags
		cfg    *config.Config
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Installer launches downloaded packages.
		Installer selfupdate.ArtifactInstaller
		// OpenURL hands links to the browser.
		OpenURL installer.Opener
		// Prober runs "<tool> --version".
		Prober probe.Prober
		// GitHubBaseURL overrides the GitHub API endpoint.
		GitHubBaseURL string
		Stdout        io.Writer
		Stderr        io.Writer
	}
)

// NewApp creates an App with production defaults for any nil dependency.
func NewApp(deps Dependencies) *App {
	app := &App{
		Config:        deps.Config,
		Installer:     deps.Installer,
		OpenURL:       deps.OpenURL,
		Prober:        deps.Prober,
		GitHubBaseURL: deps.GitHubBaseURL,
		stdout:        deps.Stdout,
		stderr:        deps.Stderr,
	}
	if app.Config == nil {
		app.Config = config.NewProvider()
	}
	if app.stdout == nil {
		app.stdout = os.Stdout
	}
	if app.stderr == nil {
		app.stderr = os.Stderr
	}
	return app
}

// loadConfig loads and caches the configuration for this invocation.
func (a *App) loadConfig(ctx context.Context) (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: a.flags.cfgFile})
	if err != nil {
		return nil, &ExitError{Code: exitUserError, Err: err}
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *App) verbose() bool {
	return a.flags.verbose || (a.cfg != nil && a.cfg.UI.Verbose)
}

// logger returns a stderr logger for one component. Debug output requires
// --verbose or ui.verbose.
func (a *App) logger(component string) *log.Logger {
	level := log.WarnLevel
	if a.verbose() {
		level = log.DebugLevel
	}
	return log.NewWithOptions(a.stderr, log.Options{
		Prefix: "toolkeeper/" + component,
		Level:  level,
	})
}

// userAgent is the download User-Agent: the configured value, or
// AI-Code-With/<version>.
func userAgent(cfg *config.Config) string {
	if cfg.Download.UserAgent != "" {
		return cfg.Download.UserAgent
	}
	return "AI-Code-With/" + Version
}

func (a *App) dispatcher() *installer.Dispatcher {
	opts := []installer.Option{installer.WithLogger(a.logger("installer"))}
	if a.OpenURL != nil {
		opts = append(opts, installer.WithURLOpener(a.OpenURL))
	}
	return installer.New(opts...)
}

func (a *App) githubClient() *selfupdate.GitHubClient {
	opts := []selfupdate.ClientOption{
		selfupdate.WithUserAgent("toolkeeper/" + Version),
		selfupdate.WithBaseURL(a.GitHubBaseURL),
	}
	// A token raises the limit from 60 to 5000 requests per hour.
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		opts = append(opts, selfupdate.WithToken(token))
	}
	return selfupdate.NewGitHubClient(opts...)
}

// updater builds the download pipeline from cfg.
func (a *App) updater(cfg *config.Config) *selfupdate.Updater {
	policy := trust.NewPolicy(cfg.Download.TrustedHosts)

	fetchOpts := []fetch.Option{
		fetch.WithHTTPClient(&http.Client{Timeout: cfg.Download.Timeout}),
		fetch.WithUserAgent(userAgent(cfg)),
		fetch.WithLogger(a.logger("fetch")),
	}
	if cfg.Download.StrictRedirects {
		fetchOpts = append(fetchOpts, fetch.WithRedirectPolicy(func(target *url.URL) error {
			_, err := policy.Authorize(target.String())
			return err
		}))
	}
	fetcher := fetch.New(fetchOpts...)

	var inst selfupdate.ArtifactInstaller = a.dispatcher()
	if a.Installer != nil {
		inst = a.Installer
	}

	return selfupdate.NewUpdater(Version,
		selfupdate.WithTrustPolicy(policy),
		selfupdate.WithFetcher(fetcher),
		selfupdate.WithInstaller(inst),
		selfupdate.WithDownloadDir(selfupdate.DownloadDir(cfg.Download.DirName)),
		selfupdate.WithGitHubClient(a.githubClient()),
		selfupdate.WithLogger(a.logger("update")),
	)
}

// reconciler builds the version pipeline from cfg.
func (a *App) reconciler(cfg *config.Config) *reconcile.Reconciler {
	prober := a.Prober
	if prober == nil {
		prober = probe.NewShellProber(
			probe.WithTimeout(cfg.Probe.Timeout),
			probe.WithLogger(a.logger("probe")),
		)
	}

	loc := locate.New(
		locate.WithProber(prober),
		locate.WithLogger(a.logger("locate")),
	)
	reg := registry.NewClient(
		registry.WithBaseURL(cfg.Registry.BaseURL),
		registry.WithUserAgent(cfg.Registry.UserAgent),
		registry.WithHTTPClient(&http.Client{Timeout: cfg.Registry.Timeout}),
		registry.WithLogger(a.logger("registry")),
	)

	tools := make([]reconcile.Tool, len(cfg.Tools))
	for i, t := range cfg.Tools {
		tools[i] = reconcile.Tool{Name: t.Name, Package: t.Package}
	}

	return reconcile.New(loc, reg,
		reconcile.WithTools(tools),
		reconcile.WithLogger(a.logger("reconcile")),
	)
}
