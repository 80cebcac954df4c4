// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/aicodewith/toolkeeper/internal/fetch"
	"github.com/aicodewith/toolkeeper/internal/installer"
	"github.com/aicodewith/toolkeeper/internal/trust"

	"github.com/charmbracelet/log"
	"golang.org/x/mod/semver"
)

const (
	// DefaultDirName is the download directory created under os.TempDir().
	DefaultDirName = "aicodewith-updates"

	// DefaultReleasePage is opened when a release carries no page URL.
	DefaultReleasePage = "https://github.com/farion1231/cc-switch/releases/latest"
)

// ErrInvalidVersion indicates the provided version string is not valid semver.
var ErrInvalidVersion = errors.New("invalid semantic version")

type (
	// ArtifactFetcher downloads an authorized URL into a directory.
	ArtifactFetcher interface {
		Fetch(ctx context.Context, u *url.URL, targetDir, rawName string) (*fetch.Artifact, error)
	}

	// ArtifactInstaller launches a downloaded artifact.
	ArtifactInstaller interface {
		InstallOrOpen(ctx context.Context, artifact *fetch.Artifact) error
	}

	// Request is one download-and-open call.
	Request struct {
		// URL must point at a trusted host.
		URL string
		// FileName is untrusted and sanitized before use.
		FileName string
		// NoOpen stops after the file is saved.
		NoOpen bool
	}

	// Result describes a saved artifact.
	Result struct {
		FilePath string `json:"filePath"`
		Size     int64  `json:"-"`
		Opened   bool   `json:"-"`
	}

	// UpdateCheck is the outcome of comparing the running version with the
	// latest published release.
	UpdateCheck struct {
		CurrentVersion  string `json:"current_version"`
		LatestVersion   string `json:"latest_version"`
		ReleaseURL      string `json:"release_url"`
		UpdateAvailable bool   `json:"update_available"`
		Message         string `json:"message"`
	}

	// Updater composes the trust gate, fetcher, installer and release
	// client. It is the primary facade for the selfupdate package.
	Updater struct {
		policy         trust.Policy
		fetcher        ArtifactFetcher
		installer      ArtifactInstaller
		downloadDir    string
		client         *GitHubClient
		currentVersion string
		logger         *log.Logger
	}

	// UpdaterOption configures an Updater during construction.
	UpdaterOption func(*Updater)
)

// WithTrustPolicy sets the host policy downloads must satisfy.
func WithTrustPolicy(p trust.Policy) UpdaterOption {
	return func(u *Updater) {
		u.policy = p
	}
}

// WithFetcher overrides the artifact fetcher.
func WithFetcher(f ArtifactFetcher) UpdaterOption {
	return func(u *Updater) {
		if f != nil {
			u.fetcher = f
		}
	}
}

// WithInstaller overrides the installer dispatcher.
func WithInstaller(i ArtifactInstaller) UpdaterOption {
	return func(u *Updater) {
		if i != nil {
			u.installer = i
		}
	}
}

// WithDownloadDir sets the directory artifacts are saved to.
func WithDownloadDir(dir string) UpdaterOption {
	return func(u *Updater) {
		if dir != "" {
			u.downloadDir = dir
		}
	}
}

// WithGitHubClient overrides the default GitHubClient used for release checks.
func WithGitHubClient(c *GitHubClient) UpdaterOption {
	return func(u *Updater) {
		if c != nil {
			u.client = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) UpdaterOption {
	return func(u *Updater) {
		if l != nil {
			u.logger = l
		}
	}
}

// DownloadDir returns <os.TempDir()>/<name>, using DefaultDirName when name
// is empty. Only the last element of name is used.
func DownloadDir(name string) string {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." || name == string(filepath.Separator) || name == ".." {
		name = DefaultDirName
	}
	return filepath.Join(os.TempDir(), name)
}

// NewUpdater creates an Updater for the given running version. Without
// options it trusts trust.DefaultSuffixes() and saves to DownloadDir("").
func NewUpdater(currentVersion string, opts ...UpdaterOption) *Updater {
	u := &Updater{
		policy:         trust.NewPolicy(trust.DefaultSuffixes()),
		fetcher:        fetch.New(),
		installer:      installer.New(),
		downloadDir:    DownloadDir(""),
		client:         NewGitHubClient(),
		currentVersion: currentVersion,
		logger:         log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// DownloadAndOpen authorizes req.URL, saves the artifact atomically, and,
// unless req.NoOpen is set, launches it. A rejected URL never reaches the
// network.
//
// When the file was saved but could not be launched, the returned Result is
// non-nil alongside the error so the caller can point the user at the file.
func (u *Updater) DownloadAndOpen(ctx context.Context, req Request) (*Result, error) {
	target, err := u.policy.Authorize(req.URL)
	if err != nil {
		return nil, err
	}

	artifact, err := u.fetcher.Fetch(ctx, target, u.downloadDir, req.FileName)
	if err != nil {
		return nil, err
	}
	u.logger.Info("update package saved", "path", artifact.FinalPath, "bytes", artifact.Size)

	res := &Result{FilePath: artifact.FinalPath, Size: artifact.Size}
	if req.NoOpen {
		return res, nil
	}

	if err := u.installer.InstallOrOpen(ctx, artifact); err != nil {
		return res, err
	}
	res.Opened = true
	return res, nil
}

// Check compares the running version with the latest GitHub release.
//
// A running version that is not semver (e.g. "dev") never reports an update.
// A pre-release at or beyond the latest stable tag is reported as ahead.
func (u *Updater) Check(ctx context.Context) (*UpdateCheck, error) {
	release, err := u.client.LatestRelease(ctx)
	if err != nil {
		return nil, err
	}

	check := &UpdateCheck{
		CurrentVersion: u.currentVersion,
		LatestVersion:  release.TagName,
		ReleaseURL:     release.HTMLURL,
	}
	if check.ReleaseURL == "" {
		check.ReleaseURL = DefaultReleasePage
	}

	latestNorm, err := normalizeVersion(release.TagName)
	if err != nil {
		return nil, fmt.Errorf("release version: %w", err)
	}

	currentNorm, err := normalizeVersion(u.currentVersion)
	if err != nil {
		check.Message = fmt.Sprintf("Running development build %q; latest release is %s.", u.currentVersion, release.TagName)
		return check, nil
	}

	switch {
	case semver.Prerelease(currentNorm) != "" && semver.Compare(currentNorm, latestNorm) >= 0:
		check.Message = fmt.Sprintf("Running pre-release %s (ahead of %s).", u.currentVersion, release.TagName)
	case semver.Compare(currentNorm, latestNorm) >= 0:
		check.Message = "Already up to date."
	default:
		check.UpdateAvailable = true
		check.Message = fmt.Sprintf("Update available: %s -> %s", u.currentVersion, release.TagName)
	}

	return check, nil
}

func normalizeVersion(v string) (string, error) {
	norm := strings.TrimSpace(v)
	if !strings.HasPrefix(norm, "v") {
		norm = "v" + norm
	}
	if !semver.IsValid(norm) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVersion, v)
	}
	return norm, nil
}
