// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/aicodewith/toolkeeper/internal/fetch"
	"github.com/aicodewith/toolkeeper/internal/trust"
)

type (
	stubFetcher struct {
		calls    atomic.Int32
		gotDir   string
		gotName  string
		artifact *fetch.Artifact
		err      error
	}

	stubInstaller struct {
		calls atomic.Int32
		err   error
	}
)

func (s *stubFetcher) Fetch(_ context.Context, _ *url.URL, targetDir, rawName string) (*fetch.Artifact, error) {
	s.calls.Add(1)
	s.gotDir, s.gotName = targetDir, rawName
	if s.err != nil {
		return nil, s.err
	}
	return s.artifact, nil
}

func (s *stubInstaller) InstallOrOpen(context.Context, *fetch.Artifact) error {
	s.calls.Add(1)
	return s.err
}

func newStubUpdater(f *stubFetcher, i *stubInstaller) *Updater {
	return NewUpdater("1.0.0",
		WithTrustPolicy(trust.NewPolicy([]string{".example.com"})),
		WithFetcher(f),
		WithInstaller(i),
		WithDownloadDir("/tmp/updates"),
	)
}

func TestDownloadAndOpen_UntrustedURLNeverFetches(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{
		"https://evil.com/x.msi",
		"ftp://dl.example.com/x.msi",
		"https://example.com.evil.net/x.msi",
		"not a url",
	} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			f := &stubFetcher{}
			i := &stubInstaller{}
			res, err := newStubUpdater(f, i).DownloadAndOpen(context.Background(), Request{URL: raw, FileName: "x.msi"})
			if err == nil {
				t.Fatal("expected rejection")
			}
			var rejected *trust.RejectedError
			if !errors.As(err, &rejected) {
				t.Errorf("expected *trust.RejectedError, got %T", err)
			}
			if res != nil {
				t.Errorf("expected nil result, got %+v", res)
			}
			if f.calls.Load() != 0 || i.calls.Load() != 0 {
				t.Errorf("fetch calls = %d, install calls = %d, want 0", f.calls.Load(), i.calls.Load())
			}
		})
	}
}

func TestDownloadAndOpen_FetchesThenOpens(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{artifact: &fetch.Artifact{FinalPath: "/tmp/updates/a.msi", Size: 42}}
	i := &stubInstaller{}

	res, err := newStubUpdater(f, i).DownloadAndOpen(context.Background(), Request{
		URL:      "https://dl.example.com/a.msi",
		FileName: "a.msi",
	})
	if err != nil {
		t.Fatalf("DownloadAndOpen() error: %v", err)
	}
	if res.FilePath != "/tmp/updates/a.msi" || res.Size != 42 || !res.Opened {
		t.Errorf("unexpected result: %+v", res)
	}
	if f.gotDir != "/tmp/updates" || f.gotName != "a.msi" {
		t.Errorf("Fetch got dir=%q name=%q", f.gotDir, f.gotName)
	}
	if i.calls.Load() != 1 {
		t.Errorf("install calls = %d, want 1", i.calls.Load())
	}
}

func TestDownloadAndOpen_NoOpen(t *testing.T) {
	t.Parallel()

	f := &stubFetcher{artifact: &fetch.Artifact{FinalPath: "/tmp/updates/a.dmg"}}
	i := &stubInstaller{}

	res, err := newStubUpdater(f, i).DownloadAndOpen(context.Background(), Request{
		URL:    "https://dl.example.com/a.dmg",
		NoOpen: true,
	})
	if err != nil {
		t.Fatalf("DownloadAndOpen() error: %v", err)
	}
	if res.Opened {
		t.Error("Opened = true with NoOpen set")
	}
	if i.calls.Load() != 0 {
		t.Errorf("install calls = %d, want 0", i.calls.Load())
	}
}

func TestDownloadAndOpen_ErrorsPropagate(t *testing.T) {
	t.Parallel()

	t.Run("fetch failure", func(t *testing.T) {
		t.Parallel()

		f := &stubFetcher{err: fetch.ErrTransport}
		i := &stubInstaller{}
		res, err := newStubUpdater(f, i).DownloadAndOpen(context.Background(), Request{URL: "https://dl.example.com/a.msi"})
		if !errors.Is(err, fetch.ErrTransport) {
			t.Errorf("error = %v, want ErrTransport", err)
		}
		if res != nil {
			t.Errorf("expected nil result, got %+v", res)
		}
		if i.calls.Load() != 0 {
			t.Error("installer invoked after failed fetch")
		}
	})

	t.Run("open failure keeps path", func(t *testing.T) {
		t.Parallel()

		errOpen := errors.New("no handler")
		f := &stubFetcher{artifact: &fetch.Artifact{FinalPath: "/tmp/updates/a.zip"}}
		i := &stubInstaller{err: errOpen}
		res, err := newStubUpdater(f, i).DownloadAndOpen(context.Background(), Request{URL: "https://dl.example.com/a.zip"})
		if !errors.Is(err, errOpen) {
			t.Errorf("error = %v, want %v", err, errOpen)
		}
		if res == nil || res.FilePath != "/tmp/updates/a.zip" || res.Opened {
			t.Errorf("unexpected result: %+v", res)
		}
	})
}

func TestDownloadAndOpen_RealFetcher(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("installer bytes"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	i := &stubInstaller{}
	u := NewUpdater("1.0.0",
		WithTrustPolicy(trust.NewPolicy([]string{"127.0.0.1"})),
		WithFetcher(fetch.New(fetch.WithHTTPClient(srv.Client()))),
		WithInstaller(i),
		WithDownloadDir(dir),
	)

	res, err := u.DownloadAndOpen(context.Background(), Request{URL: srv.URL + "/a", FileName: `..\..\setup?.exe`})
	if err != nil {
		t.Fatalf("DownloadAndOpen() error: %v", err)
	}
	if want := filepath.Join(dir, "setup_.exe"); res.FilePath != want {
		t.Errorf("FilePath = %q, want %q", res.FilePath, want)
	}
	data, err := os.ReadFile(res.FilePath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "installer bytes" {
		t.Errorf("content = %q", data)
	}
}

func TestDownloadDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{in: "", want: DefaultDirName},
		{in: "  ", want: DefaultDirName},
		{in: "..", want: DefaultDirName},
		{in: "my-updates", want: "my-updates"},
		{in: "a/b/nested", want: "nested"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got := DownloadDir(tt.in)
			if want := filepath.Join(os.TempDir(), tt.want); got != want {
				t.Errorf("DownloadDir(%q) = %q, want %q", tt.in, got, want)
			}
		})
	}
}

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		current     string
		latest      string
		htmlURL     string
		wantUpdate  bool
		wantMessage string
		wantURL     string
	}{
		{name: "older", current: "3.5.0", latest: "v3.6.1", wantUpdate: true, wantMessage: "Update available"},
		{name: "same", current: "v3.6.1", latest: "v3.6.1", wantMessage: "Already up to date"},
		{name: "newer", current: "3.7.0", latest: "v3.6.1", wantMessage: "Already up to date"},
		{name: "prerelease ahead", current: "3.7.0-beta.1", latest: "v3.6.1", wantMessage: "pre-release"},
		{name: "prerelease behind", current: "3.6.1-rc.1", latest: "v3.6.1", wantUpdate: true, wantMessage: "Update available"},
		{name: "dev build", current: "dev", latest: "v3.6.1", wantMessage: "development build"},
		{
			name: "release page from api", current: "3.5.0", latest: "v3.6.1", wantUpdate: true,
			htmlURL: "https://github.com/farion1231/cc-switch/releases/tag/v3.6.1",
			wantURL: "https://github.com/farion1231/cc-switch/releases/tag/v3.6.1", wantMessage: "Update available",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				_ = json.NewEncoder(w).Encode(githubRelease{TagName: tt.latest, HTMLURL: tt.htmlURL})
			}))
			defer srv.Close()

			u := NewUpdater(tt.current, WithGitHubClient(NewGitHubClient(WithBaseURL(srv.URL))))
			got, err := u.Check(context.Background())
			if err != nil {
				t.Fatalf("Check() error: %v", err)
			}
			if got.UpdateAvailable != tt.wantUpdate {
				t.Errorf("UpdateAvailable = %v, want %v", got.UpdateAvailable, tt.wantUpdate)
			}
			if !strings.Contains(got.Message, tt.wantMessage) {
				t.Errorf("Message = %q, want substring %q", got.Message, tt.wantMessage)
			}
			wantURL := tt.wantURL
			if wantURL == "" {
				wantURL = DefaultReleasePage
			}
			if got.ReleaseURL != wantURL {
				t.Errorf("ReleaseURL = %q, want %q", got.ReleaseURL, wantURL)
			}
		})
	}
}

func TestCheck_InvalidReleaseTag(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"tag_name":"nightly"}`))
	}))
	defer srv.Close()

	u := NewUpdater("1.0.0", WithGitHubClient(NewGitHubClient(WithBaseURL(srv.URL))))
	if _, err := u.Check(context.Background()); !errors.Is(err, ErrInvalidVersion) {
		t.Errorf("Check() error = %v, want ErrInvalidVersion", err)
	}
}
