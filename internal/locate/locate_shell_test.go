// SPDX-License-Identifier: MPL-2.0

package locate

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/aicodewith/toolkeeper/internal/probe"
	"github.com/aicodewith/toolkeeper/internal/testutil"
)

// These tests run real shell probes against fake tools under a temporary
// home directory. The tool names are unique so nothing on the host PATH or
// in the system dirs answers first.

//nolint:paralleltest // Sets HOME.
func TestLocateVersion_ShellFindsUserLocalInstall(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX scripts")
	}

	home := t.TempDir()
	testutil.SetHomeDir(t, home)
	testutil.WriteFakeTool(t, filepath.Join(home, ".npm-global", "bin"), "toolkeeper-locate-fake", "toolkeeper-locate-fake 1.4.2", 0)

	l := New(WithProber(probe.NewShellProber()))
	res := l.LocateVersion(context.Background(), "toolkeeper-locate-fake")
	if res.Version != "1.4.2" {
		t.Errorf("LocateVersion() = %+v, want version 1.4.2", res)
	}
}

//nolint:paralleltest // Sets HOME.
func TestLocateVersion_ShellPrefersNewestNvm(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("fake tools are POSIX scripts")
	}

	home := t.TempDir()
	testutil.SetHomeDir(t, home)
	nodes := filepath.Join(home, ".nvm", "versions", "node")
	testutil.WriteFakeTool(t, filepath.Join(nodes, "v18.20.4", "bin"), "toolkeeper-nvm-fake", "0.9.0", 0)
	testutil.WriteFakeTool(t, filepath.Join(nodes, "v20.11.1", "bin"), "toolkeeper-nvm-fake", "1.0.0", 0)
	testutil.WriteFakeTool(t, filepath.Join(nodes, "v22.1.0", "bin"), "toolkeeper-nvm-fake", "", 1)

	l := New(WithProber(probe.NewShellProber()))
	res := l.LocateVersion(context.Background(), "toolkeeper-nvm-fake")
	if res.Version != "1.0.0" {
		t.Errorf("LocateVersion() = %+v, want 1.0.0 from the newest working node", res)
	}
}

//nolint:paralleltest // Sets HOME.
func TestLocateVersion_ShellNotInstalled(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("relies on a POSIX shell")
	}

	testutil.SetHomeDir(t, t.TempDir())

	l := New(WithProber(probe.NewShellProber()))
	res := l.LocateVersion(context.Background(), "toolkeeper-absent-fake")
	if res.Version != "" || res.Err != NotInstalledMessage {
		t.Errorf("LocateVersion() = %+v, want %q", res, NotInstalledMessage)
	}
}
