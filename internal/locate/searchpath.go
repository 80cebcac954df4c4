// SPDX-License-Identifier: MPL-2.0

package locate

import (
	"cmp"
	"iter"
	"path/filepath"
	"slices"

	"github.com/aicodewith/toolkeeper/pkg/platform"

	"golang.org/x/mod/semver"
)

// SearchPath yields the fallback directories in priority order: user-local
// install dirs, platform system dirs, then the bin dir of every installed
// nvm Node version, newest first. Each call returns a fresh sequence, and
// the nvm directory is only read once iteration reaches it.
func (l *Locator) SearchPath() iter.Seq[string] {
	return func(yield func(string) bool) {
		home, err := l.homeDir()
		if err != nil {
			l.logger.Debug("home directory unavailable", "err", err)
			home = ""
		}

		for _, dir := range l.staticDirs(home) {
			if !yield(dir) {
				return
			}
		}

		if home == "" {
			return
		}
		for _, dir := range l.nvmBinDirs(filepath.Join(home, ".nvm", "versions", "node")) {
			if !yield(dir) {
				return
			}
		}
	}
}

func (l *Locator) staticDirs(home string) []string {
	var dirs []string
	if home != "" {
		dirs = append(dirs,
			filepath.Join(home, ".npm-global", "bin"),
			filepath.Join(home, ".local", "bin"),
			filepath.Join(home, "n", "bin"),
		)
	}

	switch l.goos {
	case platform.Darwin:
		dirs = append(dirs, "/opt/homebrew/bin", "/usr/local/bin")
	case platform.Linux:
		dirs = append(dirs, "/usr/local/bin", "/usr/bin")
	case platform.Windows:
		if appData := l.getenv("APPDATA"); appData != "" {
			dirs = append(dirs, filepath.Join(appData, "npm"))
		}
		dirs = append(dirs, `C:\Program Files\nodejs`)
	}
	return dirs
}

// nvmBinDirs lists <base>/<version>/bin for every version directory that has
// one. Versions that parse as semver sort newest first; anything else
// follows in name order.
func (l *Locator) nvmBinDirs(base string) []string {
	entries, err := l.readDir(base)
	if err != nil {
		return nil
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.SortStableFunc(names, compareNodeVersionsDesc)

	dirs := make([]string, 0, len(names))
	for _, name := range names {
		bin := filepath.Join(base, name, "bin")
		if info, err := l.stat(bin); err == nil && info.IsDir() {
			dirs = append(dirs, bin)
		}
	}
	return dirs
}

func compareNodeVersionsDesc(a, b string) int {
	va, vb := semver.IsValid(a), semver.IsValid(b)
	switch {
	case va && vb:
		return semver.Compare(b, a)
	case va:
		return -1
	case vb:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}
