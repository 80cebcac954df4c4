// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"fmt"
	"os"
	"path/filepath"
)

// PortableMarker is the file whose presence next to the executable marks a
// portable deployment.
const PortableMarker = "portable.ini"

var (
	//nolint:gochecknoglobals // Test seam for os.Executable().
	osExecutable = os.Executable

	//nolint:gochecknoglobals // Test seam for filepath.EvalSymlinks().
	evalSymlinks = filepath.EvalSymlinks
)

// IsPortable reports whether the running executable is a portable build,
// i.e. a regular file named PortableMarker sits in its directory.
func IsPortable() (bool, error) {
	execPath, err := resolveExecPath()
	if err != nil {
		return false, err
	}
	return IsPortableAt(execPath), nil
}

// IsPortableAt reports whether execPath has a PortableMarker beside it.
func IsPortableAt(execPath string) bool {
	info, err := os.Stat(filepath.Join(filepath.Dir(execPath), PortableMarker))
	return err == nil && info.Mode().IsRegular()
}

func resolveExecPath() (string, error) {
	p, err := osExecutable()
	if err != nil {
		return "", fmt.Errorf("determining executable path: %w", err)
	}

	resolved, err := evalSymlinks(p)
	if err != nil {
		return "", fmt.Errorf("resolving symlinks for %s: %w", p, err)
	}

	return resolved, nil
}
