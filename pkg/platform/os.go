// SPDX-License-Identifier: MPL-2.0

package platform

import "runtime"

// OS name constants for runtime.GOOS comparisons.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// MacOS is the name reported for darwin.
const MacOS = "macos"

// Name returns the host-facing platform name for the running binary.
func Name() string {
	return NameFor(runtime.GOOS)
}

// NameFor maps a GOOS value to the host-facing platform name. darwin becomes
// "macos"; windows and linux pass through. Any other GOOS is reported as-is.
func NameFor(goos string) string {
	if goos == Darwin {
		return MacOS
	}
	return goos
}

// IsWindows reports whether the binary was built for Windows.
func IsWindows() bool {
	return runtime.GOOS == Windows
}
