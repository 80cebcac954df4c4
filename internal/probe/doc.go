// SPDX-License-Identifier: MPL-2.0

// Package probe runs "<tool> --version" through the platform shell and
// captures what it printed. It is the only place the version pipeline
// spawns processes, so the locator can be tested without real binaries.
//
// On Unix the command goes through "sh -c" with the tool path quoted for
// POSIX sh; inside a Flatpak sandbox it is relayed to the host with
// flatpak-spawn. On Windows it goes through "cmd /C" with no console window.
package probe
