// SPDX-License-Identifier: MPL-2.0

// Package installer hands a downloaded artifact to the operating system.
//
// On Windows an .msi package is started with msiexec in passive mode and
// without a console window. Every other artifact, on every platform, is
// given to the desktop's default handler. Spawned installers are detached:
// the call returns as soon as the process has started and its outcome is
// never observed.
package installer
