// SPDX-License-Identifier: MPL-2.0

// Package selfupdate acquires and launches new versions of the desktop
// application.
//
// The package is organized into three concerns:
//   - selfupdate.go: Updater, which chains the trust gate, the atomic fetcher
//     and the installer dispatcher into DownloadAndOpen, and runs release checks
//   - github.go: HTTP client for the GitHub "latest release" endpoint
//   - portable.go: detection of portable (unpacked, uninstalled) deployments
package selfupdate
