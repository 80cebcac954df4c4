// SPDX-License-Identifier: MPL-2.0

// Package locate finds the installed version of a command-line tool.
//
// It first asks the platform shell for "<tool> --version". Desktop
// applications often start with a minimal PATH, so when that fails it scans
// the usual npm, n, Homebrew and nvm install directories and runs the first
// candidate that answers with that directory prepended to PATH.
package locate
