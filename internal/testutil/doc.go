// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helpers shared by tests across packages.
//
// Common helpers include environment management (SetHomeDir), fake tool
// executables (WriteFakeTool) and an in-process npm registry (NewNPMRegistry).
package testutil
