// SPDX-License-Identifier: MPL-2.0

// Package platform reports which operating system and sandbox the process
// runs in, using the names the host application expects.
package platform
