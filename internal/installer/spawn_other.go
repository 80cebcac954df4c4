// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package installer

import (
	"os/exec"
	"syscall"
)

// startDetached starts program in its own session and releases it, so the
// child survives this process exiting.
func startDetached(program string, args ...string) error {
	cmd := exec.Command(program, args...) //nolint:noctx // detached on purpose
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
