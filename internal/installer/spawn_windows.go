// SPDX-License-Identifier: MPL-2.0

//go:build windows

package installer

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// startDetached starts program without a console window and releases it.
// exec.Command is used rather than CommandContext: the installer must keep
// running after this process exits.
func startDetached(program string, args ...string) error {
	cmd := exec.Command(program, args...) //nolint:noctx // detached on purpose
	cmd.SysProcAttr = &syscall.SysProcAttr{
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
