// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// WriteFakeTool creates an executable named name in dir that prints output
// and exits with exitCode. On Windows it is a .cmd shim, matching how npm
// installs global CLIs there. The full path is returned.
func WriteFakeTool(t testing.TB, dir, name, output string, exitCode int) string {
	t.Helper()

	MustMkdirAll(t, dir, 0o755)

	var path, body string
	if runtime.GOOS == "windows" {
		path = filepath.Join(dir, name+".cmd")
		body = "@echo off\r\n"
		if output != "" {
			body += "echo " + output + "\r\n"
		}
		body += fmt.Sprintf("exit /b %d\r\n", exitCode)
	} else {
		path = filepath.Join(dir, name)
		body = "#!/bin/sh\n"
		if output != "" {
			body += "echo '" + strings.ReplaceAll(output, "'", `'\''`) + "'\n"
		}
		body += fmt.Sprintf("exit %d\n", exitCode)
	}

	if err := os.WriteFile(path, []byte(body), 0o755); err != nil {
		t.Fatalf("failed to write fake tool %s: %v", path, err)
	}
	return path
}
