// SPDX-License-Identifier: MPL-2.0

//go:build windows

package probe

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// shellCommand builds `cmd /D /S /C ""<tool>" --version"`. The command line
// is passed verbatim because cmd.exe does not follow the argv escaping rules
// exec applies by default.
func shellCommand(ctx context.Context, toolPath, extraPathPrefix string) (*exec.Cmd, error) {
	if strings.ContainsAny(toolPath, "\"\r\n") {
		return nil, fmt.Errorf("cannot quote tool path %q for cmd.exe", toolPath)
	}

	comspec := os.Getenv("ComSpec")
	if comspec == "" {
		comspec = "cmd.exe"
	}

	tool := toolPath
	if strings.ContainsAny(tool, " &()^%!,;=") {
		tool = `"` + tool + `"`
	}

	cmd := exec.CommandContext(ctx, comspec)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		CmdLine:       fmt.Sprintf(`"%s" /D /S /C "%s --version"`, comspec, tool),
		HideWindow:    true,
		CreationFlags: windows.CREATE_NO_WINDOW,
	}
	if extraPathPrefix != "" {
		cmd.Env = withPathPrefix(os.Environ(), extraPathPrefix)
	}
	return cmd, nil
}

// withPathPrefix returns env with prefix prepended to PATH, adding PATH when
// absent. Windows spells the key "Path", so keys compare case-insensitively
// and keep their original spelling.
func withPathPrefix(env []string, prefix string) []string {
	out := make([]string, 0, len(env)+1)
	found := false
	for _, kv := range env {
		key, value, ok := strings.Cut(kv, "=")
		if ok && !found && strings.EqualFold(key, "PATH") {
			found = true
			out = append(out, key+"="+joinPath(prefix, value))
			continue
		}
		out = append(out, kv)
	}
	if !found {
		out = append(out, "PATH="+prefix)
	}
	return out
}

func joinPath(prefix, rest string) string {
	if rest == "" {
		return prefix
	}
	return prefix + string(os.PathListSeparator) + rest
}
