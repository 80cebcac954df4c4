// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package probe

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/aicodewith/toolkeeper/pkg/platform"

	"mvdan.cc/sh/v3/syntax"
)

// hostSpawnPrefix is a test seam for sandbox detection.
var hostSpawnPrefix = platform.HostSpawnPrefix

// shellCommand builds `sh -c '<tool> --version'`. PATH is extended inside
// the script rather than through cmd.Env so that the change survives the
// hop to the host when running under flatpak-spawn.
func shellCommand(ctx context.Context, toolPath, extraPathPrefix string) (*exec.Cmd, error) {
	script, err := versionScript(toolPath, extraPathPrefix)
	if err != nil {
		return nil, err
	}

	argv := append(hostSpawnPrefix(), "sh", "-c", script)
	return exec.CommandContext(ctx, argv[0], argv[1:]...), nil
}

func versionScript(toolPath, extraPathPrefix string) (string, error) {
	quotedTool, err := syntax.Quote(toolPath, syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote tool path %q: %w", toolPath, err)
	}

	if extraPathPrefix == "" {
		return quotedTool + " --version", nil
	}

	quotedPrefix, err := syntax.Quote(extraPathPrefix+":", syntax.LangPOSIX)
	if err != nil {
		return "", fmt.Errorf("cannot quote path prefix %q: %w", extraPathPrefix, err)
	}
	return `PATH=` + quotedPrefix + `"$PATH" ` + quotedTool + " --version", nil
}
