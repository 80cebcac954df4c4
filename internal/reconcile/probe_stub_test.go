// SPDX-License-Identifier: MPL-2.0

package reconcile

import (
	"context"

	"github.com/aicodewith/toolkeeper/internal/probe"
)

// notFoundProber behaves like a shell on a machine without the tool.
type notFoundProber struct{}

func (notFoundProber) Probe(_ context.Context, tool, _ string) probe.Output {
	return probe.Output{ExitCode: 127, Stderr: "sh: 1: " + tool + ": not found"}
}
