// SPDX-License-Identifier: MPL-2.0

package testutil

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"testing"
)

func TestNewNPMRegistry(t *testing.T) {
	t.Parallel()

	reg := NewNPMRegistry(t, map[string]string{"@openai/codex": "0.46.0"})

	get := func(path string) (int, string) {
		t.Helper()
		req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, reg.URL+path, http.NoBody)
		if err != nil {
			t.Fatal(err)
		}
		resp, err := reg.Client().Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer MustClose(t, resp.Body)
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		return resp.StatusCode, string(body)
	}

	status, body := get("/" + url.PathEscape("@openai/codex"))
	if status != http.StatusOK || !strings.Contains(body, `"latest":"0.46.0"`) {
		t.Errorf("known package: status %d body %s", status, body)
	}

	if status, _ := get("/left-pad"); status != http.StatusNotFound {
		t.Errorf("unknown package: status %d, want 404", status)
	}

	if reg.Requests() != 2 {
		t.Errorf("Requests() = %d, want 2", reg.Requests())
	}
}

func TestWriteFakeTool(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("runs the POSIX variant only")
	}

	path := WriteFakeTool(t, t.TempDir(), "claude", "2.0.14 (Claude Code)", 0)
	out, err := exec.CommandContext(context.Background(), path, "--version").Output()
	if err != nil {
		t.Fatalf("running fake tool: %v", err)
	}
	if got := strings.TrimSpace(string(out)); got != "2.0.14 (Claude Code)" {
		t.Errorf("output = %q", got)
	}

	failing := WriteFakeTool(t, t.TempDir(), "codex", "", 3)
	err = exec.CommandContext(context.Background(), failing).Run()
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) || exitErr.ExitCode() != 3 {
		t.Errorf("exit error = %v, want code 3", err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Mode().Perm()&0o100 == 0 {
		t.Errorf("fake tool is not executable: %v", err)
	}
}
