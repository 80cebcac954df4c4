// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rogpeppe/go-internal/testscript"
)

// TestMain lets testscript re-run this binary as the toolkeeper command.
func TestMain(m *testing.M) {
	testscript.Main(m, map[string]func(){
		"toolkeeper": Execute,
	})
}

// TestScripts runs the CLI scripts in testdata/script.
func TestScripts(t *testing.T) {
	t.Parallel()

	testscript.Run(t, testscript.Params{
		Dir: filepath.Join("testdata", "script"),
		Setup: func(env *testscript.Env) error {
			work := env.Getenv("WORK")
			env.Setenv("XDG_CONFIG_HOME", filepath.Join(work, ".config"))
			env.Setenv("PATH", filepath.Join(work, "bin")+string(os.PathListSeparator)+env.Getenv("PATH"))
			// Keep scripts offline: nothing below listens on port 1.
			env.Setenv("TOOLKEEPER_REGISTRY_BASE_URL", "http://127.0.0.1:1")
			env.Setenv("TOOLKEEPER_REGISTRY_TIMEOUT", "2s")
			return nil
		},
	})
}
