// SPDX-License-Identifier: MPL-2.0

package selfupdate

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestIsPortableAt(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		setup func(t *testing.T, dir string)
		want  bool
	}{
		{
			name:  "no marker",
			setup: func(*testing.T, string) {},
			want:  false,
		},
		{
			name: "marker file",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				if err := os.WriteFile(filepath.Join(dir, PortableMarker), nil, 0o644); err != nil {
					t.Fatal(err)
				}
			},
			want: true,
		},
		{
			name: "marker is a directory",
			setup: func(t *testing.T, dir string) {
				t.Helper()
				if err := os.Mkdir(filepath.Join(dir, PortableMarker), 0o755); err != nil {
					t.Fatal(err)
				}
			},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			tt.setup(t, dir)
			if got := IsPortableAt(filepath.Join(dir, "cc-switch")); got != tt.want {
				t.Errorf("IsPortableAt() = %v, want %v", got, tt.want)
			}
		})
	}
}

//nolint:paralleltest // mutates the osExecutable and evalSymlinks seams
func TestIsPortable_UsesResolvedExecutable(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, PortableMarker), []byte("[portable]\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	origExec, origEval := osExecutable, evalSymlinks
	t.Cleanup(func() { osExecutable, evalSymlinks = origExec, origEval })

	osExecutable = func() (string, error) { return "/usr/local/bin/cc-switch", nil }
	evalSymlinks = func(string) (string, error) { return filepath.Join(dir, "cc-switch"), nil }

	got, err := IsPortable()
	if err != nil {
		t.Fatalf("IsPortable() error: %v", err)
	}
	if !got {
		t.Error("IsPortable() = false, want true")
	}
}

//nolint:paralleltest // mutates the osExecutable seam
func TestIsPortable_ExecutableError(t *testing.T) {
	origExec := osExecutable
	t.Cleanup(func() { osExecutable = origExec })

	errBoom := errors.New("no executable")
	osExecutable = func() (string, error) { return "", errBoom }

	if _, err := IsPortable(); !errors.Is(err, errBoom) {
		t.Errorf("IsPortable() error = %v, want wrapping %v", err, errBoom)
	}
}
