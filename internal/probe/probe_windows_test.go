// SPDX-License-Identifier: MPL-2.0

//go:build windows

package probe

import (
	"errors"
	"slices"
	"testing"
)

var errTest = errors.New("test")

func TestWithPathPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		env  []string
		want []string
	}{
		{
			name: "prepends to existing PATH",
			env:  []string{"HOME=C:\\Users\\u", "PATH=C:\\Windows"},
			want: []string{"HOME=C:\\Users\\u", "PATH=C:\\nodejs;C:\\Windows"},
		},
		{
			name: "keeps the Path spelling",
			env:  []string{"Path=C:\\Windows"},
			want: []string{"Path=C:\\nodejs;C:\\Windows"},
		},
		{
			name: "adds PATH when missing",
			env:  []string{"HOME=C:\\Users\\u"},
			want: []string{"HOME=C:\\Users\\u", "PATH=C:\\nodejs"},
		},
		{
			name: "empty PATH value",
			env:  []string{"PATH="},
			want: []string{"PATH=C:\\nodejs"},
		},
		{
			name: "only the first entry is extended",
			env:  []string{"Path=C:\\a", "PATH=C:\\b"},
			want: []string{"Path=C:\\nodejs;C:\\a", "PATH=C:\\b"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := withPathPrefix(tt.env, `C:\nodejs`)
			if !slices.Equal(got, tt.want) {
				t.Errorf("withPathPrefix() = %q, want %q", got, tt.want)
			}
		})
	}
}
