// SPDX-License-Identifier: MPL-2.0

package fetch

import (
	"strings"
	"unicode"

	"github.com/aicodewith/toolkeeper/pkg/platform"
)

const (
	// FallbackFileName is used when a requested name sanitizes to nothing.
	FallbackFileName = "aicodewith-update.bin"
	// MaxFileNameRunes caps the length of a sanitized name.
	MaxFileNameRunes = 120
)

// SanitizeFileName turns an untrusted name into a single safe path segment.
//
// Only the final segment survives (both '/' and '\' separate segments).
// Characters that are reserved on common filesystems, and control
// characters, become '_'. The result is whitespace-trimmed and capped at
// MaxFileNameRunes runes. Empty, "." and ".." results yield
// FallbackFileName, and Windows device names such as "CON.msi" gain a '_'
// prefix. SanitizeFileName is idempotent.
func SanitizeFileName(raw string) string {
	name := strings.TrimRight(raw, `/\`)
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	name = strings.TrimSpace(name)

	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if unicode.IsControl(r) {
			return '_'
		}
		return r
	}, name)

	name = strings.TrimSpace(name)
	if runes := []rune(name); len(runes) > MaxFileNameRunes {
		name = strings.TrimSpace(string(runes[:MaxFileNameRunes]))
	}

	switch name {
	case "", ".", "..":
		return FallbackFileName
	}

	if platform.IsWindowsReservedName(name) {
		name = "_" + name
		if runes := []rune(name); len(runes) > MaxFileNameRunes {
			name = strings.TrimSpace(string(runes[:MaxFileNameRunes]))
		}
	}
	return name
}
