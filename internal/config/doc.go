// SPDX-License-Identifier: MPL-2.0

// Package config handles application configuration using Viper with CUE as the file format.
//
// Configuration is loaded from <config dir>/toolkeeper/config.cue, where the config dir is
// %APPDATA% on Windows, ~/Library/Application Support on macOS and $XDG_CONFIG_HOME (or
// ~/.config) elsewhere, falling back to ./config.cue. Any key can be overridden from the
// environment with the TOOLKEEPER_ prefix, e.g. TOOLKEEPER_PROBE_TIMEOUT=5s.
//
// Files are validated against the embedded CUE schema (config_schema.cue) before being
// merged over the defaults.
package config
