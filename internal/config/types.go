// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrInvalidConfig is the sentinel wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

// toolNamePattern matches #Tool.name in config_schema.cue.
var toolNamePattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// ValidToolName reports whether name is a bare command name: letters,
// digits, '.', '_' and '-', and not "." or "..". Such a name can never
// escape the directory it is joined to.
func ValidToolName(name string) bool {
	return name != "." && name != ".." && toolNamePattern.MatchString(name)
}

type (
	// Config is the effective application configuration.
	Config struct {
		Download DownloadConfig `json:"download" mapstructure:"download"`
		Registry RegistryConfig `json:"registry" mapstructure:"registry"`
		Tools    []ToolConfig   `json:"tools"    mapstructure:"tools"`
		Probe    ProbeConfig    `json:"probe"    mapstructure:"probe"`
		UI       UIConfig       `json:"ui"       mapstructure:"ui"`

		// Path is the file the configuration was read from, empty when only
		// defaults and environment overrides apply.
		Path string `json:"-" mapstructure:"-"`
	}

	// DownloadConfig configures the update download pipeline.
	DownloadConfig struct {
		TrustedHosts []string      `json:"trusted_hosts" mapstructure:"trusted_hosts"`
		DirName      string        `json:"dir_name"      mapstructure:"dir_name"`
		UserAgent    string        `json:"user_agent"    mapstructure:"user_agent"`
		Timeout      time.Duration `json:"timeout"       mapstructure:"timeout"`
		// StrictRedirects applies the trusted host check to redirect targets.
		StrictRedirects bool `json:"strict_redirects" mapstructure:"strict_redirects"`
	}

	// RegistryConfig configures the npm registry client.
	RegistryConfig struct {
		BaseURL   string        `json:"base_url"   mapstructure:"base_url"`
		UserAgent string        `json:"user_agent" mapstructure:"user_agent"`
		Timeout   time.Duration `json:"timeout"    mapstructure:"timeout"`
	}

	// ToolConfig maps a command-line tool to its npm package. An empty
	// Package disables the latest-version lookup for that tool.
	ToolConfig struct {
		Name    string `json:"name"    mapstructure:"name"`
		Package string `json:"package" mapstructure:"package"`
	}

	// ProbeConfig configures version probes.
	ProbeConfig struct {
		Timeout time.Duration `json:"timeout" mapstructure:"timeout"`
	}

	// UIConfig configures CLI output.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}

	// InvalidConfigError lists every constraint the decoded configuration
	// violates beyond what the CUE schema checks.
	InvalidConfigError struct {
		FieldErrors []error
	}
)

func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, fe := range e.FieldErrors {
		msgs[i] = fe.Error()
	}
	return fmt.Sprintf("%s: %s", ErrInvalidConfig, strings.Join(msgs, "; "))
}

func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks constraints that hold after env overrides are applied,
// which the file schema cannot see.
func (c *Config) Validate() error {
	var errs []error

	for _, d := range []struct {
		key string
		val time.Duration
	}{
		{"download.timeout", c.Download.Timeout},
		{"registry.timeout", c.Registry.Timeout},
		{"probe.timeout", c.Probe.Timeout},
	} {
		if d.val < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative, got %s", d.key, d.val))
		}
	}

	if strings.TrimSpace(c.Registry.BaseURL) == "" {
		errs = append(errs, errors.New("registry.base_url: must not be empty"))
	}

	seen := make(map[string]int, len(c.Tools))
	for i, tool := range c.Tools {
		if strings.TrimSpace(tool.Name) == "" {
			errs = append(errs, fmt.Errorf("tools[%d].name: must not be empty", i))
			continue
		}
		if !ValidToolName(tool.Name) {
			errs = append(errs, fmt.Errorf("tools[%d].name: %q is not a bare command name", i, tool.Name))
			continue
		}
		if first, dup := seen[tool.Name]; dup {
			errs = append(errs, fmt.Errorf("tools[%d]: duplicate name %q (same as tools[%d])", i, tool.Name, first))
			continue
		}
		seen[tool.Name] = i
	}

	if len(errs) == 0 {
		return nil
	}
	return &InvalidConfigError{FieldErrors: errs}
}
