// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aicodewith/toolkeeper/internal/issue"
	"github.com/aicodewith/toolkeeper/internal/probe"
	"github.com/aicodewith/toolkeeper/internal/reconcile"
	"github.com/aicodewith/toolkeeper/internal/registry"
	"github.com/aicodewith/toolkeeper/internal/selfupdate"
	"github.com/aicodewith/toolkeeper/internal/trust"
	"github.com/aicodewith/toolkeeper/pkg/platform"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/viper"
)

const (
	// AppName is the application name.
	AppName = "toolkeeper"
	// ConfigFileName is the name of the config file (without extension).
	ConfigFileName = "config"
	// ConfigFileExt is the config file extension.
	ConfigFileExt = "cue"
	// EnvPrefix prefixes environment overrides, e.g. TOOLKEEPER_UI_VERBOSE.
	EnvPrefix = "TOOLKEEPER"

	// maxFileSize bounds config.cue before it is parsed.
	maxFileSize = 1 << 20
)

// ErrConfigExists is returned by CreateDefaultConfig when the file exists and
// overwriting was not requested.
var ErrConfigExists = errors.New("config file already exists")

//go:embed config_schema.cue
var configSchema string

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	tools := reconcile.DefaultTools()
	toolCfgs := make([]ToolConfig, len(tools))
	for i, t := range tools {
		toolCfgs[i] = ToolConfig{Name: t.Name, Package: t.Package}
	}

	return &Config{
		Download: DownloadConfig{
			TrustedHosts: trust.DefaultSuffixes(),
			DirName:      selfupdate.DefaultDirName,
		},
		Registry: RegistryConfig{
			BaseURL:   registry.DefaultBaseURL,
			UserAgent: registry.DefaultUserAgent,
			Timeout:   10 * time.Second,
		},
		Tools: toolCfgs,
		Probe: ProbeConfig{Timeout: probe.DefaultTimeout},
	}
}

// ConfigDir returns the toolkeeper configuration directory using platform-specific
// conventions: Windows uses %APPDATA%, macOS uses ~/Library/Application Support,
// and Linux/others use $XDG_CONFIG_HOME (defaulting to ~/.config).
//
//nolint:revive // ConfigDir is more descriptive than Dir for external callers
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case platform.Windows:
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case platform.Darwin:
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		configDir = filepath.Join(home, "Library", "Application Support")
	default:
		configDir = os.Getenv("XDG_CONFIG_HOME")
		if configDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			configDir = filepath.Join(home, ".config")
		}
	}

	return filepath.Join(configDir, AppName), nil
}

// loadWithOptions resolves the config file, merges it over the defaults,
// applies environment overrides and validates the result.
func loadWithOptions(ctx context.Context, opts LoadOptions) (*Config, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load config canceled: %w", err)
	}

	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path, err := resolvePath(opts)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := loadCUEIntoViper(v, path); err != nil {
			return nil, issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(path).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				WithSuggestion("Run 'toolkeeper config show' to see the effective configuration").
				Wrap(err).
				BuildError()
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Path = path

	if err := cfg.Validate(); err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("validate configuration").
			WithResource(path).
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Check TOOLKEEPER_* environment variables as well as the config file").
			Wrap(err).
			BuildError()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, defaults *Config) {
	v.SetDefault("download.trusted_hosts", defaults.Download.TrustedHosts)
	v.SetDefault("download.dir_name", defaults.Download.DirName)
	v.SetDefault("download.user_agent", defaults.Download.UserAgent)
	v.SetDefault("download.timeout", defaults.Download.Timeout)
	v.SetDefault("download.strict_redirects", defaults.Download.StrictRedirects)
	v.SetDefault("registry.base_url", defaults.Registry.BaseURL)
	v.SetDefault("registry.user_agent", defaults.Registry.UserAgent)
	v.SetDefault("registry.timeout", defaults.Registry.Timeout)
	v.SetDefault("probe.timeout", defaults.Probe.Timeout)
	v.SetDefault("ui.verbose", defaults.UI.Verbose)

	tools := make([]any, len(defaults.Tools))
	for i, t := range defaults.Tools {
		tools[i] = map[string]any{"name": t.Name, "package": t.Package}
	}
	v.SetDefault("tools", tools)
}

// resolvePath picks the file to load: the explicit path (which must exist),
// then <config dir>/config.cue, then ./config.cue. An empty result means
// defaults only.
func resolvePath(opts LoadOptions) (string, error) {
	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Run 'toolkeeper config init' to create a default file").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		return opts.ConfigFilePath, nil
	}

	cfgDir := opts.ConfigDirPath
	if cfgDir == "" {
		dir, err := ConfigDir()
		if err != nil {
			return "", err
		}
		cfgDir = dir
	}

	candidates := []string{
		filepath.Join(cfgDir, ConfigFileName+"."+ConfigFileExt),
		filepath.Join(opts.WorkDir, ConfigFileName+"."+ConfigFileExt),
	}
	for _, p := range candidates {
		if fileExists(p) {
			return p, nil
		}
	}
	return "", nil
}

// loadCUEIntoViper parses a CUE file, validates it against the #Config schema,
// and merges its contents into Viper.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := checkFileSize(data, maxFileSize, path); err != nil {
		return err
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(configSchema)
	if schemaValue.Err() != nil {
		return fmt.Errorf("internal error: failed to compile config schema: %w", schemaValue.Err())
	}

	userValue := ctx.CompileBytes(data, cue.Filename(path))
	if userValue.Err() != nil {
		return formatCUEError(userValue.Err(), path)
	}

	schema := schemaValue.LookupPath(cue.ParsePath("#Config"))
	unified := schema.Unify(userValue)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return formatCUEError(err, path)
	}

	var configMap map[string]any
	if err := unified.Decode(&configMap); err != nil {
		return formatCUEError(err, path)
	}

	// Merge keeps defaults for omitted keys and leaves env overrides on top.
	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}

	return nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// CreateDefaultConfig writes the default configuration to dir/config.cue
// and returns the path. An existing file is kept, and ErrConfigExists
// returned, unless force is set.
func CreateDefaultConfig(dir string, force bool) (string, error) {
	if dir == "" {
		d, err := ConfigDir()
		if err != nil {
			return "", err
		}
		dir = d
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	cfgPath := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if !force && fileExists(cfgPath) {
		return cfgPath, fmt.Errorf("%w: %s", ErrConfigExists, cfgPath)
	}

	if err := os.WriteFile(cfgPath, []byte(GenerateCUE(DefaultConfig())), 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return cfgPath, nil
}

// GenerateCUE generates a CUE representation of the configuration
func GenerateCUE(cfg *Config) string {
	var sb strings.Builder

	sb.WriteString("// toolkeeper configuration\n")
	sb.WriteString("// Environment variables prefixed with TOOLKEEPER_ override these values.\n\n")

	sb.WriteString("download: {\n")
	sb.WriteString("\ttrusted_hosts: [")
	for i, h := range cfg.Download.TrustedHosts {
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%q", h)
	}
	sb.WriteString("]\n")
	fmt.Fprintf(&sb, "\tdir_name:   %q\n", cfg.Download.DirName)
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Download.UserAgent)
	fmt.Fprintf(&sb, "\ttimeout:    %q\n", cfg.Download.Timeout.String())
	fmt.Fprintf(&sb, "\tstrict_redirects: %v\n", cfg.Download.StrictRedirects)
	sb.WriteString("}\n")

	sb.WriteString("\nregistry: {\n")
	fmt.Fprintf(&sb, "\tbase_url:   %q\n", cfg.Registry.BaseURL)
	fmt.Fprintf(&sb, "\tuser_agent: %q\n", cfg.Registry.UserAgent)
	fmt.Fprintf(&sb, "\ttimeout:    %q\n", cfg.Registry.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\ntools: [\n")
	for _, t := range cfg.Tools {
		if t.Package != "" {
			fmt.Fprintf(&sb, "\t{name: %q, package: %q},\n", t.Name, t.Package)
		} else {
			fmt.Fprintf(&sb, "\t{name: %q},\n", t.Name)
		}
	}
	sb.WriteString("]\n")

	sb.WriteString("\nprobe: {\n")
	fmt.Fprintf(&sb, "\ttimeout: %q\n", cfg.Probe.Timeout.String())
	sb.WriteString("}\n")

	sb.WriteString("\nui: {\n")
	fmt.Fprintf(&sb, "\tverbose: %v\n", cfg.UI.Verbose)
	sb.WriteString("}\n")

	return sb.String()
}
