// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/mangimangi/git-dogfood/internal/fetch"
	"github.com/mangimangi/git-dogfood/internal/install"
	"github.com/mangimangi/git-dogfood/internal/issue"
	"github.com/mangimangi/git-dogfood/internal/registry"
	"github.com/mangimangi/git-dogfood/pkg/cueutil"
)

const (
	// EnvPrefix prefixes environment overrides of settings (DOGFOOD_LOG_LEVEL, ...).
	EnvPrefix = "DOGFOOD"

	// DefaultSettingsFile is looked up when no --config path is given.
	DefaultSettingsFile = ".dogfood/config.cue"
)

//go:embed config_schema.cue
var configSchema []byte

type (
	// Settings tune the tool itself. They never carry install inputs.
	Settings struct {
		Log      LogSettings      `mapstructure:"log"`
		HTTP     HTTPSettings     `mapstructure:"http"`
		GitHub   GitHubSettings   `mapstructure:"github"`
		Registry RegistrySettings `mapstructure:"registry"`
		Install  InstallSettings  `mapstructure:"install"`
	}

	// LogSettings configures the CLI logger.
	LogSettings struct {
		Level string `mapstructure:"level"`
	}

	// HTTPSettings configures the fetch transport.
	HTTPSettings struct {
		Timeout time.Duration `mapstructure:"timeout"`
	}

	// GitHubSettings holds the endpoints artifacts are fetched from.
	GitHubSettings struct {
		APIURL string `mapstructure:"api_url"`
		RawURL string `mapstructure:"raw_url"`
	}

	// RegistrySettings locates the vendor registry.
	RegistrySettings struct {
		Path string `mapstructure:"path"`
	}

	// InstallSettings tunes installation passes.
	InstallSettings struct {
		Concurrency int `mapstructure:"concurrency"`
	}

	// LoadOptions defines explicit settings loading inputs.
	LoadOptions struct {
		// ConfigFilePath forces loading from a specific file when set. A
		// missing file is then an error.
		ConfigFilePath string
		// BaseDir is where DefaultSettingsFile is looked up; the working
		// directory when empty.
		BaseDir string
	}
)

// DefaultSettings returns the built-in settings.
func DefaultSettings() *Settings {
	return &Settings{
		Log:      LogSettings{Level: "info"},
		HTTP:     HTTPSettings{Timeout: fetch.DefaultTimeout},
		GitHub:   GitHubSettings{APIURL: fetch.DefaultAPIURL, RawURL: fetch.DefaultRawURL},
		Registry: RegistrySettings{Path: registry.DefaultPath},
		Install:  InstallSettings{Concurrency: install.DefaultConcurrency},
	}
}

// Load resolves settings from defaults, the settings file and DOGFOOD_*
// environment overrides, in increasing precedence. It also returns the path
// of the settings file that was read, empty when none was.
func Load(ctx context.Context, opts LoadOptions) (*Settings, string, error) {
	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("load config canceled: %w", ctx.Err())
	default:
	}

	v := viper.New()

	defaults := DefaultSettings()
	v.SetDefault("log.level", defaults.Log.Level)
	v.SetDefault("http.timeout", defaults.HTTP.Timeout)
	v.SetDefault("github.api_url", defaults.GitHub.APIURL)
	v.SetDefault("github.raw_url", defaults.GitHub.RawURL)
	v.SetDefault("registry.path", defaults.Registry.Path)
	v.SetDefault("install.concurrency", defaults.Install.Concurrency)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	resolvedPath := ""

	if opts.ConfigFilePath != "" {
		if !fileExists(opts.ConfigFilePath) {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(opts.ConfigFilePath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Verify the file path is correct").
				WithSuggestion("Omit --config to use the built-in defaults").
				Wrap(fmt.Errorf("config file not found: %s", opts.ConfigFilePath)).
				BuildError()
		}
		resolvedPath = opts.ConfigFilePath
	} else if local := filepath.Join(opts.BaseDir, DefaultSettingsFile); fileExists(local) {
		resolvedPath = local
	}

	if resolvedPath != "" {
		if err := loadCUEIntoViper(v, resolvedPath); err != nil {
			return nil, "", issue.NewErrorContext().
				WithOperation("load configuration").
				WithResource(resolvedPath).
				WithIssue(issue.ConfigLoadFailedId).
				WithSuggestion("Check that the file contains valid CUE syntax").
				WithSuggestion("Verify the configuration values match the expected schema").
				Wrap(err).
				BuildError()
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if s.Install.Concurrency < 1 {
		return nil, "", issue.NewErrorContext().
			WithOperation("validate configuration").
			WithIssue(issue.ConfigLoadFailedId).
			WithSuggestion("Set install.concurrency (or DOGFOOD_INSTALL_CONCURRENCY) to 1 or more").
			Wrap(fmt.Errorf("install.concurrency must be positive, got %d", s.Install.Concurrency)).
			BuildError()
	}

	return &s, resolvedPath, nil
}

// loadCUEIntoViper validates a CUE settings file against #Config and merges
// it into v, keeping defaults for absent keys and env overrides on top.
func loadCUEIntoViper(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	configMap, err := cueutil.DecodeMap(configSchema, data, "#Config",
		cueutil.WithFilename(path),
		cueutil.WithConcrete(false),
	)
	if err != nil {
		return err
	}

	if err := v.MergeConfigMap(configMap); err != nil {
		return fmt.Errorf("failed to merge config: %w", err)
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false
	}
	return err == nil && !info.IsDir()
}
