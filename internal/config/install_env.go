// SPDX-License-Identifier: MPL-2.0

package config

import (
	"github.com/spf13/viper"

	"github.com/mangimangi/git-dogfood/internal/install"
)

// Environment variables of the install contract.
const (
	EnvRef         = "VENDOR_REF"
	EnvRepo        = "VENDOR_REPO"
	EnvInstallDir  = "VENDOR_INSTALL_DIR"
	EnvManifest    = "VENDOR_MANIFEST"
	EnvGHToken     = "GH_TOKEN"
	EnvGitHubToken = "GITHUB_TOKEN"
)

// InstallEnv holds the install inputs read from the environment. Empty
// fields were not set.
type InstallEnv struct {
	Ref          string
	Repo         string
	InstallDir   string
	ManifestPath string
	Token        string
}

// ReadInstallEnv reads the install contract from the process environment.
// Empty variables count as unset, and GH_TOKEN wins over GITHUB_TOKEN.
func ReadInstallEnv() InstallEnv {
	v := viper.New()
	// BindEnv only fails without a key.
	_ = v.BindEnv("ref", EnvRef)
	_ = v.BindEnv("repo", EnvRepo)
	_ = v.BindEnv("install_dir", EnvInstallDir)
	_ = v.BindEnv("manifest", EnvManifest)
	_ = v.BindEnv("token", EnvGHToken, EnvGitHubToken)

	return InstallEnv{
		Ref:          v.GetString("ref"),
		Repo:         v.GetString("repo"),
		InstallDir:   v.GetString("install_dir"),
		ManifestPath: v.GetString("manifest"),
		Token:        v.GetString("token"),
	}
}

// FirstPresent returns the first non-empty value, or "" when all are empty.
func FirstPresent(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// ResolveInstall builds the install config from env and positional args
// ([ref] [repo]). Each field takes the first present of env, argument and
// built-in default. Ref has no default: when both sources are empty the
// result is an *install.MissingRefError.
func ResolveInstall(env InstallEnv, args []string) (install.Config, error) {
	argRef, argRepo := positional(args, 0), positional(args, 1)

	ref := FirstPresent(env.Ref, argRef)
	if ref == "" {
		return install.Config{}, &install.MissingRefError{Sources: []string{EnvRef, "argument 1"}}
	}

	return install.Config{
		Ref:          ref,
		SourceRepo:   FirstPresent(env.Repo, argRepo, install.DefaultSourceRepo),
		InstallDir:   FirstPresent(env.InstallDir, install.DefaultInstallDir),
		ManifestPath: env.ManifestPath,
		AuthToken:    env.Token,
	}, nil
}

func positional(args []string, i int) string {
	if i < len(args) {
		return args[i]
	}
	return ""
}
