// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mangimangi/git-dogfood/internal/config"
	"github.com/mangimangi/git-dogfood/internal/install"
	"github.com/mangimangi/git-dogfood/internal/registry"
	"github.com/mangimangi/git-dogfood/internal/resolve"
)

// resolveParams bundles the inputs of the resolve command.
type resolveParams struct {
	stdout       io.Writer
	logger       *log.Logger
	registryPath string
	outputPath   string // $GITHUB_OUTPUT, empty to skip
	installDir   string // empty means install.DefaultInstallDir
	hasToken     bool
}

// newResolveCommand creates the `dogfood resolve` command.
func newResolveCommand(a *app) *cobra.Command {
	var registryPath, outputPath string

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Print this tool's vendor key when the registry lists it",
		Long: `Print "vendor=` + resolve.CanonicalVendorKey + `" when the vendor registry has an entry
under that key, and nothing otherwise.

A missing or malformed registry resolves to nothing and still exits 0.
When --github-output (default $GITHUB_OUTPUT) is set, the line is also
appended to that file.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if registryPath == "" {
				registryPath = a.settings.Registry.Path
			}
			env := config.ReadInstallEnv()
			p := resolveParams{
				stdout:       cmd.OutOrStdout(),
				logger:       a.logger,
				registryPath: registryPath,
				outputPath:   outputPath,
				installDir:   env.InstallDir,
				hasToken:     env.Token != "",
			}
			if err := runResolve(p); err != nil {
				return &ExitError{Code: exitCodeOf(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&registryPath, "registry", "", "vendor registry path (default "+registry.DefaultPath+")")
	cmd.Flags().StringVar(&outputPath, "github-output", os.Getenv("GITHUB_OUTPUT"), "step output file to append to")

	return cmd
}

// runResolve loads the registry and emits the vendor line when resolved.
func runResolve(p resolveParams) error {
	reg, err := registry.Load(p.registryPath)
	if err != nil {
		p.logger.Debug("registry unavailable, nothing to resolve", "err", err)
		reg = nil
	}

	key, ok := resolve.ResolveVendor(reg)
	if !ok {
		p.logger.Debug("no vendor entry", "key", resolve.CanonicalVendorKey, "registry", p.registryPath)
		return nil
	}

	checkVendorEntry(p, key, reg)

	if err := resolve.Emit(key, ok, p.stdout); err != nil {
		return err
	}
	if err := appendOutput(p.outputPath, resolve.Render(key)); err != nil {
		return fmt.Errorf("recording step output: %w", err)
	}
	return nil
}

// checkVendorEntry warns about registry settings that will trip up the
// install PR. It never changes the resolution.
func checkVendorEntry(p resolveParams, key string, reg *registry.Registry) {
	if err, bad := reg.Malformed[key]; bad {
		p.logger.Warn("vendor entry has an unexpected shape; its settings are ignored",
			"vendor", key, "err", err)
		return
	}

	v := reg.Vendors[key]
	if v.Private && !p.hasToken {
		p.logger.Warn("vendor is private but no token is set; install will fail",
			"vendor", key, "hint", "set "+config.EnvGHToken)
	}

	installDir := p.installDir
	if installDir == "" {
		installDir = install.DefaultInstallDir
	}
	resolver := path.Join(installDir, "resolve")
	if len(v.Protected) > 0 && !v.Protects(resolver) {
		p.logger.Warn("registry does not protect the installed code",
			"vendor", key, "path", resolver, "hint", "add "+installDir+"/** to protected")
	}
}
