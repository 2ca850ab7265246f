// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mangimangi/git-dogfood/internal/config"
	"github.com/mangimangi/git-dogfood/internal/fetch"
	"github.com/mangimangi/git-dogfood/internal/install"
	"github.com/mangimangi/git-dogfood/internal/issue"
)

// installParams bundles the dependencies and inputs for the install command,
// so runInstall can be tested without a real Cobra command or live GitHub.
type installParams struct {
	stdout    io.Writer
	installer *install.Installer
	cfg       install.Config
}

// statusStyles maps artifact outcomes to their summary style.
var statusStyles = map[install.Status]lipgloss.Style{
	install.StatusInstalled: SuccessStyle,
	install.StatusSkipped:   WarningStyle,
	install.StatusFailed:    ErrorStyle,
}

// newInstallCommand creates the `dogfood install` command.
func newInstallCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "install [ref] [repo]",
		Short: "Install the tool's files at a version",
		Long: `Install the tool's files into the current repository at a version.

Inputs come from the environment first, then from the arguments:

  VENDOR_REF          version to install (required; or first argument)
  VENDOR_REPO         source repository (or second argument; default ` + install.DefaultSourceRepo + `)
  VENDOR_INSTALL_DIR  code directory (default ` + install.DefaultInstallDir + `)
  VENDOR_MANIFEST     file that receives the list of written paths
  GH_TOKEN            token for the authenticated API (GITHUB_TOKEN as fallback)

The resolver is rewritten on every run. The trigger workflow is written
only when absent, so local edits survive updates.`,
		Example: `  # Install a release
  dogfood install 2.3.0

  # Install from a fork and record written files
  VENDOR_MANIFEST=manifest.txt dogfood install v2.3.0 me/git-dogfood`,
		Args: usageArgs(cobra.MaximumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.ResolveInstall(config.ReadInstallEnv(), args)
			if err != nil {
				err = issue.NewErrorContext().
					WithOperation("install").
					WithIssue(issue.MissingRefId).
					WithSuggestion("Pass the version as the first argument: dogfood install 2.3.0").
					WithSuggestion("Or set " + config.EnvRef).
					Wrap(err).
					BuildError()
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
				return &ExitError{Code: exitCodeOf(err), Err: err}
			}

			installer := install.New(
				install.WithFetcherFactory(func(token string) fetch.Fetcher { return a.newFetcher(token) }),
				install.WithLogger(a.logger),
				install.WithConcurrency(a.settings.Install.Concurrency),
			)

			p := installParams{
				stdout:    cmd.OutOrStdout(),
				installer: installer,
				cfg:       cfg,
			}
			if err := runInstall(cmd.Context(), p); err != nil {
				err = describeInstallError(err, cfg)
				fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
				return &ExitError{Code: exitCodeOf(err), Err: err}
			}
			return nil
		},
	}
}

// runInstall performs one installation pass and prints its summary.
func runInstall(ctx context.Context, p installParams) error {
	res, err := p.installer.Install(ctx, p.cfg)
	if err != nil {
		return err
	}

	fmt.Fprintf(p.stdout, "%s %s@%s into %s\n",
		TitleStyle.Render("git-dogfood"),
		PathStyle.Render(res.SourceRepo), res.Tag,
		PathStyle.Render(res.InstallDir))
	for _, o := range res.Outcomes {
		fmt.Fprintf(p.stdout, "  %-9s %s\n", statusStyles[o.Status].Render(o.Status.String()), o.Artifact.DestPath)
	}
	for _, o := range res.Skipped() {
		fmt.Fprintln(p.stdout, o.Artifact.DestPath+" already exists, skipping")
	}
	if failed := res.Failed(); len(failed) > 0 {
		fmt.Fprintln(p.stdout, WarningStyle.Render(fmt.Sprintf("%d optional artifact(s) not installed", len(failed))))
	}
	fmt.Fprintf(p.stdout, "%d installed, %d skipped\n", len(res.Installed()), len(res.Skipped()))
	return nil
}

// describeInstallError attaches remediation context to an install failure.
func describeInstallError(err error, cfg install.Config) error {
	ec := issue.NewErrorContext().
		WithOperation("install").
		WithResource(cfg.SourceRepo + "@" + install.CanonicalTag(cfg.Ref))

	var rateErr *fetch.RateLimitError
	var manifestErr *install.ManifestWriteError
	switch {
	case errors.As(err, &rateErr):
		ec.WithIssue(issue.RateLimitedId).
			WithSuggestion("Wait for the rate limit to reset, or use a token with a higher limit")
	case errors.As(err, &manifestErr):
		ec.WithIssue(issue.ManifestWriteFailedId).
			WithResource(manifestErr.Path).
			WithSuggestion("Check that " + config.EnvManifest + " names a writable file")
	case errors.Is(err, fetch.ErrFetch):
		ec.WithIssue(issue.FetchFailedId)
		var statusErr *fetch.StatusError
		if errors.As(err, &statusErr) && statusErr.NotFound() {
			ec.WithSuggestion("No " + install.CanonicalTag(cfg.Ref) + " in " + cfg.SourceRepo + "; check the version or pass a branch name")
		} else {
			ec.WithSuggestion("Verify the ref exists in the source repository")
		}
		if cfg.AuthToken == "" {
			ec.WithSuggestion("Set " + config.EnvGHToken + " if the source repository is private")
		}
	case errors.Is(err, fs.ErrPermission):
		ec.WithIssue(issue.PermissionDeniedId)
	}
	return ec.Wrap(err).BuildError()
}
