// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mangimangi/git-dogfood/internal/config"
	"github.com/mangimangi/git-dogfood/internal/fetch"
	"github.com/mangimangi/git-dogfood/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// app carries the state shared by all subcommands of one invocation. It is
// filled by the root PersistentPreRunE.
type app struct {
	verbose  bool
	cfgFile  string
	settings *config.Settings
	logger   *log.Logger
}

// newRootCommand builds the command tree. Each call returns an independent
// tree, so tests can run commands in parallel.
func newRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "dogfood",
		Short: "Self-updating vendored installer",
		Long: TitleStyle.Render("dogfood") + SubtitleStyle.Render(" - self-updating vendored installer") + `

dogfood installs its own files into a consumer repository at a given
version, tells the update automation which vendor entry represents it,
and keeps its own install PRs from triggering another release.

` + SubtitleStyle.Render("Examples:") + `
  dogfood install 2.3.0       Install version 2.3.0 into .dogfood/
  dogfood resolve             Print vendor=git-dogfood when registered
  dogfood release-gate        Decide whether the pushed commit may release`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "enable verbose output")
	root.PersistentFlags().StringVar(&a.cfgFile, "config", "", "settings file (default is "+config.DefaultSettingsFile+" when present)")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	root.AddCommand(
		newInstallCommand(a),
		newResolveCommand(a),
		newReleaseGateCommand(a),
		newCommitMessageCommand(),
		newVersionCommand(),
	)

	return root
}

// init loads settings and builds the logger for the invocation.
func (a *app) init(cmd *cobra.Command) error {
	settings, path, err := config.Load(cmd.Context(), config.LoadOptions{ConfigFilePath: a.cfgFile})
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), ErrorStyle.Render("Error: ")+formatErrorForDisplay(err, a.verbose))
		return &ExitError{Code: exitCodeOf(err), Err: err}
	}
	a.settings = settings
	a.logger = newLogger(cmd.ErrOrStderr(), settings.Log.Level, a.verbose)
	if path != "" {
		a.logger.Debug("loaded settings", "path", path)
	}
	return nil
}

// newFetcher builds the artifact fetcher from settings and token.
func (a *app) newFetcher(token string) *fetch.Client {
	return fetch.NewClient(
		fetch.WithHTTPClient(&http.Client{Timeout: a.settings.HTTP.Timeout}),
		fetch.WithAPIURL(a.settings.GitHub.APIURL),
		fetch.WithRawURL(a.settings.GitHub.RawURL),
		fetch.WithToken(token),
		fetch.WithUserAgent("git-dogfood/"+Version),
	)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Main runs the CLI with os.Args and returns the process exit code.
func Main() int {
	err := fang.Execute(
		context.Background(),
		newRootCommand(),
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	)
	return int(exitCodeOf(err))
}

// formatErrorForDisplay formats an error for user display. ActionableErrors
// use their Format method; in verbose mode the matching catalog guidance is
// appended.
func formatErrorForDisplay(err error, verbose bool) string {
	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		return err.Error()
	}
	out := ae.Format(verbose)
	if !verbose || ae.Issue == 0 {
		return out
	}
	if entry := issue.Get(ae.Issue); entry != nil {
		if rendered, renderErr := entry.Render("notty"); renderErr == nil {
			out += "\n" + rendered
		}
	}
	return out
}

// appendOutput appends line to the GitHub step output file at path. An
// empty path means no step output is wanted.
func appendOutput(path, line string) error {
	if path == "" {
		return nil
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening step output: %w", err)
	}
	if _, err := io.WriteString(f, line+"\n"); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing step output: %w", err)
	}
	return f.Close()
}
