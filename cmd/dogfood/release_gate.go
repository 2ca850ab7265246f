// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mangimangi/git-dogfood/internal/loop"
)

// releaseGateParams bundles the inputs of the release-gate command.
type releaseGateParams struct {
	stdout     io.Writer
	logger     *log.Logger
	message    string
	eventPath  string
	outputPath string
}

// newReleaseGateCommand creates the `dogfood release-gate` command.
func newReleaseGateCommand(a *app) *cobra.Command {
	var p releaseGateParams

	cmd := &cobra.Command{
		Use:   "release-gate",
		Short: "Decide whether a merged commit may cut a release",
		Long: `Print "release=true" or "release=false" for a merged commit.

Commits whose message starts with "` + loop.CommitPrefix + `" were produced by the
self-update and never release; this breaks the update cycle. The message
comes from --message, or from the head commit of the push payload at
--event (default $GITHUB_EVENT_PATH).`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			haveMessage := cmd.Flags().Changed("message")
			if !haveMessage && p.eventPath == "" {
				return usageError(errors.New("one of --message or --event is required"))
			}
			p.stdout = cmd.OutOrStdout()
			p.logger = a.logger
			if err := runReleaseGate(p, haveMessage); err != nil {
				return &ExitError{Code: exitCodeOf(err), Err: err}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&p.message, "message", "", "commit message to classify")
	cmd.Flags().StringVar(&p.eventPath, "event", os.Getenv("GITHUB_EVENT_PATH"), "GitHub push event payload")
	cmd.Flags().StringVar(&p.outputPath, "github-output", os.Getenv("GITHUB_OUTPUT"), "step output file to append to")

	return cmd
}

// runReleaseGate classifies the commit and prints the decision. The
// message flag wins over the event payload when both are given.
func runReleaseGate(p releaseGateParams, haveMessage bool) error {
	msg := p.message
	if !haveMessage {
		var err error
		if msg, err = loop.HeadCommitMessage(p.eventPath); err != nil {
			return fmt.Errorf("reading head commit: %w", err)
		}
	}

	d := loop.ReleaseGate(msg)
	p.logger.Info("release gate", "release", d.Release, "reason", d.Reason)

	line := "release=" + strconv.FormatBool(d.Release)
	fmt.Fprintln(p.stdout, line)
	if err := appendOutput(p.outputPath, line); err != nil {
		return fmt.Errorf("recording step output: %w", err)
	}
	return nil
}
