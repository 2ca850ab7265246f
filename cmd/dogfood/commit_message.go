// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mangimangi/git-dogfood/internal/loop"
)

// newCommitMessageCommand creates the `dogfood commit-message` command.
func newCommitMessageCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "commit-message <version>",
		Short: "Print the tagged commit message for an install PR",
		Args:  usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), loop.CommitMessage(args[0]))
			return nil
		},
	}
}

// newVersionCommand creates the `dogfood version` command.
func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, _ []string) error {
			fmt.Fprintln(cmd.OutOrStdout(), "dogfood "+getVersionString())
			return nil
		},
	}
}
