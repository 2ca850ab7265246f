// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/spf13/cobra"

// usageArgs wraps a positional argument validator so its failures exit with
// the usage code.
func usageArgs(fn cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return usageError(fn(cmd, args))
	}
}
