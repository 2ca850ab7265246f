// SPDX-License-Identifier: MPL-2.0

// Command dogfood installs, resolves and gates releases of git-dogfood.
package main

import (
	"os"

	cmd "github.com/mangimangi/git-dogfood/cmd/dogfood"
)

func main() {
	os.Exit(cmd.Main())
}
