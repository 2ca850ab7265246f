// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"io"

	"github.com/charmbracelet/log"
)

// newLogger builds the CLI logger on w. An unknown level falls back to info;
// verbose forces debug.
func newLogger(w io.Writer, level string, verbose bool) *log.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	if verbose {
		lvl = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix: "dogfood",
		Level:  lvl,
	})
}
