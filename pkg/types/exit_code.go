// SPDX-License-Identifier: MPL-2.0

package types

import "strconv"

const (
	// ExitSuccess reports a completed run, including runs that resolved nothing.
	ExitSuccess ExitCode = 0
	// ExitFailure reports a runtime failure such as a fetch or manifest write error.
	ExitFailure ExitCode = 1
	// ExitUsage reports invalid invocation or configuration, such as a missing ref.
	ExitUsage ExitCode = 2
)

// ExitCode is the process status a dogfood command ends with.
type ExitCode int

// String returns the decimal form, as a shell would print $?.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
