// SPDX-License-Identifier: MPL-2.0

package loop

import "fmt"

const (
	// StateMerged is a change landing on the default branch.
	StateMerged State = iota
	// StateReleased is a new version published from a non-tagged merge.
	StateReleased
	// StateSelfUpdateTriggered is the update automation starting for a release.
	StateSelfUpdateTriggered
	// StateVendorResolved is the resolver having found this tool's vendor key.
	StateVendorResolved
	// StateInstallPRPending is an install PR, with a tagged commit message, awaiting merge.
	StateInstallPRPending
	// StateIdle ends a cycle.
	StateIdle
)

type (
	// State is one stage of the self-update cycle.
	State int

	// Trace is the ordered list of states one cycle visited.
	Trace []State
)

// String returns the state name used in logs and output.
func (s State) String() string {
	switch s {
	case StateMerged:
		return "merged"
	case StateReleased:
		return "released"
	case StateSelfUpdateTriggered:
		return "self-update-triggered"
	case StateVendorResolved:
		return "vendor-resolved"
	case StateInstallPRPending:
		return "install-pr-pending"
	case StateIdle:
		return "idle"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Contains reports whether s was visited.
func (t Trace) Contains(s State) bool {
	for _, v := range t {
		if v == s {
			return true
		}
	}
	return false
}

// Last returns the final state, or StateIdle for an empty trace.
func (t Trace) Last() State {
	if len(t) == 0 {
		return StateIdle
	}
	return t[len(t)-1]
}
