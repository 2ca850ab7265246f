// SPDX-License-Identifier: MPL-2.0

package loop

import (
	"strings"

	"github.com/mangimangi/git-dogfood/internal/resolve"
)

// CommitPrefix marks commits produced by the self-update. A merge whose
// message starts with it must never cut a release.
const CommitPrefix = "chore(dogfood):"

// Decision is the outcome of the release gate for one merge.
type Decision struct {
	Release bool
	Reason  string
}

// IsSelfUpdateCommit reports whether msg carries CommitPrefix. Leading
// whitespace is ignored; the match is case-sensitive.
func IsSelfUpdateCommit(msg string) bool {
	return strings.HasPrefix(strings.TrimLeft(msg, " \t\r\n"), CommitPrefix)
}

// ReleaseGate decides whether a merge with commit message msg may be released.
func ReleaseGate(msg string) Decision {
	if IsSelfUpdateCommit(msg) {
		return Decision{Release: false, Reason: "self-update commit"}
	}
	return Decision{Release: true, Reason: "regular merge"}
}

// CommitMessage builds the message of the install PR commit for version.
func CommitMessage(version string) string {
	return CommitPrefix + " install " + resolve.CanonicalVendorKey + " " + version
}
