// SPDX-License-Identifier: MPL-2.0

// Package loop models the self-update cycle of this tool.
//
// A merge to the default branch may cut a release; a release triggers the
// self-update; the self-update resolves this tool's vendor key and opens an
// install PR; merging that PR lands a commit tagged with CommitPrefix, which
// the release gate excludes. The tag is what stops the cycle from feeding
// itself.
package loop
