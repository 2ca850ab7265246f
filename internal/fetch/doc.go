// SPDX-License-Identifier: MPL-2.0

// Package fetch retrieves single files from a source repository at a given
// revision.
//
// Two transports are provided:
//   - github.go: authenticated GitHub contents API (used when a token is set)
//   - raw.go: unauthenticated content-addressable download URL
//
// The Client type picks between them per call. It performs no retry and no
// caching, and is safe for concurrent use on distinct files.
package fetch
