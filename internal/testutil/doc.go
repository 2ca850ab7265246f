// SPDX-License-Identifier: MPL-2.0

// Package testutil provides helper functions for tests that handle errors
// appropriately, reducing boilerplate and ensuring consistent error handling.
//
// Common helpers include file setup (MustWriteFile, MustMkdirAll) and Origin,
// an httptest server that serves repository files through both the raw
// download layout and the GitHub contents API.
package testutil
