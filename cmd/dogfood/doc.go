// SPDX-License-Identifier: MPL-2.0

// Package cmd contains the dogfood CLI commands.
//
// Each command keeps its core logic in a run* function taking a params
// struct, so tests can drive it with in-memory writers and an httptest origin
// instead of a real Cobra invocation.
package cmd
