// SPDX-License-Identifier: MPL-2.0

// Package install places and updates the vendored files of git-dogfood in a
// consumer repository.
//
// Artifacts carry one of two policies. AlwaysOverwrite artifacts are versioned
// code and are rewritten on every pass so they track the installed ref.
// OnceOnly artifacts are generated configuration that consumers may edit; they
// are written only when absent. A pass either fails before writing a manifest
// or writes a complete one.
package install
