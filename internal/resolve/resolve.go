// SPDX-License-Identifier: MPL-2.0

// Package resolve finds the registry entry that represents this tool.
//
// The lookup is by key convention only: CanonicalVendorKey always names this
// tool's entry, so there is nothing to scan and nothing to disambiguate.
package resolve

import (
	"fmt"
	"io"

	"github.com/mangimangi/git-dogfood/internal/registry"
)

const (
	// CanonicalVendorKey is the registry key that always denotes this tool.
	CanonicalVendorKey = "git-dogfood"

	// OutputName is the key of the rendered output line.
	OutputName = "vendor"
)

// ResolveVendor returns CanonicalVendorKey when reg registers it. A nil
// registry, a registry without a vendor mapping, and a registry holding only
// other keys all resolve to ("", false).
func ResolveVendor(reg *registry.Registry) (string, bool) {
	if reg == nil {
		return "", false
	}
	if _, ok := reg.Vendors[CanonicalVendorKey]; !ok {
		return "", false
	}
	return CanonicalVendorKey, true
}

// Render formats a resolved key as the single "vendor=<key>" line consumed
// by the automation layer.
func Render(key string) string {
	return fmt.Sprintf("%s=%s", OutputName, key)
}

// Emit writes the rendered line for key to every writer. Nothing is written
// when ok is false.
func Emit(key string, ok bool, writers ...io.Writer) error {
	if !ok {
		return nil
	}
	line := Render(key) + "\n"
	for _, w := range writers {
		if _, err := io.WriteString(w, line); err != nil {
			return fmt.Errorf("writing resolver output: %w", err)
		}
	}
	return nil
}
