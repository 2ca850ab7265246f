// SPDX-License-Identifier: MPL-2.0

// Package registry reads the vendor registry document maintained by the
// vendoring framework. This tool never writes it.
package registry
