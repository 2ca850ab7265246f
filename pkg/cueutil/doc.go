// SPDX-License-Identifier: MPL-2.0

// Package cueutil validates documents against embedded CUE schemas and
// decodes them into Go structs.
//
// JSON is a subset of CUE, so the same flow serves the JSON vendor registry
// and the CUE settings file:
//
//  1. Compile the embedded schema
//  2. Compile the document and unify it with the schema definition
//  3. Validate and decode
//
// # Usage
//
//	//go:embed registry_schema.cue
//	var schema []byte
//
//	reg, err := cueutil.Decode[Registry](schema, data, "#Registry",
//	    cueutil.WithFilename(".vendored/config.json"))
package cueutil
