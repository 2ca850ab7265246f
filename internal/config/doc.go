// SPDX-License-Identifier: MPL-2.0

// Package config handles configuration using Viper with CUE as the settings
// file format.
//
// Two layers are kept apart. Settings tune the tool itself (logging, HTTP,
// GitHub endpoints, registry location, fetch concurrency); they come from
// defaults, an optional CUE file validated against config_schema.cue, and
// DOGFOOD_* environment overrides. Install inputs (ref, source repository,
// install dir, manifest path, token) follow the VENDOR_* environment contract
// with positional fallbacks, resolved by ResolveInstall in a fixed order.
package config
