// SPDX-License-Identifier: MPL-2.0

package install

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingRef is the sentinel wrapped by MissingRefError.
	ErrMissingRef = errors.New("missing ref")

	// ErrManifestWrite is the sentinel wrapped by ManifestWriteError.
	ErrManifestWrite = errors.New("manifest write failed")
)

type (
	// MissingRefError is returned when no ref was supplied by any source. It
	// is a configuration error raised before any fetch is attempted.
	MissingRefError struct {
		// Sources lists the places that were consulted, in order.
		Sources []string
	}

	// ManifestWriteError reports a filesystem failure writing the manifest.
	// It is fatal: a stated success without the manifest would break the
	// completeness guarantee.
	ManifestWriteError struct {
		Path string
		Err  error
	}

	// ArtifactError wraps a failure to fetch, validate or write one artifact.
	ArtifactError struct {
		DestPath string
		Policy   Policy
		Err      error
	}
)

// Error implements the error interface.
func (e *MissingRefError) Error() string {
	if len(e.Sources) == 0 {
		return "missing ref: no version to install"
	}
	return "missing ref: none of " + strings.Join(e.Sources, ", ") + " is set"
}

// Unwrap returns ErrMissingRef.
func (e *MissingRefError) Unwrap() error { return ErrMissingRef }

// Error implements the error interface.
func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("writing manifest %s: %v", e.Path, e.Err)
}

// Is matches ErrManifestWrite.
func (e *ManifestWriteError) Is(target error) bool { return target == ErrManifestWrite }

// Unwrap returns the underlying filesystem error.
func (e *ManifestWriteError) Unwrap() error { return e.Err }

// Error implements the error interface.
func (e *ArtifactError) Error() string {
	return fmt.Sprintf("installing %s (%s): %v", e.DestPath, e.Policy, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ArtifactError) Unwrap() error { return e.Err }
